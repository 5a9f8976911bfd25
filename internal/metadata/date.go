package metadata

import (
	"regexp"
	"time"

	"github.com/John-Robertt/progmeta/internal/domain"
)

// releasePattern 对应 "25 Dec 1998"：
// 日为 1–2 位（允许单个前导空格补位，例如 " 5"），英文三字母月份（不区分大小写），四位年份；
// 各部分之间可以是任意空白（空格、制表符）。
var releasePattern = regexp.MustCompile(`^(3[01]|[12][0-9]|0[1-9]|[1-9]| [1-9])\s+([A-Za-z]{3})\s+([0-9]{4})$`)

// releaseLayout 是归一化之后交给 time.Parse 的布局，负责月份名与日历合法性校验。
const releaseLayout = "2 Jan 2006"

// ParseReleaseDate 把 release_date 原文转成 ISO 日期。
//
// 任何解析失败都回退为 domain.EpochDate（State=DateFallback），不报错也不记录日志：
// 一个坏日期不应该让整条记录失败。
func ParseReleaseDate(text string) domain.ReleaseDate {
	fallback := domain.ReleaseDate{State: domain.DateFallback, Date: domain.EpochDate, Source: text}

	m := releasePattern.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	day := m[1]
	if day[0] == ' ' {
		day = day[1:]
	}
	t, err := time.Parse(releaseLayout, day+" "+m[2]+" "+m[3])
	if err != nil || t.Year() < 1 {
		return fallback
	}
	return domain.ReleaseDate{State: domain.DateParsed, Date: t.Format("2006-01-02"), Source: text}
}
