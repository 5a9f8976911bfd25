package domain

// EpochDate 是发行日期无法解析时写入的固定值。
const EpochDate = "1970-01-01"

// DateState 区分“解析成功”与“回退到 EpochDate”，两者在输出里可能长得一样。
type DateState int

const (
	DateAbsent DateState = iota
	DateParsed
	DateFallback
)

func (s DateState) String() string {
	switch s {
	case DateParsed:
		return "parsed"
	case DateFallback:
		return "fallback"
	default:
		return "absent"
	}
}

// ReleaseDate 是 release_date 的解析结果。
type ReleaseDate struct {
	State DateState
	// Date 为 ISO 8601 日历日期（YYYY-MM-DD）；State=DateAbsent 时为空。
	Date string
	// Source 是 XML 中的原文。
	Source string
}
