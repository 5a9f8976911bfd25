package plugin

import "github.com/John-Robertt/progmeta/internal/domain"

// CategoryProgram 是元数据写入 host 列表项时使用的信息类别。
const CategoryProgram = "program"

// ListItem 对应 host 的列表项：标签 + 某一类别下的元数据。
type ListItem struct {
	Label    string        `json:"label"`
	Category string        `json:"category"`
	Info     domain.Record `json:"info"`
}

// Host 是插件回调 host 的接口（由 host 侧实现，插件只消费）。
//
// 对一次调用（同一个 handle），插件只会调用其中一个方法，且只调用一次。
type Host interface {
	// SetResolvedURL 报告 getdetails 的结果；succeeded=false 时 item 为 nil。
	SetResolvedURL(handle int, succeeded bool, item *ListItem) error
	// EndOfDirectory 告知 host 该调用不会再有结果。
	EndOfDirectory(handle int) error
}
