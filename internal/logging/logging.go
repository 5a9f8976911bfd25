// Package logging 构造进程内共用的 hclog.Logger。
//
// 日志一律写 stderr：stdout 留给 JSON 输出契约（host 事件流、报告）。
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options 描述 logger 的构造参数。
type Options struct {
	// Name 通常是 addon id，作为每行日志的前缀。
	Name   string
	Level  string
	JSON   bool
	Output io.Writer
}

// ParseLevel 把配置里的级别字符串转换为 hclog.Level。
func ParseLevel(s string) (hclog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return hclog.Info, nil
	}
	lvl := hclog.LevelFromString(s)
	if lvl == hclog.NoLevel {
		return hclog.NoLevel, fmt.Errorf("未知日志级别 %q", s)
	}
	return lvl, nil
}

// New 返回按 Options 配置的 logger；级别非法时返回错误。
func New(opts Options) (hclog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      lvl,
		Output:     out,
		JSONFormat: opts.JSON,
	}), nil
}

// Discard 返回不输出任何内容的 logger（测试与库调用方未传 logger 时使用）。
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}
