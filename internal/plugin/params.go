package plugin

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrMissingHandle 表示 host 没有传入调用句柄。
	ErrMissingHandle = errors.New("缺少调用句柄（handle）")
	// ErrInvalidHandle 表示句柄不是整数。
	ErrInvalidHandle = errors.New("调用句柄不是整数")
)

const (
	ActionGetDetails = "getdetails"

	ParamAction = "action"
	ParamURL    = "url"
)

// Params 是一次 host 调用的参数：句柄 + 查询串里的键值对。
type Params struct {
	Handle int
	Values map[string]string
}

// Get 返回参数值；值为空的键在解析时已被丢弃，所以 ok 等价于“有非空值”。
func (p Params) Get(key string) (string, bool) {
	v, ok := p.Values[key]
	return v, ok
}

// Action 返回 action 参数（缺失时为空串）。
func (p Params) Action() string {
	return p.Values[ParamAction]
}

// ParseParams 解析 host 传入的 argv：argv[0] 为句柄，argv[1] 为可选的查询串（可带前导 '?'）。
//
// 查询串按宽松规则解析，不会因为格式问题失败（句柄有效时 host 总能收到回调）：
// - '&' 与 ';' 都是分隔符；没有 '=' 的片段被忽略
// - 空值的键被丢弃（例如 "url=" 等价于没有 url）
// - '+' 解码为空格；无效的 '%' 转义按原文保留
// - 同名键出现多次时，后出现的覆盖先出现的
func ParseParams(argv []string) (Params, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return Params{}, ErrMissingHandle
	}
	handle, err := strconv.Atoi(strings.TrimSpace(argv[0]))
	if err != nil {
		return Params{}, fmt.Errorf("%w：%q", ErrInvalidHandle, argv[0])
	}

	p := Params{Handle: handle, Values: map[string]string{}}
	if len(argv) < 2 || argv[1] == "" {
		return p, nil
	}

	query := strings.TrimLeft(argv[1], "?")
	pairs := strings.FieldsFunc(query, func(r rune) bool { return r == '&' || r == ';' })
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || v == "" {
			continue
		}
		p.Values[unescape(k)] = unescape(v)
	}
	return p, nil
}

// unescape 解码查询串中的一个键或值。
// url.QueryUnescape 遇到无效转义会整体失败；此时逐段解码，只把有效的 %XX 替换掉。
func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			n, _ := strconv.ParseUint(s[i+1:i+3], 16, 8)
			b.WriteByte(byte(n))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
