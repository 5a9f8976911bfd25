package metadata

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// SyntaxError 表示 default.xml 不是良构 XML。
type SyntaxError struct {
	Path string
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("XML 解析失败：%v", e.Err)
	}
	return fmt.Sprintf("XML 解析失败：%q：%v", e.Path, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// IsSyntax 判断 err 是否为 XML 解析失败。
func IsSyntax(err error) bool {
	var e *SyntaxError
	return errors.As(err, &e)
}

// document 记录根元素下每个标签名“第一次出现”的那个子元素。
//
// 语义：
// - 只看根元素的直接子元素；不区分重复标签（只取第一个，后面的忽略）
// - 文本 = 子元素开始标签到其第一个子元素之间的字符数据（CDATA/实体已由解码器还原）
// - 带命名空间的元素不参与匹配
type document struct {
	texts map[string]string
}

// lookup 返回标签 name 的文本；元素不存在或文本为空时 ok=false。
func (d document) lookup(name string) (string, bool) {
	s, ok := d.texts[name]
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// readDocument 读取完整文档（直到 EOF），保证良构性检查覆盖整个文件。
func readDocument(r io.Reader) (document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = CharsetReader

	doc := document{texts: make(map[string]string)}

	var (
		depth     int
		rootSeen  bool
		rootDone  bool
		capturing bool   // 正在收集某个直接子元素的文本
		childName string // 当前直接子元素标签（仅首个出现的会被收集）
		text      strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return document{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if rootDone {
					return document{}, fmt.Errorf("根元素之后出现多余元素 <%s>", t.Name.Local)
				}
				rootSeen = true
			}
			depth++
			switch depth {
			case 2:
				childName = ""
				capturing = false
				if t.Name.Space != "" {
					break
				}
				if _, seen := doc.texts[t.Name.Local]; seen {
					break
				}
				childName = t.Name.Local
				doc.texts[childName] = ""
				capturing = true
				text.Reset()
			case 3:
				// 文本只取到第一个子元素为止。
				capturing = false
			}
		case xml.EndElement:
			if depth == 2 && childName != "" {
				doc.texts[childName] = text.String()
				childName = ""
				capturing = false
			}
			depth--
			if depth == 0 {
				rootDone = true
			}
		case xml.CharData:
			if depth == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return document{}, errors.New("根元素之外出现文本")
				}
				continue
			}
			if capturing && depth == 2 {
				text.Write(t)
			}
		}
	}

	if !rootSeen {
		return document{}, errors.New("文档没有根元素")
	}
	return doc, nil
}

// CharsetReader 让非 UTF-8 声明（例如 ISO-8859-1、windows-1252）的文件也能解析。
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("不支持的编码 %q：%w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("不支持的编码 %q", label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
