package domain

import (
	"bytes"
	"encoding/json"
)

// Field 是 MetadataRecord 的键（固定闭集）。
type Field string

const (
	FieldMediaType      Field = "mediatype"
	FieldSystem         Field = "system"
	FieldTitle          Field = "title"
	FieldDeveloper      Field = "developer"
	FieldPublisher      Field = "publisher"
	FieldGeneralFeature Field = "generalfeature"
	FieldOnlineFeature  Field = "onlinefeature"
	FieldESRB           Field = "esrb"
	FieldGenre          Field = "genre"
	FieldReleaseDate    Field = "releasedate"
	FieldYear           Field = "year"
	FieldRating         Field = "rating"
	FieldPlatform       Field = "platform"
	FieldExclusive      Field = "exclusive"
	FieldOverview       Field = "overview"
	FieldTrailer        Field = "trailer"
)

// Fields 是规范顺序（JSON/NFO/表格输出都按这个顺序遍历）。
var Fields = []Field{
	FieldMediaType,
	FieldSystem,
	FieldTitle,
	FieldDeveloper,
	FieldPublisher,
	FieldGeneralFeature,
	FieldOnlineFeature,
	FieldESRB,
	FieldGenre,
	FieldReleaseDate,
	FieldYear,
	FieldRating,
	FieldPlatform,
	FieldExclusive,
	FieldOverview,
	FieldTrailer,
}

// IsList 报告该字段的值是否为有序列表。
func (f Field) IsList() bool {
	switch f {
	case FieldGeneralFeature, FieldOnlineFeature, FieldGenre, FieldPlatform:
		return true
	default:
		return false
	}
}

// Value 是字段值：要么是标量字符串，要么是有序字符串列表。
type Value struct {
	Text string
	List []string
	list bool
}

func Scalar(s string) Value { return Value{Text: s} }

func List(items ...string) Value {
	return Value{List: append([]string(nil), items...), list: true}
}

func (v Value) IsList() bool { return v.list }

// Strings 以列表形式返回值（标量视为单元素列表）。
func (v Value) Strings() []string {
	if v.list {
		return append([]string(nil), v.List...)
	}
	return []string{v.Text}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.list {
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Text)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*v = List(items...)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*v = Scalar(s)
	return nil
}

// Record 即 MetadataRecord：字段缺失时键不存在（不写占位值）。
type Record map[Field]Value

// Has 报告字段是否存在。
func (r Record) Has(f Field) bool {
	_, ok := r[f]
	return ok
}

// Text 返回标量字段的值；字段缺失或是列表时 ok=false。
func (r Record) Text(f Field) (string, bool) {
	v, ok := r[f]
	if !ok || v.IsList() {
		return "", false
	}
	return v.Text, true
}

// Keys 按规范顺序返回存在的字段。
func (r Record) Keys() []Field {
	out := make([]Field, 0, len(r))
	for _, f := range Fields {
		if _, ok := r[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Clone 返回浅拷贝（列表切片会复制）。
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if v.IsList() {
			v = List(v.List...)
		}
		out[k] = v
	}
	return out
}

// MarshalJSON 按规范字段顺序输出（map 默认按 key 字典序，不符合展示习惯）。
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(f))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r[f])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
