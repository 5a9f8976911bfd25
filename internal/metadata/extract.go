// Package metadata 把程序目录下的 _resources/default.xml 解析为 domain.Record。
package metadata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/progmeta/internal/domain"
)

const (
	// ResourcesDir 是程序根目录下存放元数据与媒体的目录。
	ResourcesDir = "_resources"
	// DocumentName 是元数据文件名。
	DocumentName = "default.xml"
	// ListSeparator 是列表字段的分隔符（字面量逗号+一个空格，不是正则）。
	ListSeparator = ", "
)

type kind int

const (
	kindScalar kind = iota
	kindList
	kindDate
)

type rule struct {
	field   domain.Field
	element string
	kind    kind
}

// rules 的顺序即 domain.Fields 的顺序（trailer 单独处理）。
var rules = []rule{
	{domain.FieldMediaType, "type", kindScalar},
	{domain.FieldSystem, "system", kindScalar},
	{domain.FieldTitle, "title", kindScalar},
	{domain.FieldDeveloper, "developer", kindScalar},
	{domain.FieldPublisher, "publisher", kindScalar},
	{domain.FieldGeneralFeature, "features_general", kindList},
	{domain.FieldOnlineFeature, "features_online", kindList},
	{domain.FieldESRB, "esrb", kindScalar},
	{domain.FieldGenre, "genre", kindList},
	{domain.FieldReleaseDate, "release_date", kindDate},
	{domain.FieldYear, "year", kindScalar},
	{domain.FieldRating, "rating", kindScalar},
	{domain.FieldPlatform, "platform", kindList},
	{domain.FieldExclusive, "exclusive", kindScalar},
	{domain.FieldOverview, "overview", kindScalar},
}

// Result 是一次提取的结果。
type Result struct {
	Record domain.Record
	// ReleaseDate 单独给出解析状态，用来区分“真的是 1970-01-01”与“解析失败回退”。
	ReleaseDate domain.ReleaseDate
}

// DocumentPath 返回 rootDir 对应的 default.xml 路径。
func DocumentPath(rootDir string) string {
	return filepath.Join(rootDir, ResourcesDir, DocumentName)
}

// TrailerPath 返回 rootDir 对应的预告片路径（不检查是否存在）。
func TrailerPath(rootDir string) string {
	return filepath.Join(rootDir, ResourcesDir, "media", "preview.mp4")
}

// Load 读取 rootDir/_resources/default.xml 并生成 Record。
//
// 文件缺失或不是良构 XML 时直接返回错误（不返回部分结果）；
// 单个字段的问题永远不会让整条记录失败。
func Load(rootDir string) (Result, error) {
	path := DocumentPath(rootDir)
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("读取元数据失败：%w", err)
	}
	defer f.Close()

	res, err := Parse(f, rootDir)
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			se.Path = path
		}
		return Result{}, err
	}
	return res, nil
}

// Parse 从 r 解析元数据文档；rootDir 只用于预告片探测，空串表示当前目录。
func Parse(r io.Reader, rootDir string) (Result, error) {
	doc, err := readDocument(r)
	if err != nil {
		return Result{}, &SyntaxError{Err: err}
	}

	res := Result{Record: make(domain.Record, len(rules)+1)}
	for _, ru := range rules {
		text, ok := doc.lookup(ru.element)
		if !ok {
			continue
		}
		switch ru.kind {
		case kindScalar:
			res.Record[ru.field] = domain.Scalar(text)
		case kindList:
			res.Record[ru.field] = domain.List(SplitList(text)...)
		case kindDate:
			rd := ParseReleaseDate(text)
			res.ReleaseDate = rd
			res.Record[ru.field] = domain.Scalar(rd.Date)
		}
	}

	// filepath.Join 会丢掉空的 rootDir，得到相对当前目录的路径。
	trailer := TrailerPath(rootDir)
	if _, err := os.Stat(trailer); err == nil {
		res.Record[domain.FieldTrailer] = domain.Scalar(trailer)
	}
	return res, nil
}

// SplitList 按 ListSeparator 切分并去掉每段首尾空白，保持原顺序。
func SplitList(text string) []string {
	parts := strings.Split(text, ListSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
