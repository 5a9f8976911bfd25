package nfo

import (
	"encoding/xml"
	"io"
	"path/filepath"

	"github.com/John-Robertt/progmeta/internal/domain"
	"github.com/John-Robertt/progmeta/internal/metadata"
)

// FileName 是导出的 NFO 文件名。
const FileName = "program.nfo"

type program struct {
	XMLName xml.Name `xml:"program"`

	Title     string `xml:"title"`
	MediaType string `xml:"mediatype,omitempty"`
	System    string `xml:"system,omitempty"`

	Developer string `xml:"developer,omitempty"`
	Publisher string `xml:"publisher,omitempty"`

	GeneralFeatures []string `xml:"generalfeature,omitempty"`
	OnlineFeatures  []string `xml:"onlinefeature,omitempty"`

	ESRB   string   `xml:"esrb,omitempty"`
	Genres []string `xml:"genre,omitempty"`

	ReleaseDate string `xml:"releasedate,omitempty"`
	Year        string `xml:"year,omitempty"`
	Rating      string `xml:"rating,omitempty"`

	Platforms []string `xml:"platform,omitempty"`
	Exclusive string   `xml:"exclusive,omitempty"`
	Overview  string   `xml:"overview,omitempty"`

	Trailer  string `xml:"trailer,omitempty"`
	Poster   string `xml:"poster,omitempty"`
	Fanart   string `xml:"fanart,omitempty"`
	UniqueID string `xml:"uniqueid,omitempty"`
	Path     string `xml:"path"`
}

// Encode 把程序库中的一条记录转成 NFO（XML）。
//
// 规则：
// - 列表字段输出为重复元素，保持原顺序
// - title 缺失时回退到目录名（避免生成空 title）
// - 标量保持原文，不做 trim（与 default.xml 的原文一致）
func Encode(p domain.Program) ([]byte, error) {
	info := p.Info
	text := func(f domain.Field) string {
		s, _ := info.Text(f)
		return s
	}
	list := func(f domain.Field) []string {
		v, ok := info[f]
		if !ok {
			return nil
		}
		return v.Strings()
	}

	title := text(domain.FieldTitle)
	if title == "" {
		title = filepath.Base(p.Dir)
	}

	m := program{
		Title:     title,
		MediaType: text(domain.FieldMediaType),
		System:    text(domain.FieldSystem),

		Developer: text(domain.FieldDeveloper),
		Publisher: text(domain.FieldPublisher),

		GeneralFeatures: list(domain.FieldGeneralFeature),
		OnlineFeatures:  list(domain.FieldOnlineFeature),

		ESRB:   text(domain.FieldESRB),
		Genres: list(domain.FieldGenre),

		ReleaseDate: text(domain.FieldReleaseDate),
		Year:        text(domain.FieldYear),
		Rating:      text(domain.FieldRating),

		Platforms: list(domain.FieldPlatform),
		Exclusive: text(domain.FieldExclusive),
		Overview:  text(domain.FieldOverview),

		Trailer:  text(domain.FieldTrailer),
		Poster:   p.Poster,
		Fanart:   p.Fanart,
		UniqueID: p.UniqueID,
		Path:     p.Path,
	}

	b, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	// 约定：输出带 standalone="yes" 的 XML 头，便于与常见媒体库的 NFO 读取器兼容。
	const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"
	return append([]byte(header), b...), nil
}

// Decode 读取一个 <program> NFO（Encode 的输出，或手写的同格式文件），返回其中的元数据字段。
// poster/fanart/uniqueid/path 属于扫描结果，不进入 Record。
//
// 不是良构 XML 或根元素不是 <program> 时返回 *metadata.SyntaxError。
func Decode(r io.Reader) (domain.Record, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = metadata.CharsetReader

	var m program
	if err := dec.Decode(&m); err != nil {
		return nil, &metadata.SyntaxError{Err: err}
	}

	rec := make(domain.Record, len(domain.Fields))
	scalar := func(f domain.Field, v string) {
		if v != "" {
			rec[f] = domain.Scalar(v)
		}
	}
	list := func(f domain.Field, vs []string) {
		if len(vs) > 0 {
			rec[f] = domain.List(vs...)
		}
	}

	scalar(domain.FieldMediaType, m.MediaType)
	scalar(domain.FieldSystem, m.System)
	scalar(domain.FieldTitle, m.Title)
	scalar(domain.FieldDeveloper, m.Developer)
	scalar(domain.FieldPublisher, m.Publisher)
	list(domain.FieldGeneralFeature, m.GeneralFeatures)
	list(domain.FieldOnlineFeature, m.OnlineFeatures)
	scalar(domain.FieldESRB, m.ESRB)
	list(domain.FieldGenre, m.Genres)
	scalar(domain.FieldReleaseDate, m.ReleaseDate)
	scalar(domain.FieldYear, m.Year)
	scalar(domain.FieldRating, m.Rating)
	list(domain.FieldPlatform, m.Platforms)
	scalar(domain.FieldExclusive, m.Exclusive)
	scalar(domain.FieldOverview, m.Overview)
	scalar(domain.FieldTrailer, m.Trailer)
	return rec, nil
}
