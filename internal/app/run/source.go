package run

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/progmeta/internal/domain"
	"github.com/John-Robertt/progmeta/internal/metadata"
	"github.com/John-Robertt/progmeta/internal/nfo"
)

// errNoMetadata 表示三个候选元数据文件都不存在。
var errNoMetadata = fmt.Errorf("没有元数据文件：%w", fs.ErrNotExist)

// metadataCandidates 返回程序文件的元数据候选路径，按优先级排列：
// <程序文件去扩展名>.nfo、<目录>/program.nfo、<目录>/_resources/default.xml。
func metadataCandidates(programPath string) []string {
	dir := filepath.Dir(programPath)
	return []string{
		strings.TrimSuffix(programPath, filepath.Ext(programPath)) + ".nfo",
		filepath.Join(dir, nfo.FileName),
		metadata.DocumentPath(dir),
	}
}

// findMetadata 返回第一个存在的候选文件；都不存在时返回 errNoMetadata。
func findMetadata(programPath string) (string, error) {
	for _, p := range metadataCandidates(programPath) {
		fi, err := os.Stat(p)
		if err == nil && !fi.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", errNoMetadata
}

// loadMetadata 读取 e 的元数据，返回结果与实际使用的文件路径。
// default.xml 走 metadata.Load；.nfo 走 nfo.Decode。
func loadMetadata(e domain.ProgramEntry) (metadata.Result, string, error) {
	src, err := findMetadata(e.Path)
	if err != nil {
		return metadata.Result{}, "", err
	}
	if src == metadata.DocumentPath(e.Dir) {
		res, err := metadata.Load(e.Dir)
		return res, src, err
	}

	f, err := os.Open(src)
	if err != nil {
		return metadata.Result{}, src, fmt.Errorf("读取元数据失败：%w", err)
	}
	defer f.Close()

	rec, err := nfo.Decode(f)
	if err != nil {
		var se *metadata.SyntaxError
		if errors.As(err, &se) {
			se.Path = src
		}
		return metadata.Result{}, src, err
	}

	res := metadata.Result{Record: rec, ReleaseDate: nfoReleaseDate(rec)}
	if res.ReleaseDate.State == domain.DateFallback {
		rec[domain.FieldReleaseDate] = domain.Scalar(res.ReleaseDate.Date)
	}
	if !rec.Has(domain.FieldTrailer) {
		if trailer := metadata.TrailerPath(e.Dir); fileExists(trailer) {
			rec[domain.FieldTrailer] = domain.Scalar(trailer)
		}
	}
	return res, src, nil
}

// nfoReleaseDate 校验 NFO 里的 releasedate（已是 ISO 格式）。
func nfoReleaseDate(rec domain.Record) domain.ReleaseDate {
	text, ok := rec.Text(domain.FieldReleaseDate)
	if !ok {
		return domain.ReleaseDate{State: domain.DateAbsent}
	}
	if _, err := time.Parse("2006-01-02", text); err != nil {
		return domain.ReleaseDate{State: domain.DateFallback, Date: domain.EpochDate, Source: text}
	}
	return domain.ReleaseDate{State: domain.DateParsed, Date: text, Source: text}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
