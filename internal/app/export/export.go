// Package export 把程序库导出为每个程序一个目录的 NFO 文件。
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/progmeta/internal/domain"
	"github.com/John-Robertt/progmeta/internal/infra/fsx"
	"github.com/John-Robertt/progmeta/internal/nfo"
)

// Lister 是导出需要的程序库能力（*library.Store 满足）。
type Lister interface {
	List(ctx context.Context) ([]domain.Program, error)
}

// Failure 是单个程序的导出失败。
type Failure struct {
	Path string `json:"path"`
	Msg  string `json:"error_msg"`
}

// Summary 是一次导出的结果。
type Summary struct {
	OutDir  string    `json:"out_dir"`
	Written []string  `json:"written"`
	Skipped []string  `json:"skipped"`
	Failed  []Failure `json:"failed"`
}

// Run 为库中每个程序写入 <outDir>/<slug>/program.nfo。
//
// 规则：
// - 已存在的 program.nfo 不覆盖，计入 Skipped
// - slug 来自标题（缺失时用目录名）；同名按库顺序追加 " (2)"、" (3)"…
// - 单条失败不影响其他；只有读库失败/outDir 不可用才返回 error
func Run(ctx context.Context, lib Lister, outDir string) (Summary, error) {
	sum := Summary{
		OutDir:  outDir,
		Written: []string{},
		Skipped: []string{},
		Failed:  []Failure{},
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return sum, fmt.Errorf("创建导出目录失败：%w", err)
	}

	progs, err := lib.List(ctx)
	if err != nil {
		return sum, err
	}

	used := make(map[string]bool, len(progs))
	for _, p := range progs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		title := p.Title()
		if title == "" {
			title = filepath.Base(p.Dir)
		}
		name := uniqueName(used, slug(title))
		dir := filepath.Join(outDir, name)
		dst := filepath.Join(dir, nfo.FileName)

		b, err := nfo.Encode(p)
		if err != nil {
			sum.Failed = append(sum.Failed, Failure{Path: p.Path, Msg: fmt.Sprintf("生成 NFO 失败：%v", err)})
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			sum.Failed = append(sum.Failed, Failure{Path: p.Path, Msg: fmt.Sprintf("创建目录失败：%v", err)})
			continue
		}
		if err := fsx.WriteFileNoOverwrite(dir, nfo.FileName, b); err != nil {
			if errors.Is(err, os.ErrExist) {
				sum.Skipped = append(sum.Skipped, dst)
				continue
			}
			sum.Failed = append(sum.Failed, Failure{Path: p.Path, Msg: err.Error()})
			continue
		}
		sum.Written = append(sum.Written, dst)
	}
	return sum, nil
}

// uniqueName 返回大小写不敏感地未被占用的目录名，并把它记为已占用。
// 标题本身就可能形如 "A (2)"，所以后缀要一直递增到空闲为止。
func uniqueName(used map[string]bool, name string) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// slug 把标题变成可用的目录名：去掉路径分隔符与 Windows 保留字符，折叠空白。
func slug(value string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	cleaned := replacer.Replace(value)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.TrimRight(cleaned, ". ")
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "untitled"
	}
	return cleaned
}
