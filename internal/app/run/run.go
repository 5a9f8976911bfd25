// Package run 实现 scan/clean：遍历程序目录、解析元数据（NFO 或 default.xml）并写入程序库。
package run

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/progmeta/internal/config"
	"github.com/John-Robertt/progmeta/internal/domain"
	"github.com/John-Robertt/progmeta/internal/metadata"
	"github.com/John-Robertt/progmeta/internal/scan"
	"github.com/John-Robertt/progmeta/internal/xbe"
)

// 程序库条目在 default.xml 缺字段时使用的默认值。
const (
	DefaultMediaType = "game"
	DefaultSystem    = "xbox"
)

// Library 是 run 需要的程序库能力（*library.Store 满足）。
type Library interface {
	Upsert(ctx context.Context, p domain.Program) error
	List(ctx context.Context) ([]domain.Program, error)
	Remove(ctx context.Context, path string) error
}

// Execute 扫描 root 并把结果写入 lib，返回对外稳定的 ScanReport。
// 该函数尽量把错误“降级”为 item 级失败（单条失败不影响其他）。
func Execute(ctx context.Context, eff config.EffectiveConfig, root string, lib Library, obs Observer) domain.ScanReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff, root)
	}

	rr := domain.ScanReport{
		RunID:     uuid.NewString(),
		Root:      root,
		Library:   eff.Library,
		StartedAt: started,
		Items:     make([]domain.ScanResult, 0, 64),
	}

	scanStarted := time.Now()
	entries, err := scan.ScanPrograms(root, eff.ExcludeDirs)
	if err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err)))
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}
	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{"programs": len(entries)}, time.Since(scanStarted))
	}

	// 解析阶段并发（worker pool）；写库在收集端串行，SQLite 只有一个写者。
	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}
	if obs != nil {
		obs.OnPhaseDone("exec", map[string]any{
			"workers":     workers,
			"total_items": len(entries),
		}, 0)
	}

	type execResult struct {
		res  domain.ScanResult
		prog *domain.Program
		dur  time.Duration
	}

	jobs := make(chan domain.ProgramEntry)
	results := make(chan execResult, len(entries))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range jobs {
				oneStarted := time.Now()
				res, prog := execOne(ctx, e)
				results <- execResult{res: res, prog: prog, dur: time.Since(oneStarted)}
			}
		}()
	}

	go func() {
		for _, e := range entries {
			jobs <- e
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	done := 0
	for it := range results {
		done++
		res := it.res
		if it.prog != nil {
			if err := lib.Upsert(ctx, *it.prog); err != nil {
				res.Status = domain.StatusFailed
				res.ErrorCode = domain.ErrCodeStoreFailed
				res.ErrorMsg = fmt.Sprintf("写入程序库失败：%v", err)
			}
		}
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnItemDone(done, len(entries), res, it.dur)
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

// execOne 解析单个程序；返回的 Program 为 nil 表示不写库。
func execOne(ctx context.Context, e domain.ProgramEntry) (domain.ScanResult, *domain.Program) {
	item := domain.ScanResult{
		Path:        e.Path,
		Title:       e.Name,
		Status:      domain.StatusProcessed,
		ReleaseDate: domain.DateAbsent.String(),
	}

	if err := ctx.Err(); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeIOFailed
		item.ErrorMsg = fmt.Sprintf("已取消：%v", err)
		return item, nil
	}

	res, src, err := loadMetadata(e)
	switch {
	case err == nil:
		item.Source = src
	case errors.Is(err, fs.ErrNotExist):
		// 没有任何元数据文件仍然入库（只有默认值），便于 list 看到该程序。
		item.Status = domain.StatusSkipped
		item.ErrorCode = domain.ErrCodeNoMetadata
		item.ErrorMsg = fmt.Sprintf("缺少元数据（%s）", strings.Join(metadataCandidates(e.Path), "、"))
		res = metadata.Result{Record: domain.Record{}}
	case metadata.IsSyntax(err):
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeParseFailed
		item.ErrorMsg = err.Error()
		return item, nil
	default:
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeIOFailed
		item.ErrorMsg = err.Error()
		return item, nil
	}

	info := withDefaults(res.Record, e.Name)
	item.Title, _ = info.Text(domain.FieldTitle)
	item.ReleaseDate = res.ReleaseDate.State.String()
	item.Trailer = info.Has(domain.FieldTrailer)
	item.UniqueID = uniqueID(e.Path)

	return item, &domain.Program{
		Path:            e.Path,
		Dir:             e.Dir,
		Info:            info,
		Poster:          e.Poster,
		Fanart:          e.Fanart,
		UniqueID:        item.UniqueID,
		ReleaseFallback: res.ReleaseDate.State == domain.DateFallback,
		ScannedUnix:     time.Now().Unix(),
	}
}

// uniqueID 只对 .xbe 读取证书 Title ID；读不出来（不是有效映像）时为空。
func uniqueID(path string) string {
	if !strings.EqualFold(filepath.Ext(path), ".xbe") {
		return ""
	}
	id, err := xbe.UniqueID(path)
	if err != nil {
		return ""
	}
	return id
}

// withDefaults 补齐库条目的 mediatype/system/title；不修改入参。
func withDefaults(rec domain.Record, dirName string) domain.Record {
	out := rec.Clone()
	if !out.Has(domain.FieldMediaType) {
		out[domain.FieldMediaType] = domain.Scalar(DefaultMediaType)
	}
	if !out.Has(domain.FieldSystem) {
		out[domain.FieldSystem] = domain.Scalar(DefaultSystem)
	}
	if !out.Has(domain.FieldTitle) {
		out[domain.FieldTitle] = domain.Scalar(dirName)
	}
	return out
}

func syntheticFailed(code, msg string) domain.ScanResult {
	return domain.ScanResult{
		Status:      domain.StatusFailed,
		ErrorCode:   code,
		ErrorMsg:    msg,
		ReleaseDate: domain.DateAbsent.String(),
	}
}

// Clean 删除程序文件已不存在的库条目，返回被删除的路径（按库的 List 顺序）。
func Clean(ctx context.Context, lib Library) ([]string, error) {
	progs, err := lib.List(ctx)
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0)
	for _, p := range progs {
		_, err := os.Stat(p.Path)
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("检查 %q 失败：%w", p.Path, err)
		}
		if err := lib.Remove(ctx, p.Path); err != nil {
			return removed, err
		}
		removed = append(removed, p.Path)
	}
	return removed, nil
}
