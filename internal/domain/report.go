package domain

import (
	"sort"
	"time"
)

const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

const (
	ErrCodeNoMetadata    = "no_metadata"
	ErrCodeParseFailed   = "parse_failed"
	ErrCodeIOFailed      = "io_failed"
	ErrCodeStoreFailed   = "store_failed"
	ErrCodeConfigInvalid = "config_invalid"
	ErrCodeLocked        = "library_locked"
)

// ScanReport 是 scan 命令对外稳定输出（stdout JSON / report 文件）的结构。
type ScanReport struct {
	RunID   string `json:"run_id"`
	Root    string `json:"root"`
	Library string `json:"library"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ScanSummary  `json:"summary"`
	Items   []ScanResult `json:"items"`
}

type ScanSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type ScanResult struct {
	Path  string `json:"path"`
	Title string `json:"title"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	// ReleaseDate 为 parsed/fallback/absent，便于发现被回退成 1970-01-01 的条目。
	ReleaseDate string `json:"release_date"`
	Trailer     bool   `json:"trailer"`

	// Source 是实际使用的元数据文件（<程序>.nfo / program.nfo / default.xml）；没有时为空。
	Source   string `json:"source,omitempty"`
	UniqueID string `json:"unique_id,omitempty"`
}

// Finalize 统一时间为 UTC，按 path 稳定排序（path 为空的合成条目排最后），并重算 summary。
func (r *ScanReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a, b := r.Items[i].Path, r.Items[j].Path
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	var s ScanSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusProcessed:
			s.Processed++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}
