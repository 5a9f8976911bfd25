package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/John-Robertt/progmeta/internal/config"
	"github.com/John-Robertt/progmeta/internal/domain"
)

func TestProgressUI_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	eff := config.Default("/work")
	p.OnStart(eff, "/games")
	p.OnPhaseDone("scan", map[string]any{"programs": 3}, 1500*time.Millisecond)
	p.OnPhaseDone("exec", map[string]any{"workers": 2, "total_items": 3}, 0)
	p.OnItemDone(1, 3, domain.ScanResult{Path: "/games/Halo/default.xbe", Title: "Halo", Status: domain.StatusProcessed, ReleaseDate: "fallback", Trailer: true}, time.Second)
	p.OnItemDone(2, 3, domain.ScanResult{Path: "/games/Bare/default.xbe", Status: domain.StatusSkipped, ErrorCode: domain.ErrCodeNoMetadata}, 0)
	p.OnItemDone(3, 3, domain.ScanResult{Path: "/games/Bad/default.xbe", Status: domain.StatusFailed, ErrorCode: domain.ErrCodeParseFailed, ErrorMsg: "bad"}, 0)

	out := buf.String()
	assert.Contains(t, out, "library: /work/progmeta.db")
	assert.Contains(t, out, `exclude_dirs: [] + 固定排除 _resources/`)
	assert.Contains(t, out, "扫描: programs=3 (1.5s)")
	assert.Contains(t, out, "解析: workers=2 total_items=3")
	assert.Contains(t, out, `[1/3] /games/Halo/default.xbe OK "Halo" release_date=fallback trailer (1.0s)`)
	assert.Contains(t, out, "[2/3] /games/Bare/default.xbe SKIP no_metadata")
	assert.Contains(t, out, "[3/3] /games/Bad/default.xbe FAIL parse_failed: bad")

	// 最后一条完成后 ticker 已停止。
	p.mu.Lock()
	assert.False(t, p.tickerStarted)
	p.mu.Unlock()
}

func TestProgressUI_Keepalive(t *testing.T) {
	var buf syncBuffer
	p := newProgressUI(&buf)
	p.keepaliveThreshold = 10 * time.Millisecond
	p.tickerInterval = 5 * time.Millisecond

	p.OnStart(config.Default("/work"), "/games")
	p.OnPhaseDone("exec", map[string]any{"workers": 4, "total_items": 2}, 0)

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "进度: done=0/2")
	}, time.Second, 5*time.Millisecond)

	p.OnItemDone(1, 2, domain.ScanResult{Status: domain.StatusProcessed}, 0)
	p.OnItemDone(2, 2, domain.ScanResult{Status: domain.StatusProcessed}, 0)
}

func TestTruncateAndElapsed(t *testing.T) {
	assert.Equal(t, "abc", truncate("  abc ", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "01:01:05", formatElapsed(3665*time.Second))
	assert.Equal(t, "0.0s", formatShortDuration(-time.Second))
}
