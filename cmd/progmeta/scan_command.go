package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/progmeta/internal/app/run"
	"github.com/John-Robertt/progmeta/internal/config"
	"github.com/John-Robertt/progmeta/internal/domain"
	"github.com/John-Robertt/progmeta/internal/infra/fsx"
	"github.com/John-Robertt/progmeta/internal/library"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "扫描 root 下的程序并写入程序库（stdout 输出 ScanReport JSON）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			rootAbs, err := filepath.Abs(root)
			if err != nil {
				return err
			}

			var rr domain.ScanReport
			err = ctx.withLibrary(cmd, true, func(eff config.EffectiveConfig, _ hclog.Logger, store *library.Store) error {
				var obs run.Observer
				if w, ok := pickProgressWriter(cmd); ok {
					obs = newProgressUI(w)
				}
				rr = run.Execute(cmd.Context(), eff, rootAbs, store, obs)
				return nil
			})
			if err != nil {
				rr = reportForError(rootAbs, ctx.cli, err)
			}

			if reportPath != "" {
				if err := writeReportFile(reportPath, rr); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "写入报告失败：%v\n", err)
					emitReport(cmd, rr)
					return &exitError{code: 1}
				}
			}

			emitReport(cmd, rr)
			if rr.Summary.Failed == 0 {
				return nil
			}
			return &exitError{code: 1}
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "同时把 ScanReport 写入该文件（原子替换）")
	return cmd
}

// reportForError 把配置错误/锁冲突/打不开程序库也表达成一份 ScanReport，保持 stdout 契约一致。
func reportForError(root string, cli config.CLIArgs, err error) domain.ScanReport {
	code := config.Code(err)
	switch {
	case code != "":
	case errors.Is(err, library.ErrLocked):
		code = domain.ErrCodeLocked
	default:
		code = domain.ErrCodeStoreFailed
	}

	now := time.Now().UTC()
	rr := domain.ScanReport{
		Root:       root,
		Library:    cli.Library,
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ScanResult{{
			Status:      domain.StatusFailed,
			ErrorCode:   code,
			ErrorMsg:    err.Error(),
			ReleaseDate: domain.DateAbsent.String(),
		}},
	}
	rr.Finalize()
	return rr
}

func emitReport(cmd *cobra.Command, rr domain.ScanReport) {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	summary := fmt.Sprintf("完成：processed=%d skipped=%d failed=%d\n",
		rr.Summary.Processed, rr.Summary.Skipped, rr.Summary.Failed,
	)

	if isTerminal(stdout) {
		fmt.Fprint(stdout, summary)
		for _, it := range rr.Items {
			if it.Status != domain.StatusFailed {
				continue
			}
			key := it.Path
			if key == "" {
				key = "<scan>"
			}
			fmt.Fprintf(stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 ScanReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(rr)
	fmt.Fprint(stderr, summary)
}

func writeReportFile(path string, rr domain.ScanReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	return fsx.WriteFileReplace(filepath.Dir(abs), filepath.Base(abs), b)
}

func pickProgressWriter(cmd *cobra.Command) (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if w := cmd.ErrOrStderr(); isTerminal(w) {
		return w, true
	}
	return nil, false
}
