package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/progmeta/internal/app/export"
	"github.com/John-Robertt/progmeta/internal/app/run"
	"github.com/John-Robertt/progmeta/internal/config"
	"github.com/John-Robertt/progmeta/internal/domain"
	"github.com/John-Robertt/progmeta/internal/library"
)

type listEntry struct {
	Path            string        `json:"path"`
	Title           string        `json:"title"`
	Poster          string        `json:"poster,omitempty"`
	Fanart          string        `json:"fanart,omitempty"`
	UniqueID        string        `json:"unique_id,omitempty"`
	ReleaseFallback bool          `json:"release_fallback"`
	ScannedAt       time.Time     `json:"scanned_at"`
	Info            domain.Record `json:"info"`
}

func newListEntry(p domain.Program) listEntry {
	return listEntry{
		Path:            p.Path,
		Title:           p.Title(),
		Poster:          p.Poster,
		Fanart:          p.Fanart,
		UniqueID:        p.UniqueID,
		ReleaseFallback: p.ReleaseFallback,
		ScannedAt:       time.Unix(p.ScannedUnix, 0).UTC(),
		Info:            p.Info,
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出程序库中的程序",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, false, func(_ config.EffectiveConfig, _ hclog.Logger, store *library.Store) error {
				progs, err := store.List(cmd.Context())
				if err != nil {
					return err
				}

				if asJSON || !isTerminal(cmd.OutOrStdout()) {
					out := make([]listEntry, 0, len(progs))
					for _, p := range progs {
						out = append(out, newListEntry(p))
					}
					return writeJSON(cmd, out)
				}

				if len(progs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "程序库为空；先运行 progmeta scan <root>")
					return nil
				}
				rows := make([][]string, 0, len(progs))
				for _, p := range progs {
					date, _ := p.Info.Text(domain.FieldReleaseDate)
					if p.ReleaseFallback {
						date += " (fallback)"
					}
					rows = append(rows, []string{
						p.Title(),
						date,
						yesNo(p.Info.Has(domain.FieldTrailer)),
						yesNo(p.Poster != ""),
						p.Path,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Title", "Released", "Trailer", "Poster", "Path"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "始终输出 JSON")
	return cmd
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "删除程序文件已不存在的库条目",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, true, func(_ config.EffectiveConfig, log hclog.Logger, store *library.Store) error {
				removed, err := run.Clean(cmd.Context(), store)
				for _, p := range removed {
					log.Info("已移除", "path", p)
				}
				if err != nil {
					return err
				}
				return writeJSON(cmd, map[string]any{"removed": removed})
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <out-dir>",
		Short: "把程序库导出为 <out-dir>/<标题>/program.nfo（不覆盖已有文件）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			return ctx.withLibrary(cmd, false, func(_ config.EffectiveConfig, log hclog.Logger, store *library.Store) error {
				sum, err := export.Run(cmd.Context(), store, outDir)
				if err != nil {
					return err
				}
				for _, f := range sum.Failed {
					log.Error("导出失败", "path", f.Path, "error", f.Msg)
				}
				if err := writeJSON(cmd, sum); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "完成：written=%d skipped=%d failed=%d\n",
					len(sum.Written), len(sum.Skipped), len(sum.Failed),
				)
				if len(sum.Failed) > 0 {
					return &exitError{code: 1}
				}
				return nil
			})
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
