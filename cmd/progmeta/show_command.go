package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/progmeta/internal/config"
	"github.com/John-Robertt/progmeta/internal/domain"
	"github.com/John-Robertt/progmeta/internal/library"
	"github.com/John-Robertt/progmeta/internal/metadata"
)

type showOutput struct {
	Root        string        `json:"root"`
	Document    string        `json:"document"`
	ReleaseDate string        `json:"release_date"`
	Info        domain.Record `json:"info"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var (
		asJSON bool
		stored bool
	)

	cmd := &cobra.Command{
		Use:   "show <program-dir|program-file>",
		Short: "解析并显示一个程序的元数据（不写程序库）",
		Long:  "默认直接解析磁盘上的 _resources/default.xml；--stored 改为显示程序库中上次 scan 保存的条目。",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if stored {
				return showStored(ctx, cmd, args[0], asJSON)
			}

			_, log, err := ctx.ensure(cmd)
			if err != nil {
				return err
			}

			root, err := programRoot(args[0])
			if err != nil {
				return err
			}
			log.Debug("show", "root", root)

			res, err := metadata.Load(root)
			if err != nil {
				return err
			}

			out := showOutput{
				Root:        root,
				Document:    metadata.DocumentPath(root),
				ReleaseDate: res.ReleaseDate.State.String(),
				Info:        res.Record,
			}
			if asJSON || !isTerminal(cmd.OutOrStdout()) {
				return writeJSON(cmd, out)
			}

			rows := make([][]string, 0, len(res.Record))
			for _, f := range res.Record.Keys() {
				rows = append(rows, []string{string(f), formatValue(res.Record[f])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			if res.ReleaseDate.State == domain.DateFallback {
				fmt.Fprintf(cmd.ErrOrStderr(), "注意：release_date %q 无法解析，已回退为 %s\n", res.ReleaseDate.Source, domain.EpochDate)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "始终输出 JSON")
	cmd.Flags().BoolVar(&stored, "stored", false, "显示程序库中保存的条目")
	return cmd
}

// showStored 从程序库读取条目：参数为程序文件时按路径精确查找，为目录时取该目录下的条目。
func showStored(ctx *commandContext, cmd *cobra.Command, arg string, asJSON bool) error {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return err
	}

	return ctx.withLibrary(cmd, false, func(_ config.EffectiveConfig, _ hclog.Logger, store *library.Store) error {
		var (
			found []domain.Program
			err   error
		)
		if fi, statErr := os.Stat(abs); statErr == nil && fi.IsDir() {
			var progs []domain.Program
			progs, err = store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range progs {
				if p.Dir == abs {
					found = append(found, p)
				}
			}
			if len(found) == 0 {
				err = library.ErrNotFound
			}
		} else {
			var p domain.Program
			p, err = store.Get(cmd.Context(), abs)
			found = []domain.Program{p}
		}
		if errors.Is(err, library.ErrNotFound) {
			return fmt.Errorf("程序库中没有 %q（先运行 progmeta scan）：%w", abs, err)
		}
		if err != nil {
			return err
		}

		if asJSON || !isTerminal(cmd.OutOrStdout()) {
			out := make([]listEntry, 0, len(found))
			for _, p := range found {
				out = append(out, newListEntry(p))
			}
			return writeJSON(cmd, out)
		}

		rows := make([][]string, 0, len(domain.Fields)+2)
		for _, p := range found {
			rows = append(rows, []string{"path", p.Path})
			if p.UniqueID != "" {
				rows = append(rows, []string{"uniqueid", p.UniqueID})
			}
			for _, f := range p.Info.Keys() {
				rows = append(rows, []string{string(f), formatValue(p.Info[f])})
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
		return nil
	})
}

// programRoot 接受程序目录或程序文件（例如 default.xbe），返回程序根目录。
func programRoot(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return abs, nil
	}
	return filepath.Dir(abs), nil
}

func formatValue(v domain.Value) string {
	if v.IsList() {
		return strings.Join(v.List, metadata.ListSeparator)
	}
	return v.Text
}
