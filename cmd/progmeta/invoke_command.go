package main

import (
	"github.com/spf13/cobra"

	"github.com/John-Robertt/progmeta/internal/host"
	"github.com/John-Robertt/progmeta/internal/plugin"
)

func newInvokeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <handle> [query]",
		Short: "以 host 调用方式运行插件（回调以 JSON Lines 写到 stdout）",
		Long: `以 host 调用方式运行插件：argv[0] 为调用句柄，argv[1] 为查询串。

例如：
  progmeta invoke 7 '?action=getdetails&url=/games/Halo/default.xbe'`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := ctx.ensure(cmd)
			if err != nil {
				return err
			}
			p := plugin.New(host.NewStream(cmd.OutOrStdout()), log)
			if err := p.Run(args); err != nil {
				return &exitError{code: 1, err: err}
			}
			return nil
		},
	}
}
