package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "progmeta",
		Short:         "程序（游戏）元数据提供者：解析 _resources/default.xml",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx.bindChanged(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.cli.ConfigPath, "config", "c", "", "配置文件路径（默认尝试 ./progmeta.toml）")
	flags.StringVar(&ctx.cli.LogLevel, "log-level", "", "日志级别：trace|debug|info|warn|error")
	flags.BoolVar(&ctx.cli.LogJSON, "log-json", false, "以 JSON 格式输出日志（stderr）")
	flags.StringVar(&ctx.cli.Library, "library", "", "程序库数据库路径")
	flags.IntVar(&ctx.cli.Concurrency, "concurrency", 0, "扫描并发数（1-32）")

	rootCmd.AddCommand(newInvokeCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newCleanCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))

	return rootCmd
}
