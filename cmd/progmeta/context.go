package main

import (
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/progmeta/internal/config"
	"github.com/John-Robertt/progmeta/internal/library"
	"github.com/John-Robertt/progmeta/internal/logging"
)

// commandContext 在各子命令之间共享：flag 绑定、配置与 logger 只构造一次。
type commandContext struct {
	// cwd 为空时使用进程当前目录（测试里会指定）。
	cwd string
	cli config.CLIArgs

	once sync.Once
	eff  config.EffectiveConfig
	log  hclog.Logger
	err  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

// bindChanged 记录哪些覆盖项是显式给出的，这样 --log-json=false 也能覆盖配置文件。
func (c *commandContext) bindChanged(cmd *cobra.Command) {
	flags := cmd.Flags()
	c.cli.LogLevelSet = flags.Changed("log-level")
	c.cli.LogJSONSet = flags.Changed("log-json")
	c.cli.LibrarySet = flags.Changed("library")
	c.cli.ConcurrencySet = flags.Changed("concurrency")
}

// ensure 加载生效配置并构造 logger（日志写到命令的 stderr）。
func (c *commandContext) ensure(cmd *cobra.Command) (config.EffectiveConfig, hclog.Logger, error) {
	c.once.Do(func() {
		cwd := c.cwd
		if cwd == "" {
			wd, err := os.Getwd()
			if err != nil {
				c.err = err
				return
			}
			cwd = wd
		}

		eff, err := config.LoadEffective(cwd, c.cli)
		if err != nil {
			c.err = err
			return
		}
		log, err := logging.New(logging.Options{
			Name:   eff.AddonID,
			Level:  eff.LogLevel,
			JSON:   eff.LogJSON,
			Output: cmd.ErrOrStderr(),
		})
		if err != nil {
			c.err = err
			return
		}
		c.eff = eff
		c.log = log
	})
	return c.eff, c.log, c.err
}

// withLibrary 打开程序库执行 fn；write=true 时先拿写锁（拿不到立即返回 library.ErrLocked）。
func (c *commandContext) withLibrary(cmd *cobra.Command, write bool, fn func(eff config.EffectiveConfig, log hclog.Logger, store *library.Store) error) error {
	eff, log, err := c.ensure(cmd)
	if err != nil {
		return err
	}

	if write {
		release, err := library.AcquireWriteLock(eff.Library)
		if err != nil {
			return err
		}
		defer func() {
			if err := release(); err != nil {
				log.Warn("释放程序库写锁失败", "error", err)
			}
		}()
	}

	store, err := library.Open(eff.Library)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Debug("已打开程序库", "path", store.Path(), "write", write)

	return fn(eff, log, store)
}
