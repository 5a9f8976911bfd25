package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/John-Robertt/progmeta/internal/logging"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是默认发现的配置文件名（位于 cwd）。
	FileName = "progmeta.toml"
	// DefaultAddonID 是 host 侧注册的插件 id，也是日志前缀。
	DefaultAddonID = "metadata.programs.xbmc4gamers"
	// DefaultLibrary 是程序库文件名（相对配置文件所在目录；无配置文件时相对 cwd）。
	DefaultLibrary = "progmeta.db"
	// DefaultConcurrency 是扫描并发的内置默认值。
	DefaultConcurrency = 4
	DefaultLogLevel    = "info"
)

// CLIArgs 是命令行可覆盖的字段，XSet 记录“是否显式指定”。
// 这样 --log-json=false 才能覆盖配置里的 log_json=true。
type CLIArgs struct {
	ConfigPath string

	LogLevel    string
	LogLevelSet bool

	LogJSON    bool
	LogJSONSet bool

	Library    string
	LibrarySet bool

	Concurrency    int
	ConcurrencySet bool
}

// FileConfig 对应 progmeta.toml。
type FileConfig struct {
	AddonID     string   `toml:"addon_id"`
	LogLevel    string   `toml:"log_level"`
	LogJSON     *bool    `toml:"log_json"`
	Library     string   `toml:"library"`
	Concurrency int      `toml:"concurrency"`
	ExcludeDirs []string `toml:"exclude_dirs"`
}

// EffectiveConfig 是合并、规范化后的最终配置。
type EffectiveConfig struct {
	// File 是实际读取的配置文件；未找到时为空。
	File string

	AddonID  string
	LogLevel string
	LogJSON  bool

	// Library 是程序库数据库的绝对路径。
	Library     string
	Concurrency int
	ExcludeDirs []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Default 返回不读任何文件时的配置。
func Default(cwd string) EffectiveConfig {
	return EffectiveConfig{
		AddonID:     DefaultAddonID,
		LogLevel:    DefaultLogLevel,
		Library:     filepath.Join(cwd, DefaultLibrary),
		Concurrency: DefaultConcurrency,
	}
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并。
//
// 发现规则：
// 1) CLI 给了 --config：该文件必须存在
// 2) 否则尝试 <cwd>/progmeta.toml（可选）
//
// 覆盖优先级：CLI > 配置文件 > 内置默认。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var cfgPath string
	explicit := strings.TrimSpace(cli.ConfigPath) != ""
	if explicit {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
	} else {
		cfgPath = filepath.Join(cwdAbs, FileName)
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		if explicit {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		return merge(cwdAbs, cwdAbs, "", cli, FileConfig{})
	}
	return merge(cwdAbs, filepath.Dir(cfgPath), cfgPath, cli, fc)
}

// merge 中 cwd 用于解析 CLI 给出的相对路径，cfgDir 用于解析配置文件里的相对路径。
func merge(cwd, cfgDir, cfgPath string, cli CLIArgs, fc FileConfig) (EffectiveConfig, error) {
	eff := Default(cfgDir)
	eff.File = cfgPath

	if s := strings.TrimSpace(fc.AddonID); s != "" {
		eff.AddonID = s
	}

	if cli.LogLevelSet {
		eff.LogLevel = cli.LogLevel
	} else if strings.TrimSpace(fc.LogLevel) != "" {
		eff.LogLevel = fc.LogLevel
	}
	eff.LogLevel = strings.ToLower(strings.TrimSpace(eff.LogLevel))
	if _, err := logging.ParseLevel(eff.LogLevel); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	if cli.LogJSONSet {
		eff.LogJSON = cli.LogJSON
	} else if fc.LogJSON != nil {
		eff.LogJSON = *fc.LogJSON
	}

	if cli.LibrarySet && strings.TrimSpace(cli.Library) != "" {
		eff.Library = absCleanFrom(cwd, cli.Library)
	} else if strings.TrimSpace(fc.Library) != "" {
		eff.Library = absCleanFrom(cfgDir, fc.Library)
	}

	concurrency := fc.Concurrency
	if cli.ConcurrencySet {
		concurrency = cli.Concurrency
	}
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围 [1, 32]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 32 {
		concurrency = 32
	}
	eff.Concurrency = concurrency

	for _, x := range fc.ExcludeDirs {
		if x = strings.TrimSpace(x); x != "" {
			eff.ExcludeDirs = append(eff.ExcludeDirs, x)
		}
	}
	return eff, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// readFileConfig 读取并解析 TOML 配置文件；exists=false 表示文件不存在（不算错误）。
// 未知字段视为错误，避免拼写错误被静默忽略。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
