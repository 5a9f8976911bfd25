// Package plugin 把 host 的一次调用（句柄 + 查询串）分派给元数据提取，并把结果回调给 host。
package plugin

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/John-Robertt/progmeta/internal/domain"
	"github.com/John-Robertt/progmeta/internal/logging"
	"github.com/John-Robertt/progmeta/internal/metadata"
)

// Plugin 是 metadata provider 的入口。零值不可用，请使用 New。
type Plugin struct {
	host Host
	log  hclog.Logger
	load func(rootDir string) (metadata.Result, error)
}

// New 返回一个 Plugin；log 为 nil 时不输出日志。
func New(host Host, log hclog.Logger) *Plugin {
	if log == nil {
		log = logging.Discard()
	}
	return &Plugin{host: host, log: log, load: metadata.Load}
}

// Run 解析 argv 并执行其中的 action。
//
// - action=getdetails 且带 url：提取元数据并 SetResolvedURL，成功后再 EndOfDirectory
// - 其他情况：记录 warning 并 EndOfDirectory
//
// 提取失败（default.xml 缺失/损坏）时先向 host 报告失败，再把错误返回给调用方；
// 这种情况下不再发送 EndOfDirectory。
func (p *Plugin) Run(argv []string) error {
	params, err := ParseParams(argv)
	if err != nil {
		return err
	}

	action := params.Action()
	if u, ok := params.Get(ParamURL); ok && action == ActionGetDetails {
		if err := p.GetDetails(u, params.Handle); err != nil {
			return err
		}
	} else {
		p.log.Warn("unhandled action: "+action, "handle", params.Handle)
	}

	if err := p.host.EndOfDirectory(params.Handle); err != nil {
		return fmt.Errorf("EndOfDirectory 失败：%w", err)
	}
	return nil
}

// GetDetails 读取 programPath 所在目录的元数据并回调 host。
// programPath 指向程序文件（例如 .../Halo/default.xbe），元数据位于其父目录的 _resources/ 下。
func (p *Plugin) GetDetails(programPath string, handle int) error {
	rootDir := filepath.Dir(programPath)
	p.log.Debug("getdetails", "handle", handle, "root", rootDir)

	res, err := p.load(rootDir)
	if err != nil {
		p.log.Error("读取元数据失败", "handle", handle, "root", rootDir, "error", err)
		if herr := p.host.SetResolvedURL(handle, false, nil); herr != nil {
			p.log.Error("SetResolvedURL 失败", "handle", handle, "error", herr)
		}
		return err
	}

	item := &ListItem{
		Label:    label(res.Record, rootDir),
		Category: CategoryProgram,
		Info:     res.Record,
	}
	if err := p.host.SetResolvedURL(handle, true, item); err != nil {
		return fmt.Errorf("SetResolvedURL 失败：%w", err)
	}
	p.log.Debug("resolved", "handle", handle, "fields", len(res.Record))
	return nil
}

// label 优先使用 title；没有 title 时回退到目录名，避免给 host 一个空标签。
func label(r domain.Record, rootDir string) string {
	if t, ok := r.Text(domain.FieldTitle); ok {
		return t
	}
	return filepath.Base(rootDir)
}
