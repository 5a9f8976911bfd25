package domain

// ProgramEntry 是扫描阶段发现的一个程序（可执行文件 + 所在目录）。
type ProgramEntry struct {
	// Path 是程序文件的绝对路径（例如 /games/Halo/default.xbe）。
	Path string
	// Dir 是程序根目录（Path 的父目录），_resources/ 位于其下。
	Dir     string
	RelPath string
	// Name 是程序目录名；default.xml 没有 title 时用作标题。
	Name string

	Poster string
	Fanart string
}

// Program 是程序库中的一行。
type Program struct {
	Path            string
	Dir             string
	Info            Record
	Poster          string
	Fanart          string
	// UniqueID 是 .xbe 证书里的 Title ID（大写十六进制）；其他程序文件为空。
	UniqueID        string
	ReleaseFallback bool
	ScannedUnix     int64
}

// Title 返回库中展示用的标题。
func (p Program) Title() string {
	if t, ok := p.Info.Text(FieldTitle); ok {
		return t
	}
	return ""
}
