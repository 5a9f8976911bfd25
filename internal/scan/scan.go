package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/progmeta/internal/domain"
	"github.com/John-Robertt/progmeta/internal/metadata"
)

// ScanPrograms 扫描 root 下的程序文件，并应用目录排除规则。
//
// 规则：
// - 程序文件：扩展名为 .xbe/.cut，且去掉扩展名后以 "default" 结尾（均不区分大小写），例如 default.xbe
// - 永久排除：所有名为 _resources 的目录（元数据/媒体，不含程序）
// - excludeDirs：来自配置文件，均视为相对 root 的路径（若是绝对路径，则按绝对路径处理）
//
// 注意：扫描阶段只做目录遍历与 artwork 探测，不解析 default.xml。
func ScanPrograms(root string, excludeDirs []string) ([]domain.ProgramEntry, error) {
	root = filepath.Clean(root)
	excluded := buildExcluded(root, excludeDirs)

	entries := make([]domain.ProgramEntry, 0, 64)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if isExcluded(path, excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && strings.EqualFold(d.Name(), metadata.ResourcesDir) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isProgramFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		dir := filepath.Dir(path)
		poster, fanart := findArtwork(dir)
		entries = append(entries, domain.ProgramEntry{
			Path:    path,
			Dir:     dir,
			RelPath: rel,
			Name:    filepath.Base(dir),
			Poster:  poster,
			Fanart:  fanart,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

func isProgramFile(name string) bool {
	ext := filepath.Ext(name)
	switch strings.ToLower(ext) {
	case ".xbe", ".cut":
	default:
		return false
	}
	base := strings.TrimSuffix(name, ext)
	return strings.HasSuffix(strings.ToLower(base), "default")
}

// findArtwork 在 <dir>/_resources/artwork 下查找 poster.* 与 fanart.*（文件名不区分大小写）。
func findArtwork(dir string) (poster, fanart string) {
	artDir := filepath.Join(dir, metadata.ResourcesDir, "artwork")
	des, err := os.ReadDir(artDir)
	if err != nil {
		return "", ""
	}
	for _, de := range des {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !isImageExt(ext) {
			continue
		}
		switch strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name))) {
		case "poster":
			if poster == "" {
				poster = filepath.Join(artDir, name)
			}
		case "fanart":
			if fanart == "" {
				fanart = filepath.Join(artDir, name)
			}
		}
	}
	return poster, fanart
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tbn":
		return true
	default:
		return false
	}
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
