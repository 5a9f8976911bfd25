// Package library 是扫描结果的持久化（程序库），基于 SQLite。
//
// 程序库只服务于 scan/list/clean/export 命令；getdetails 永远直接读取磁盘上的 default.xml。
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/John-Robertt/progmeta/internal/domain"
)

// ErrNotFound 表示库中没有该程序。
var ErrNotFound = errors.New("library: program not found")

const schema = `
CREATE TABLE IF NOT EXISTS programs (
	path             TEXT PRIMARY KEY,
	dir              TEXT NOT NULL,
	title            TEXT NOT NULL DEFAULT '',
	info             TEXT NOT NULL,
	poster           TEXT NOT NULL DEFAULT '',
	fanart           TEXT NOT NULL DEFAULT '',
	uniqueid         TEXT NOT NULL DEFAULT '',
	release_fallback INTEGER NOT NULL DEFAULT 0,
	scanned_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_programs_title ON programs(title);
`

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store 管理程序库数据库。
type Store struct {
	db   *sql.DB
	path string
}

// Open 打开（必要时创建）path 处的程序库。
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建程序库目录失败：%w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开程序库失败：%w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("设置 %q 失败：%w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("初始化程序库表结构失败：%w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("升级程序库表结构失败：%w", err)
	}
	return &Store{db: db, path: path}, nil
}

// migrate 给旧版本创建的库补上后来新增的列。
func migrate(db *sql.DB) error {
	rows, err := db.Query(`PRAGMA table_info(programs)`)
	if err != nil {
		return err
	}
	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			_ = rows.Close()
			return err
		}
		cols[name] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if !cols["uniqueid"] {
		if _, err := db.Exec(`ALTER TABLE programs ADD COLUMN uniqueid TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
	}
	return nil
}

// Path 返回数据库文件路径。
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert 写入或覆盖一条程序记录（以 Path 为键）。
func (s *Store) Upsert(ctx context.Context, p domain.Program) error {
	info := p.Info
	if info == nil {
		info = domain.Record{}
	}
	b, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("编码 info 失败：%w", err)
	}
	if p.ScannedUnix == 0 {
		p.ScannedUnix = time.Now().Unix()
	}

	const q = `
INSERT INTO programs (path, dir, title, info, poster, fanart, uniqueid, release_fallback, scanned_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	dir = excluded.dir,
	title = excluded.title,
	info = excluded.info,
	poster = excluded.poster,
	fanart = excluded.fanart,
	uniqueid = excluded.uniqueid,
	release_fallback = excluded.release_fallback,
	scanned_at = excluded.scanned_at`

	return s.exec(ctx, q, p.Path, p.Dir, p.Title(), string(b), p.Poster, p.Fanart, p.UniqueID, boolToInt(p.ReleaseFallback), p.ScannedUnix)
}

// Get 按程序文件路径读取一条记录。
func (s *Store) Get(ctx context.Context, path string) (domain.Program, error) {
	row := s.db.QueryRowContext(ctx, `SELECT path, dir, info, poster, fanart, uniqueid, release_fallback, scanned_at FROM programs WHERE path = ?`, path)
	p, err := scanProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Program{}, ErrNotFound
	}
	return p, err
}

// List 返回全部程序，按标题（不区分大小写）再按路径排序。
func (s *Store) List(ctx context.Context) ([]domain.Program, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, dir, info, poster, fanart, uniqueid, release_fallback, scanned_at FROM programs ORDER BY title COLLATE NOCASE, path`)
	if err != nil {
		return nil, fmt.Errorf("查询程序库失败：%w", err)
	}
	defer rows.Close()

	var out []domain.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Remove 删除一条记录；记录不存在时返回 ErrNotFound。
func (s *Store) Remove(ctx context.Context, path string) error {
	var n int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM programs WHERE path = ?`, path)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("删除 %q 失败：%w", path, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgram(r rowScanner) (domain.Program, error) {
	var (
		p        domain.Program
		info     string
		fallback int
	)
	if err := r.Scan(&p.Path, &p.Dir, &info, &p.Poster, &p.Fanart, &p.UniqueID, &fallback, &p.ScannedUnix); err != nil {
		return domain.Program{}, err
	}
	if err := json.Unmarshal([]byte(info), &p.Info); err != nil {
		return domain.Program{}, fmt.Errorf("解码 %q 的 info 失败：%w", p.Path, err)
	}
	p.ReleaseFallback = fallback != 0
	return p, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy 在 SQLITE_BUSY 时指数退避重试（其他错误立即返回）。
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
