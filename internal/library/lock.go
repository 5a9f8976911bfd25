package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked 表示另一个进程正在写同一个程序库。
var ErrLocked = errors.New("程序库正被另一个进程写入")

// LockPath 返回程序库写锁文件路径。
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}

// AcquireWriteLock 以非阻塞方式获取程序库写锁；拿不到锁时立即返回 ErrLocked。
// 返回的 release 必须调用（可重复调用）。
func AcquireWriteLock(dbPath string) (release func() error, err error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("创建程序库目录失败：%w", err)
	}
	lk := flock.New(LockPath(dbPath))
	ok, err := lk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("获取程序库写锁失败：%w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lk.Unlock, nil
}
