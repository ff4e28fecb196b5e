package env

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
)

// ErrAlreadyRunning is returned by AcquireLock when another bridge holds
// the lock.
var ErrAlreadyRunning = errors.New("bridge already running")

type BridgeLock struct {
	file *os.File
	path string
}

func GetLockPath(homeDir string) string {
	return PathsFor(homeDir).LockFile
}

// AcquireLock 获取指定目录的文件锁，非阻塞
// 如果已经被锁定，返回 ErrAlreadyRunning
func AcquireLock(homeDir string) (*BridgeLock, error) {
	path := GetLockPath(homeDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, ErrAlreadyRunning
	}

	return &BridgeLock{file: f, path: path}, nil
}

// CheckLock reports nil when a bridge holds the lock under homeDir.
func CheckLock(homeDir string) error {
	path := GetLockPath(homeDir)
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if os.IsNotExist(err) {
		return errors.New("bridge not running (lock file missing)")
	}
	if err != nil {
		return err
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		// 获取锁失败，说明正在运行
		return nil
	}
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	return errors.New("bridge not running")
}

// Release 释放锁，锁文件保留给 CheckLock 使用
func (l *BridgeLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}
