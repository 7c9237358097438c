// Package filelock provides advisory file locks: a blocking lock guarding
// shared files such as the project snapshot, and a non-blocking lock that
// keeps two digest runs from writing reports at once.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

const lockFileMode = 0o600

// ErrLocked is returned by TryAcquire when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// Lock is a held advisory lock on a file.
type Lock struct {
	f    *os.File
	path string
}

// Acquire takes an exclusive lock on path, creating the file if needed.
// It blocks until the lock is available.
func Acquire(path string) (*Lock, error) {
	return acquire(path, true)
}

// TryAcquire takes an exclusive lock on path without waiting. It returns
// ErrLocked if another process holds it. The holder's pid is written into
// the file.
func TryAcquire(path string) (*Lock, error) {
	l, err := acquire(path, false)
	if err != nil {
		return nil, err
	}
	if err := l.f.Truncate(0); err == nil {
		_, _ = l.f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return l, nil
}

func acquire(path string, block bool) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock file path from trusted source
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := lockFile(f, block); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Lock{f: f, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release unlocks and closes the lock file. The file itself is left in
// place so other processes keep locking the same inode.
func (l *Lock) Release() error {
	unlockErr := unlockFile(l.f)
	closeErr := l.f.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
