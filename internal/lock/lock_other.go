//go:build !unix

package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Lock is an exclusively created file. Unlike the flock version it survives
// a crash; remove the file by hand if no process is running.
type Lock struct {
	path string
}

// Acquire takes the lock without blocking.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	if err != nil {
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &Lock{path: path}, nil
}

// Release drops the lock. It is safe on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	path := l.path
	l.path = ""
	return os.Remove(path)
}
