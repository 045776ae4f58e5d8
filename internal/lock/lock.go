// Package lock keeps two pipeline runs from appending the same batch at once.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("another run holds the lock")

type RunLock struct {
	fl *flock.Flock
}

// Acquire takes <dataDir>/outreach.lock without blocking.
func Acquire(dataDir string) (*RunLock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dataDir, "outreach.lock")
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	return &RunLock{fl: fl}, nil
}

func (l *RunLock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
