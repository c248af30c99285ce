package shared

import (
	"fmt"

	"github.com/gofrs/flock"
)

// TableLock is an advisory lock held next to a table file so only one run mutates it.
type TableLock struct {
	lock *flock.Flock
}

// LockPath returns the lock file path for a table.
func LockPath(tablePath string) string {
	return tablePath + ".lock"
}

// AcquireTableLock takes the lock for tablePath without blocking.
//
// Returns [ErrLocked] when another process holds it.
func AcquireTableLock(tablePath string) (*TableLock, error) {
	l := flock.New(LockPath(tablePath))

	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, tablePath)
	}

	return &TableLock{lock: l}, nil
}

// Release unlocks the table. Safe to call more than once.
func (t *TableLock) Release() error {
	if t == nil || t.lock == nil {
		return nil
	}
	if err := t.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
