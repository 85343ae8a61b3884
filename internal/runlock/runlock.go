// Package runlock serialises runs that share one watermark, across processes.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another run still holds the lock.
var ErrLocked = errors.New("another run holds the lock")

const retryDelay = 250 * time.Millisecond

type Lock struct {
	fl *flock.Flock
}

// Acquire takes the advisory lock at path, waiting up to timeout.
// A zero timeout tries exactly once.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(path)

	var locked bool
	var err error
	if timeout <= 0 {
		locked, err = fl.TryLock()
	} else {
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		locked, err = fl.TryLockContext(waitCtx, retryDelay)
	}

	switch {
	case locked:
		return &Lock{fl: fl}, nil
	case err == nil, errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	default:
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
}

func (l *Lock) Release() error {
	return l.fl.Unlock()
}
