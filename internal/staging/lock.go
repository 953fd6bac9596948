package staging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrRootBusy is returned when another run holds the lock for a root.
var ErrRootBusy = errors.New("another sort is already running on this directory")

const lockRetryDelay = 100 * time.Millisecond

// RootLock is an advisory lock on one root directory, held through a lock
// file under the state directory.
type RootLock struct {
	Root string
	Path string
	lock *flock.Flock
}

// LockPath returns the lock file used for root.
func LockPath(stateDir, root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(stateDir, "locks", hex.EncodeToString(sum[:8])+".lock"), nil
}

// LockRoot acquires the lock for root, waiting up to timeout. A zero timeout
// tries once.
func LockRoot(ctx context.Context, stateDir, root string, timeout time.Duration) (*RootLock, error) {
	path, err := LockPath(stateDir, root)
	if err != nil {
		return nil, fmt.Errorf("lock root: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lock root: ensure lock directory: %w", err)
	}

	fl := flock.New(path)
	var ok bool
	if timeout <= 0 {
		ok, err = fl.TryLock()
	} else {
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		ok, err = fl.TryLockContext(waitCtx, lockRetryDelay)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			ok, err = false, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("lock root: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRootBusy, root)
	}
	return &RootLock{Root: root, Path: path, lock: fl}, nil
}

// Unlock releases the lock. The lock file is left in place for reuse.
func (l *RootLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
