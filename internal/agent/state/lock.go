package state

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/capsync/internal/common"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sys/unix"
)

// fileLock holds an exclusive advisory flock on the sibling lock file.
// flock is per open file description, so it excludes other processes and
// other handles inside this one.
type fileLock struct {
	f *os.File
}

// acquireLock opens (creating if needed) the lock file and takes an
// exclusive non-blocking flock, retrying with backoff until budget is
// spent. Exhaustion yields common.ErrLockTimeout.
func acquireLock(ctx context.Context, path string, budget time.Duration) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	backoff := retry.WithMaxDuration(budget, retry.NewFibonacci(50*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if lerr := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); lerr != nil {
			return retry.RetryableError(lerr)
		}
		return nil
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s held by another writer: %w", path, common.ErrLockTimeout)
	}

	return &fileLock{f: f}, nil
}

func (l *fileLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	err := l.f.Close()
	l.f = nil
	return err
}
