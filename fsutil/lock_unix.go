//go:build unix

package fsutil

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// Lock takes an exclusive, non-blocking advisory lock guarding p. It
// returns ErrLocked if another process holds it. The returned func
// releases the lock and removes the lock file.
func Lock(p string) (func() error, error) {
	lp := LockPath(p)
	for {
		f, err := os.OpenFile(lp, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return nil, IOErr("lock", err)
		}
		fd := int(f.Fd())
		if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
			f.Close()
			if errors.Is(err, unix.EWOULDBLOCK) {
				return nil, ErrLocked
			}
			return nil, IOErr("lock", err)
		}
		// the previous holder may have unlinked lp between our open and
		// flock, in which case we locked an orphaned inode.
		var held, onDisk unix.Stat_t
		if err := unix.Fstat(fd, &held); err != nil {
			f.Close()
			return nil, IOErr("lock", err)
		}
		if err := unix.Stat(lp, &onDisk); err != nil || held.Ino != onDisk.Ino || held.Dev != onDisk.Dev {
			f.Close()
			continue
		}
		return func() error {
			rmErr := os.Remove(lp)
			unix.Flock(fd, unix.LOCK_UN)
			if err := f.Close(); err != nil {
				return IOErr("unlock", err)
			}
			if rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				return IOErr("unlock", rmErr)
			}
			return nil
		}, nil
	}
}
