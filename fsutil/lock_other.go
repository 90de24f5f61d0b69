//go:build !unix

package fsutil

import (
	"errors"
	"io/fs"
	"os"
)

// Lock takes an exclusive lock guarding p by creating its lock file
// exclusively. It returns ErrLocked if the lock file already exists.
func Lock(p string) (func() error, error) {
	lp := LockPath(p)
	f, err := os.OpenFile(lp, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, ErrLocked
		}
		return nil, IOErr("lock", err)
	}
	return func() error {
		if err := f.Close(); err != nil {
			os.Remove(lp)
			return IOErr("unlock", err)
		}
		return IOErr("unlock", os.Remove(lp))
	}, nil
}
