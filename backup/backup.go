// Package backup keeps pristine copies of files before binpatch rewrites
// them and puts them back on request.
package backup

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/signadot/binpatch/debug"
	"github.com/signadot/binpatch/fsutil"
)

var (
	ErrBackup  = errors.New("backup failed")
	ErrRestore = errors.New("restore failed")
	ErrStale   = errors.New("existing backup differs from file")
)

const suffix = ".binpatch.bak"

// Store takes and restores backups of files by path.
type Store interface {
	// Backup copies path into the store. It returns only after the copy
	// has been verified. A store may refuse to replace an earlier copy
	// that differs from path.
	Backup(path string) error
	// Restore puts the stored copy back over path.
	Restore(path string) error
}

// DirStore stores backups as plain files. With an empty Dir a backup
// sits next to the file it belongs to.
//
// An existing backup is only replaced when it matches the file or when
// Replace is set. Otherwise Backup fails with ErrStale and the earlier
// copy, which may be the only pristine one, is kept.
type DirStore struct {
	Dir     string
	Replace bool
	Logger  *slog.Logger
}

func NewDirStore(dir string, logger *slog.Logger) *DirStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DirStore{Dir: dir, Logger: logger}
}

// PathFor returns where the backup of p is kept.
func (s *DirStore) PathFor(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	dir, base := filepath.Split(abs)
	if s.Dir == "" {
		return filepath.Join(dir, base+suffix), nil
	}
	// files with the same name in different directories share s.Dir
	sum := sha256.Sum256([]byte(dir))
	return filepath.Join(s.Dir, fmt.Sprintf("%s.%x%s", base, sum[:4], suffix)), nil
}

// Has reports whether a backup of p exists.
func (s *DirStore) Has(p string) (bool, error) {
	bak, err := s.PathFor(p)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(bak)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fsutil.IOErr("stat", err)
	}
	return true, nil
}

func (s *DirStore) Backup(p string) error {
	bak, err := s.PathFor(p)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBackup, p, err)
	}
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrBackup, p, err)
		}
	}
	if err := s.checkExisting(p, bak); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBackup, p, err)
	}
	if err := copyVerified(bak, p); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBackup, p, err)
	}
	s.Logger.Info("backed up", "file", p, "backup", bak)
	return nil
}

func (s *DirStore) Restore(p string) error {
	bak, err := s.PathFor(p)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRestore, p, err)
	}
	if _, err := os.Stat(bak); err != nil {
		return fmt.Errorf("%w: %s: no backup: %w", ErrRestore, p, err)
	}
	if err := copyVerified(p, bak); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRestore, p, err)
	}
	s.Logger.Info("restored", "file", p, "backup", bak)
	return nil
}

func (s *DirStore) checkExisting(p, bak string) error {
	old, err := fsutil.FileDigest(bak)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	cur, err := fsutil.FileDigest(p)
	if err != nil {
		return err
	}
	if cur == old {
		return nil
	}
	if !s.Replace {
		return fmt.Errorf("%w: %s holds %s, file is %s", ErrStale, bak, old, cur)
	}
	s.Logger.Warn("replacing backup", "file", p, "backup", bak, "old", old.String())
	return nil
}

func copyVerified(dst, src string) error {
	want, err := fsutil.FileDigest(src)
	if err != nil {
		return err
	}
	if err := fsutil.CopyFile(dst, src); err != nil {
		return err
	}
	got, err := fsutil.FileDigest(dst)
	if err != nil {
		return err
	}
	if debug.Backup() {
		debug.Logf("copy %s -> %s: %s\n", src, dst, got)
	}
	if got != want {
		return fmt.Errorf("copy of %s is %s, want %s", src, got, want)
	}
	return nil
}
