// Package fsutil holds the file plumbing shared by the binpatch packages:
// scratch file naming, the final swap of a rewritten file into place,
// verified atomic copies, executable bits and the per-target advisory lock.
package fsutil

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

const (
	scratchSuffix = ".binpatch.tmp"
	lockSuffix    = ".binpatch.lock"
)

// ScratchPath returns the hidden sibling path under which a rewritten
// version of p is built before it is swapped in.
func ScratchPath(p string) string {
	dir, base := filepath.Split(p)
	return filepath.Join(dir, "."+base+scratchSuffix)
}

// LockPath returns the advisory lock file path for p.
func LockPath(p string) string {
	return p + lockSuffix
}

// Swap moves scratch over p. The rename replaces p atomically where the
// platform allows it; otherwise p is removed first and scratch moved after.
func Swap(scratch, p string) error {
	err := os.Rename(scratch, p)
	if err == nil {
		return nil
	}
	if _, statErr := os.Stat(scratch); statErr != nil {
		return IOErr("swap", err)
	}
	if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		return IOErr("swap", rmErr)
	}
	if err := os.Rename(scratch, p); err != nil {
		return IOErr("swap", err)
	}
	return nil
}

// MakeExecutable adds an execute bit for every read bit set on p,
// like chmod +x under a typical umask.
func MakeExecutable(p string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	fi, err := os.Stat(p)
	if err != nil {
		return IOErr("chmod", err)
	}
	mode := fi.Mode().Perm()
	mode |= (mode & 0o444) >> 2
	if err := os.Chmod(p, mode); err != nil {
		return IOErr("chmod", err)
	}
	return nil
}

// CopyFile copies src to dst by writing ScratchPath(dst) and renaming it
// into place. The result carries src's permissions.
func CopyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return IOErr("open", err)
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return IOErr("stat", err)
	}
	tmpFile := ScratchPath(dst)
	out, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fi.Mode().Perm())
	if err != nil {
		return IOErr("create", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmpFile)
		return IOErr("copy", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmpFile)
		return IOErr("sync", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpFile)
		return IOErr("close", err)
	}
	// os.OpenFile applies the umask
	if err := os.Chmod(tmpFile, fi.Mode().Perm()); err != nil {
		os.Remove(tmpFile)
		return IOErr("chmod", err)
	}
	if err := os.Rename(tmpFile, dst); err != nil {
		os.Remove(tmpFile)
		return IOErr("rename", err)
	}
	return nil
}

// Digest is the size and SHA-256 of a file's contents.
type Digest struct {
	Size int64
	Sum  [sha256.Size]byte
}

func (d Digest) String() string {
	return fmt.Sprintf("%x (%d bytes)", d.Sum, d.Size)
}

// FileDigest streams p through SHA-256.
func FileDigest(p string) (Digest, error) {
	f, err := os.Open(p)
	if err != nil {
		return Digest{}, IOErr("open", err)
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Digest{}, IOErr("read", err)
	}
	d := Digest{Size: n}
	copy(d.Sum[:], h.Sum(nil))
	return d, nil
}
