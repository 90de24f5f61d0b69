// Package rewrite produces a copy of a stream in which one span of bytes
// is substituted by a replacement of any length.
//
// The copy is made in three phases: the bytes before the span, the
// replacement, and the bytes after the span. The first and last phases
// are bulk copies, so when both ends are files the kernel may move the
// data without it passing through user space.
package rewrite

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/signadot/binpatch/debug"
	"github.com/signadot/binpatch/fsutil"
)

var ErrInvalidSpan = errors.New("invalid span")

// Span is the region [Start, Start+Len) of the source being replaced.
type Span struct {
	Start int64
	Len   int64
}

func (s Span) End() int64 { return s.Start + s.Len }

func (s Span) String() string {
	return fmt.Sprintf("[%#x, %#x)", s.Start, s.End())
}

// Rewrite writes src to dst with span replaced by replacement, and
// returns the number of bytes written. src may be at any position; it
// is read from its start. If span does not lie within src, nothing is
// written and the error wraps ErrInvalidSpan.
func Rewrite(dst io.Writer, src io.ReadSeeker, span Span, replacement []byte) (int64, error) {
	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fsutil.IOErr("seek", err)
	}
	if span.Start < 0 || span.Len < 0 || span.End() > size {
		return 0, fmt.Errorf("%w: %s in %d bytes", ErrInvalidSpan, span, size)
	}
	if debug.Rewrite() {
		debug.Logf("rewrite %s of %d bytes with %d bytes\n", span, size, len(replacement))
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return 0, fsutil.IOErr("seek", err)
	}

	var ttl int64
	n, err := io.CopyN(dst, src, span.Start)
	ttl += n
	if err != nil {
		return ttl, fsutil.IOErr("copy before span", err)
	}
	m, err := dst.Write(replacement)
	ttl += int64(m)
	if err != nil {
		return ttl, fsutil.IOErr("write replacement", err)
	}
	if _, err := src.Seek(span.End(), io.SeekStart); err != nil {
		return ttl, fsutil.IOErr("seek", err)
	}
	n, err = io.CopyN(dst, src, size-span.End())
	ttl += n
	if err != nil {
		return ttl, fsutil.IOErr("copy after span", err)
	}
	if debug.Rewrite() {
		debug.Logf("rewrite wrote %d bytes\n", ttl)
	}
	return ttl, nil
}

// RewriteFile rewrites the file at srcPath into a new file at dstPath
// which gets srcPath's permissions. An existing dstPath is truncated.
// Both files are closed when RewriteFile returns.
func RewriteFile(srcPath, dstPath string, span Span, replacement []byte) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, fsutil.IOErr("open", err)
	}
	defer src.Close()
	fi, err := src.Stat()
	if err != nil {
		return 0, fsutil.IOErr("stat", err)
	}
	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fi.Mode().Perm())
	if err != nil {
		return 0, fsutil.IOErr("create", err)
	}
	n, err := Rewrite(dst, src, span, replacement)
	if err != nil {
		dst.Close()
		return n, err
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		return n, fsutil.IOErr("sync", err)
	}
	if err := dst.Close(); err != nil {
		return n, fsutil.IOErr("close", err)
	}
	return n, nil
}
