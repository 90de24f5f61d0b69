// Package search finds wildcard byte patterns in streams.
//
// The scan is a naive sliding window: each start offset is tried in
// turn and a mismatch advances by one byte. Input is read in chunks and
// the last len(pattern)-1 bytes of a chunk are carried into the next, so
// memory use is bounded by the chunk size plus the pattern length no
// matter how large the stream is.
package search

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/signadot/binpatch/debug"
	"github.com/signadot/binpatch/fsutil"
	"github.com/signadot/binpatch/pattern"
)

const DefaultChunkSize = 64 << 10

var ErrPatternNotFound = pattern.ErrPatternNotFound

// Result is the outcome of one search. Position is only meaningful
// when Found is true.
type Result struct {
	Found    bool
	Position int64
}

// Shift returns r moved by delta bytes. A result that was not found is
// returned as is.
func (r Result) Shift(delta int64) Result {
	if !r.Found {
		return r
	}
	r.Position += delta
	return r
}

func (r Result) String() string {
	if !r.Found {
		return "not found"
	}
	return fmt.Sprintf("found at %#x", r.Position)
}

type SearchOption func(*searchState)

type searchState struct {
	chunk int
}

// WithChunkSize sets how many bytes are read from the stream at a time.
func WithChunkSize(n int) SearchOption {
	return func(s *searchState) { s.chunk = n }
}

// FindPatternPosition returns the first position in r at which p
// matches, scanning from the current read position.
func FindPatternPosition(r io.Reader, p pattern.Pattern, opts ...SearchOption) (Result, error) {
	var res Result
	err := scan(r, p, opts, func(pos int64) bool {
		res = Result{Found: true, Position: pos}
		return false
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// FindPatternInFile is FindPatternPosition over the file at path. The
// file is closed before FindPatternInFile returns.
func FindPatternInFile(path string, p pattern.Pattern, opts ...SearchOption) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fsutil.IOErr("open", err)
	}
	defer f.Close()
	return FindPatternPosition(f, p, opts...)
}

// FindAll returns the positions of non-overlapping matches of p in r,
// stopping after limit matches if limit > 0.
func FindAll(r io.Reader, p pattern.Pattern, limit int, opts ...SearchOption) ([]int64, error) {
	var res []int64
	err := scan(r, p, opts, func(pos int64) bool {
		res = append(res, pos)
		return limit <= 0 || len(res) < limit
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// scan calls fn with every non-overlapping match position of p in r
// until fn returns false or r is exhausted.
func scan(r io.Reader, p pattern.Pattern, opts []SearchOption, fn func(int64) bool) error {
	st := &searchState{chunk: DefaultChunkSize}
	for _, opt := range opts {
		opt(st)
	}
	if st.chunk < 1 {
		st.chunk = 1
	}
	n := p.Len()
	if n == 0 {
		return fmt.Errorf("%w: empty", pattern.ErrBadPattern)
	}
	if debug.Search() {
		debug.Logf("search %s (mask %s) chunk=%d\n", p, p.Mask(), st.chunk)
	}

	buf := make([]byte, 0, n-1+st.chunk)
	var (
		base      int64 // stream offset of buf[0]
		skipUntil int64
	)
	for {
		m, err := io.ReadFull(r, buf[len(buf):len(buf)+st.chunk])
		buf = buf[:len(buf)+m]
		eof := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !eof {
			return fsutil.IOErr("read", err)
		}
		i := 0
		for ; i+n <= len(buf); i++ {
			pos := base + int64(i)
			if pos < skipUntil || !p.Match(buf[i:]) {
				continue
			}
			if debug.Search() {
				debug.Logf("search match at %#x\n", pos)
			}
			if !fn(pos) {
				return nil
			}
			skipUntil = pos + int64(n)
		}
		if eof {
			return nil
		}
		keep := copy(buf, buf[i:])
		buf = buf[:keep]
		base += int64(i)
	}
}
