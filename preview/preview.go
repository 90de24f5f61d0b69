// Package preview renders what a rewrite would do to a file without
// touching it. The bytes around the rewritten span are shown as a hex
// dump before and after the change, as a line diff.
package preview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/signadot/binpatch/fsutil"
	"github.com/signadot/binpatch/rewrite"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

const (
	DefaultContext = 32
	rowWidth       = 16
)

// Preview holds the window of a file around a span and the same window
// with the replacement applied.
type Preview struct {
	Path   string
	Span   rewrite.Span
	Offset int64
	Before []byte
	After  []byte
}

// Build reads up to context bytes either side of span from r, which
// holds size bytes.
func Build(r io.ReaderAt, size int64, span rewrite.Span, replacement []byte, context int64) (*Preview, error) {
	if span.Start < 0 || span.Len < 0 || span.End() > size {
		return nil, fmt.Errorf("%w: %s of %d bytes", rewrite.ErrInvalidSpan, span, size)
	}
	if context < 0 {
		context = 0
	}
	lo := max(span.Start-context, 0)
	lo -= lo % rowWidth
	hi := min(span.End()+context, size)
	window := make([]byte, hi-lo)
	if _, err := r.ReadAt(window, lo); err != nil && err != io.EOF {
		return nil, fsutil.IOErr("read", err)
	}
	rel := span.Start - lo
	after := make([]byte, 0, int64(len(window))-span.Len+int64(len(replacement)))
	after = append(after, window[:rel]...)
	after = append(after, replacement...)
	after = append(after, window[rel+span.Len:]...)
	return &Preview{
		Span:   span,
		Offset: lo,
		Before: window,
		After:  after,
	}, nil
}

// BuildFile is Build on the file at path.
func BuildFile(path string, span rewrite.Span, replacement []byte, context int64) (*Preview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fsutil.IOErr("open", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, fsutil.IOErr("stat", err)
	}
	p, err := Build(f, fi.Size(), span, replacement, context)
	if err != nil {
		return nil, err
	}
	p.Path = path
	return p, nil
}

// Render writes a header and the line diff of the two hex dumps to w.
func (p *Preview) Render(w io.Writer, c *Colors) error {
	hdr := fmt.Sprintf("--- %s\n+++ %s (dry run)\n@@ %s, %+d bytes @@\n",
		p.name(), p.name(), p.Span, int64(len(p.After)-len(p.Before)))
	if _, err := io.WriteString(w, c.Color(HeaderColor, hdr)); err != nil {
		return err
	}
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(Dump(p.Before, p.Offset), Dump(p.After, p.Offset))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		prefix, attr := " ", OffsetColor
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix, attr = "-", DeleteColor
		case diffpatch.DiffInsert:
			prefix, attr = "+", InsertColor
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = c.Color(attr, strings.TrimSuffix(line, "\n")) + "\n"
			if _, err := io.WriteString(w, prefix+line); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Preview) name() string {
	if p.Path == "" {
		return "<input>"
	}
	return p.Path
}

// Dump formats d as rows of 16 bytes labelled by file offset, starting
// at off.
func Dump(d []byte, off int64) string {
	buf := &strings.Builder{}
	for i := 0; i < len(d); i += rowWidth {
		row := d[i:min(i+rowWidth, len(d))]
		hex := make([]string, len(row))
		ascii := make([]byte, len(row))
		for j, c := range row {
			hex[j] = fmt.Sprintf("%02x", c)
			if c >= 0x20 && c < 0x7f {
				ascii[j] = c
			} else {
				ascii[j] = '.'
			}
		}
		fmt.Fprintf(buf, "%08x  %-47s  |%s|\n", off+int64(i), strings.Join(hex, " "), ascii)
	}
	return buf.String()
}
