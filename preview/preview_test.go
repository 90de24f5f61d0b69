package preview

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/binpatch/rewrite"
)

func TestBuild(t *testing.T) {
	src := make([]byte, 100)
	for i := range src {
		src[i] = byte(i)
	}
	tests := []struct {
		name    string
		span    rewrite.Span
		repl    []byte
		context int64
		offset  int64
		before  []byte
		after   []byte
	}{
		{
			name:    "whole file",
			span:    rewrite.Span{Start: 2, Len: 1},
			repl:    []byte{0xff, 0xff},
			context: DefaultContext,
			offset:  0,
			before:  src[:35],
			after:   append([]byte{0, 1, 0xff, 0xff}, src[3:35]...),
		},
		{
			name:    "row aligned window",
			span:    rewrite.Span{Start: 50, Len: 2},
			repl:    []byte{0xaa},
			context: 4,
			offset:  32,
			before:  src[32:56],
			after:   append(append(append([]byte(nil), src[32:50]...), 0xaa), src[52:56]...),
		},
		{
			name:    "clipped at end",
			span:    rewrite.Span{Start: 98, Len: 2},
			repl:    nil,
			context: 8,
			offset:  80,
			before:  src[80:],
			after:   src[80:98],
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Build(bytes.NewReader(src), int64(len(src)), tt.span, tt.repl, tt.context)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if p.Offset != tt.offset {
				t.Errorf("Offset = %d, want %d", p.Offset, tt.offset)
			}
			if diff := cmp.Diff(tt.before, p.Before); diff != "" {
				t.Errorf("Before mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.after, p.After); diff != "" {
				t.Errorf("After mismatch (-want +got):\n%s", diff)
			}
		})
	}

	_, err := Build(bytes.NewReader(src), int64(len(src)), rewrite.Span{Start: 99, Len: 2}, nil, 0)
	if !errors.Is(err, rewrite.ErrInvalidSpan) {
		t.Errorf("Build() past end error = %v, want ErrInvalidSpan", err)
	}
}

func TestDump(t *testing.T) {
	got := Dump([]byte("binpatch\x00\x01 hex dump rows"), 0x40)
	want := "00000040  62 69 6e 70 61 74 63 68 00 01 20 68 65 78 20 64  |binpatch.. hex d|\n" +
		"00000050  75 6d 70 20 72 6f 77 73                          |ump rows|\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Dump() mismatch (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bin")
	src := []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := BuildFile(path, rewrite.Span{Start: 2, Len: 1}, []byte{0xff, 0xff}, DefaultContext)
	if err != nil {
		t.Fatal(err)
	}
	buf := &strings.Builder{}
	if err := p.Render(buf, Plain()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"--- " + path + "\n",
		"@@ [0x2, 0x3), +1 bytes @@\n",
		"-" + Dump(src, 0),
		"+" + Dump([]byte{0xaa, 0xbb, 0xff, 0xff, 0xdd, 0xee}, 0),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderUnchangedRows(t *testing.T) {
	src := bytes.Repeat([]byte{0x11}, 48)
	p, err := Build(bytes.NewReader(src), int64(len(src)), rewrite.Span{Start: 40, Len: 1}, []byte{0x22}, 32)
	if err != nil {
		t.Fatal(err)
	}
	buf := &strings.Builder{}
	if err := p.Render(buf, nil); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")[3:]
	var prefixes []string
	for _, l := range lines {
		prefixes = append(prefixes, l[:9])
	}
	want := []string{" 00000000", " 00000010", "-00000020", "+00000020"}
	if diff := cmp.Diff(want, prefixes); diff != "" {
		t.Errorf("row prefixes mismatch (-want +got):\n%s", diff)
	}
}
