package format

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  error
	}{
		{in: "t", want: TextFormat},
		{in: "text", want: TextFormat},
		{in: "y", want: YAMLFormat},
		{in: "json", want: JSONFormat},
		{in: "xml", err: ErrBadFormat},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if !errors.Is(err, tt.err) {
			t.Errorf("ParseFormat(%q) error = %v, want %v", tt.in, err, tt.err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	var f Format
	if err := f.UnmarshalText([]byte("yaml")); err != nil || f != YAMLFormat {
		t.Errorf("UnmarshalText(yaml) = %v, %v", f, err)
	}
	if got := Format(7).String(); !strings.Contains(got, "not a format") {
		t.Errorf("String() of bad format = %q", got)
	}
}

type report struct {
	Path    string `json:"path" yaml:"path"`
	Patched bool   `json:"patched" yaml:"patched"`
}

func (r report) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s patched=%v\n", r.Path, r.Patched)
	return err
}

func TestEncode(t *testing.T) {
	r := report{Path: "dht", Patched: true}
	tests := []struct {
		f    Format
		v    any
		want string
	}{
		{f: TextFormat, v: r, want: "dht patched=true\n"},
		{f: TextFormat, v: 42, want: "42\n"},
		{f: YAMLFormat, v: r, want: "path: dht\npatched: true\n"},
		{f: JSONFormat, v: r, want: "{\n  \"path\": \"dht\",\n  \"patched\": true\n}\n"},
	}
	for _, tt := range tests {
		buf := &strings.Builder{}
		if err := tt.f.Encode(buf, tt.v); err != nil {
			t.Fatalf("%s: Encode() error = %v", tt.f, err)
		}
		if got := buf.String(); got != tt.want {
			t.Errorf("%s: Encode() = %q, want %q", tt.f, got, tt.want)
		}
	}
	if err := Format(9).Encode(io.Discard, r); !errors.Is(err, ErrBadFormat) {
		t.Errorf("Encode with bad format error = %v", err)
	}
}
