package locate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFind(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	write := func(dir, name string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o755); err != nil {
			t.Fatal(err)
		}
		return p
	}
	inSecond := write(second, "dht")
	inBoth := write(first, "both")
	write(second, "both")
	if err := os.Mkdir(filepath.Join(first, "dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	l := &Locator{Dirs: []string{first, second}}
	tests := []struct {
		name string
		want string
		err  error
	}{
		{name: "dht", want: inSecond},
		{name: "both", want: inBoth},
		{name: "dir", err: ErrNotFound},
		{name: "missing", err: ErrNotFound},
		{name: "", err: ErrNotFound},
		{name: inSecond, want: inSecond},
		{name: filepath.Join(first, "missing"), err: ErrNotFound},
	}
	for _, tt := range tests {
		got, err := l.Find(tt.name)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("Find(%q) error = %v, want %v", tt.name, err, tt.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Find(%q) error = %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Find(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	l, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if len(l.Dirs) == 0 || l.Dirs[0] != wd {
		t.Errorf("Dirs = %v, want working directory first", l.Dirs)
	}
}
