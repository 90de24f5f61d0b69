package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestScratchPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "dht", want: ".dht.binpatch.tmp"},
		{in: filepath.Join("a", "b", "dht.exe"), want: filepath.Join("a", "b", ".dht.exe.binpatch.tmp")},
	}
	for _, tt := range tests {
		if got := ScratchPath(tt.in); got != tt.want {
			t.Errorf("ScratchPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSwap(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	scratch := ScratchPath(target)
	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(scratch, []byte("new contents"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Swap(scratch, target); err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new contents" {
		t.Errorf("target = %q, want %q", got, "new contents")
	}
	if _, err := os.Stat(scratch); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("scratch still present: %v", err)
	}
}

func TestSwapMissingScratch(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := Swap(ScratchPath(target), target)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("Swap() error = %v, want ErrIO", err)
	}
	got, _ := os.ReadFile(target)
	if string(got) != "old" {
		t.Errorf("target modified: %q", got)
	}
}

func TestMakeExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no execute bits on windows")
	}
	p := filepath.Join(t.TempDir(), "bin")
	if err := os.WriteFile(p, []byte{0x7f, 'E', 'L', 'F'}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(p, 0o640); err != nil {
		t.Fatal(err)
	}
	if err := MakeExecutable(p); err != nil {
		t.Fatalf("MakeExecutable() error = %v", err)
	}
	fi, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := fi.Mode().Perm(), os.FileMode(0o750); got != want {
		t.Errorf("mode = %v, want %v", got, want)
	}
}

func TestCopyFileAndDigest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	data := make([]byte, 100_000)
	for i := range data {
		data[i] = byte(i * 7)
	}
	if err := os.WriteFile(src, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(dst, src); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	sd, err := FileDigest(src)
	if err != nil {
		t.Fatal(err)
	}
	dd, err := FileDigest(dst)
	if err != nil {
		t.Fatal(err)
	}
	if sd != dd {
		t.Errorf("digest mismatch: src %s, dst %s", sd, dd)
	}
	if sd.Size != int64(len(data)) {
		t.Errorf("size = %d, want %d", sd.Size, len(data))
	}
	if _, err := os.Stat(ScratchPath(dst)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temporary copy left behind: %v", err)
	}
}

func TestCopyFileKeepsNeighbors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dht.binpatch.bak")
	dst := filepath.Join(dir, "dht")
	if err := os.WriteFile(src, []byte("backup"), 0o755); err != nil {
		t.Fatal(err)
	}
	neighbors := map[string]string{
		dst + ".tmp": "user notes",
		dst + ".new": "another build",
	}
	for p, d := range neighbors {
		if err := os.WriteFile(p, []byte(d), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := CopyFile(dst, src); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	for p, want := range neighbors {
		got, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("%s: %v", filepath.Base(p), err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", filepath.Base(p), got, want)
		}
	}
}

func TestLock(t *testing.T) {
	p := filepath.Join(t.TempDir(), "target")
	unlock, err := Lock(p)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := Lock(p); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Lock() error = %v, want ErrLocked", err)
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock() error = %v", err)
	}
	if _, err := os.Stat(LockPath(p)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("lock file left behind: %v", err)
	}
	unlock, err = Lock(p)
	if err != nil {
		t.Fatalf("Lock() after unlock error = %v", err)
	}
	if err := unlock(); err != nil {
		t.Fatal(err)
	}
}
