package backup

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDirStoreRoundTrip(t *testing.T) {
	for _, name := range []string{"beside", "separate dir"} {
		t.Run(name, func(t *testing.T) {
			work := t.TempDir()
			var store *DirStore
			if name == "separate dir" {
				store = NewDirStore(filepath.Join(t.TempDir(), "backups"), nil)
			} else {
				store = NewDirStore("", nil)
			}
			p := filepath.Join(work, "dht")
			orig := []byte("pristine executable bytes")
			if err := os.WriteFile(p, orig, 0o755); err != nil {
				t.Fatal(err)
			}

			has, err := store.Has(p)
			if err != nil || has {
				t.Fatalf("Has() before backup = %v, %v", has, err)
			}
			if err := store.Backup(p); err != nil {
				t.Fatalf("Backup() error = %v", err)
			}
			has, err = store.Has(p)
			if err != nil || !has {
				t.Fatalf("Has() after backup = %v, %v", has, err)
			}

			if err := os.WriteFile(p, []byte("patched"), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := store.Restore(p); err != nil {
				t.Fatalf("Restore() error = %v", err)
			}
			got, err := os.ReadFile(p)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, orig) {
				t.Errorf("restored %q, want %q", got, orig)
			}
			// the backup survives a restore
			if has, _ := store.Has(p); !has {
				t.Error("backup removed by Restore")
			}
		})
	}
}

func TestDirStorePathFor(t *testing.T) {
	store := NewDirStore(t.TempDir(), nil)
	a, err := store.PathFor(filepath.Join("x", "dht"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.PathFor(filepath.Join("y", "dht"))
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("same backup path %q for files in different directories", a)
	}
	if filepath.Dir(a) != store.Dir {
		t.Errorf("backup %q not in %q", a, store.Dir)
	}
}

func TestRestoreWithoutBackup(t *testing.T) {
	p := filepath.Join(t.TempDir(), "dht")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewDirStore("", nil).Restore(p)
	if !errors.Is(err, ErrRestore) {
		t.Fatalf("Restore() error = %v, want ErrRestore", err)
	}
}

func TestBackupMissingFile(t *testing.T) {
	err := NewDirStore("", nil).Backup(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrBackup) {
		t.Fatalf("Backup() error = %v, want ErrBackup", err)
	}
}

func TestBackupKeepsDifferingCopy(t *testing.T) {
	work := t.TempDir()
	store := NewDirStore(t.TempDir(), nil)
	p := filepath.Join(work, "dht")
	pristine := []byte("pristine executable bytes")
	if err := os.WriteFile(p, pristine, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := store.Backup(p); err != nil {
		t.Fatal(err)
	}
	// an unchanged file backs up again
	if err := store.Backup(p); err != nil {
		t.Fatalf("Backup() of unchanged file error = %v", err)
	}
	bak, err := store.PathFor(p)
	if err != nil {
		t.Fatal(err)
	}

	changed := []byte("patched executable bytes")
	if err := os.WriteFile(p, changed, 0o755); err != nil {
		t.Fatal(err)
	}
	err = store.Backup(p)
	if !errors.Is(err, ErrBackup) || !errors.Is(err, ErrStale) {
		t.Fatalf("Backup() over differing copy error = %v, want ErrBackup and ErrStale", err)
	}
	got, err := os.ReadFile(bak)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, pristine) {
		t.Errorf("backup = %q, want %q", got, pristine)
	}

	store.Replace = true
	if err := store.Backup(p); err != nil {
		t.Fatalf("Backup() with Replace error = %v", err)
	}
	got, err = os.ReadFile(bak)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, changed) {
		t.Errorf("replaced backup = %q, want %q", got, changed)
	}
}
