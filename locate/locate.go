// Package locate finds the file a profile names.
package locate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("file not found")

// Locator looks for file names in Dirs, in order.
type Locator struct {
	Dirs []string
}

// Default returns a Locator over the working directory and then the
// directory of the running executable.
func Default() (*Locator, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	l := &Locator{Dirs: []string{wd}}
	exe, err := os.Executable()
	if err != nil {
		return l, nil
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	if dir := filepath.Dir(exe); dir != wd {
		l.Dirs = append(l.Dirs, dir)
	}
	return l, nil
}

// Find returns the path of the first regular file called name. A name
// with a directory component is only checked as given.
func (l *Locator) Find(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: no file name given", ErrNotFound)
	}
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		ok, err := isRegular(name)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return name, nil
	}
	for _, dir := range l.Dirs {
		p := filepath.Join(dir, name)
		ok, err := isRegular(p)
		if err != nil {
			return "", err
		}
		if ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNotFound, name, strings.Join(l.Dirs, ", "))
}

func isRegular(p string) (bool, error) {
	fi, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}
