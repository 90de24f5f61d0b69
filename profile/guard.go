package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/signadot/binpatch/debug"
)

// Facts describe a target file to an "if" guard.
type Facts struct {
	Name string
	Path string
	Size int64
	Mode string
	Env  map[string]string
}

// FactsFor stats path and collects its facts along with the process
// environment.
func FactsFor(path string) (Facts, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Facts{}, err
	}
	env := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		env[k] = v
	}
	return Facts{
		Name: filepath.Base(path),
		Path: path,
		Size: fi.Size(),
		Mode: fi.Mode().String(),
		Env:  env,
	}, nil
}

func (f Facts) exprEnv() map[string]any {
	env := f.Env
	if env == nil {
		env = map[string]string{}
	}
	return map[string]any{
		"name": f.Name,
		"path": f.Path,
		"size": f.Size,
		"mode": f.Mode,
		"env":  env,
	}
}

type guard struct {
	src     string
	program *vm.Program
}

func compileGuard(src string) (*guard, error) {
	program, err := expr.Compile(src, expr.Env(Facts{}.exprEnv()), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &guard{src: src, program: program}, nil
}

// Enabled evaluates the profile's guard against f. A profile without a
// guard is always enabled.
func (p *Profile) Enabled(f Facts) (bool, error) {
	if p.guard == nil {
		return true, nil
	}
	out, err := vm.Run(p.guard.program, f.exprEnv())
	if err != nil {
		return false, fmt.Errorf("%w: %s: if %q: %w", ErrProfile, p.Name(), p.guard.src, err)
	}
	ok, _ := out.(bool)
	if debug.Profile() {
		debug.Logf("guard %q on %s gave %v\n", p.guard.src, f.Path, ok)
	}
	return ok, nil
}
