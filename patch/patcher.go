// Package patch applies and reverts a profile's rewrite on a file.
//
// A file is either original, holding the profile's pattern, or patched,
// holding its marker. Toggle detects which and performs the one
// transition that leads to the other state. Applying backs the file up,
// builds the rewritten file beside it and swaps it in, so the target is
// never modified in place. Reverting restores the backup.
package patch

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/signadot/binpatch/backup"
	"github.com/signadot/binpatch/fsutil"
	"github.com/signadot/binpatch/pattern"
	"github.com/signadot/binpatch/preview"
	"github.com/signadot/binpatch/profile"
	"github.com/signadot/binpatch/rewrite"
	"github.com/signadot/binpatch/search"
)

var (
	ErrAlreadyPatched  = errors.New("already patched")
	ErrNotPatched      = errors.New("not patched")
	ErrPatternNotFound = pattern.ErrPatternNotFound
)

// Action is the transition a Patcher performed.
type Action int

const (
	ActionNone Action = iota
	ActionApplied
	ActionReverted
	ActionPreviewed
	ActionSkipped
)

func (a Action) String() string {
	d, err := a.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (a Action) MarshalText() ([]byte, error) {
	switch a {
	case ActionNone:
		return []byte("none"), nil
	case ActionApplied:
		return []byte("applied"), nil
	case ActionReverted:
		return []byte("reverted"), nil
	case ActionPreviewed:
		return []byte("previewed"), nil
	case ActionSkipped:
		return []byte("skipped"), nil
	default:
		return nil, fmt.Errorf("<err: %d is not an action>", int(a))
	}
}

type Option func(*Patcher)

func WithLogger(l *slog.Logger) Option {
	return func(p *Patcher) { p.logger = l }
}

// WithMakeExecutable replaces fsutil.MakeExecutable as the step run on a
// file after it was patched or restored.
func WithMakeExecutable(f func(string) error) Option {
	return func(p *Patcher) { p.makeExec = f }
}

// WithDryRun makes the Patcher write a preview of each change to w
// instead of making it. Nothing on disk is touched.
func WithDryRun(w io.Writer) Option {
	return func(p *Patcher) { p.dryRun = w }
}

func WithPreviewColors(c *preview.Colors) Option {
	return func(p *Patcher) { p.colors = c }
}

// WithLock sets whether operations hold the advisory lock of the target.
// The default is true.
func WithLock(v bool) Option {
	return func(p *Patcher) { p.lock = v }
}

type Patcher struct {
	prof     *profile.Profile
	store    backup.Store
	logger   *slog.Logger
	makeExec func(string) error
	dryRun   io.Writer
	colors   *preview.Colors
	lock     bool

	rewriteFile func(src, dst string, span rewrite.Span, repl []byte) (int64, error)
	swap        func(scratch, target string) error
}

func New(prof *profile.Profile, store backup.Store, opts ...Option) *Patcher {
	p := &Patcher{
		prof:     prof,
		store:    store,
		logger:   slog.New(slog.DiscardHandler),
		makeExec: fsutil.MakeExecutable,
		colors:   preview.Plain(),
		lock:     true,

		rewriteFile: rewrite.RewriteFile,
		swap:        fsutil.Swap,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Patcher) Profile() *profile.Profile { return p.prof }

// State reports whether path is original or patched.
func (p *Patcher) State(path string) (State, error) {
	patched, err := IsPatched(path, p.prof.Marker())
	if err != nil {
		return Original, err
	}
	if patched {
		return Patched, nil
	}
	return Original, nil
}

// Toggle patches an original file and reverts a patched one. A file
// the profile's guard rejects is skipped.
func (p *Patcher) Toggle(path string) (Action, error) {
	return p.locked(path, func() (Action, error) {
		ok, err := p.enabled(path)
		if err != nil {
			return ActionNone, err
		}
		if !ok {
			return ActionSkipped, nil
		}
		st, err := p.State(path)
		if err != nil {
			return ActionNone, err
		}
		p.logger.Debug("toggle", "file", path, "state", st)
		if st == Patched {
			return p.revert(path)
		}
		return p.apply(path)
	})
}

// Apply patches path, which must not already be patched.
func (p *Patcher) Apply(path string) (Action, error) {
	return p.locked(path, func() (Action, error) {
		ok, err := p.enabled(path)
		if err != nil {
			return ActionNone, err
		}
		if !ok {
			return ActionSkipped, nil
		}
		st, err := p.State(path)
		if err != nil {
			return ActionNone, err
		}
		if st == Patched {
			return ActionNone, fmt.Errorf("%w: %s", ErrAlreadyPatched, path)
		}
		return p.apply(path)
	})
}

// Revert restores path from its backup. path must be patched.
func (p *Patcher) Revert(path string) (Action, error) {
	return p.locked(path, func() (Action, error) {
		st, err := p.State(path)
		if err != nil {
			return ActionNone, err
		}
		if st != Patched {
			return ActionNone, fmt.Errorf("%w: %s", ErrNotPatched, path)
		}
		return p.revert(path)
	})
}

// Locate finds the span of the target word in path.
func (p *Patcher) Locate(path string) (rewrite.Span, error) {
	res, err := search.FindPatternInFile(path, p.prof.Pattern())
	if err != nil {
		return rewrite.Span{}, err
	}
	if !res.Found {
		return rewrite.Span{}, fmt.Errorf("%w: %s in %s", ErrPatternNotFound, p.prof.Pattern(), path)
	}
	res = res.Shift(int64(p.prof.TargetOffset()))
	return rewrite.Span{Start: res.Position, Len: int64(len(p.prof.TargetWord()))}, nil
}

func (p *Patcher) apply(path string) (Action, error) {
	span, err := p.Locate(path)
	if err != nil {
		return ActionNone, err
	}
	repl := p.prof.Replacement()
	if p.dryRun != nil {
		pv, err := preview.BuildFile(path, span, repl, preview.DefaultContext)
		if err != nil {
			return ActionNone, err
		}
		if err := pv.Render(p.dryRun, p.colors); err != nil {
			return ActionNone, err
		}
		return ActionPreviewed, nil
	}
	if err := p.store.Backup(path); err != nil {
		return ActionNone, kindErr(backup.ErrBackup, err)
	}
	scratch := fsutil.ScratchPath(path)
	if err := os.Remove(scratch); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ActionNone, fsutil.IOErr("remove stale scratch", err)
	}
	// from here on only scratch is written until the swap
	n, err := p.rewriteFile(path, scratch, span, repl)
	if err != nil {
		os.Remove(scratch)
		return ActionNone, err
	}
	if err := p.swap(scratch, path); err != nil {
		os.Remove(scratch)
		return ActionNone, err
	}
	p.logger.Info("applied", "file", path, "profile", p.prof.Name(), "span", span, "size", n)
	if err := p.makeExec(path); err != nil {
		return ActionApplied, fmt.Errorf("%s: make executable: %w", path, err)
	}
	return ActionApplied, nil
}

func (p *Patcher) revert(path string) (Action, error) {
	if p.dryRun != nil {
		_, err := fmt.Fprintf(p.dryRun, "%s: would restore from backup\n", path)
		if err != nil {
			return ActionNone, err
		}
		return ActionPreviewed, nil
	}
	if err := p.store.Restore(path); err != nil {
		return ActionNone, kindErr(backup.ErrRestore, err)
	}
	p.logger.Info("reverted", "file", path, "profile", p.prof.Name())
	if err := p.makeExec(path); err != nil {
		return ActionReverted, fmt.Errorf("%s: make executable: %w", path, err)
	}
	return ActionReverted, nil
}

func (p *Patcher) enabled(path string) (bool, error) {
	if !p.prof.HasGuard() {
		return true, nil
	}
	facts, err := profile.FactsFor(path)
	if err != nil {
		return false, fsutil.IOErr("stat", err)
	}
	ok, err := p.prof.Enabled(facts)
	if err != nil {
		return false, err
	}
	if !ok {
		p.logger.Info("skipped", "file", path, "profile", p.prof.Name(), "if", p.prof.Spec().If)
	}
	return ok, nil
}

func (p *Patcher) locked(path string, fn func() (Action, error)) (Action, error) {
	if !p.lock || p.dryRun != nil {
		return fn()
	}
	unlock, err := fsutil.Lock(path)
	if err != nil {
		return ActionNone, fmt.Errorf("%s: %w", path, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			p.logger.Warn("unlock", "file", path, "error", err)
		}
	}()
	return fn()
}

func kindErr(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
