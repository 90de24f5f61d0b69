package profile

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/signadot/binpatch/debug"
	"github.com/signadot/binpatch/pattern"
)

var ErrProfile = errors.New("bad profile")

// Spec is a profile as written in a profile file.
type Spec struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	File        string `yaml:"file,omitempty" json:"file,omitempty"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Mask        string `yaml:"mask,omitempty" json:"mask,omitempty"`
	Target      string `yaml:"target" json:"target"`
	Replacement string `yaml:"replacement" json:"replacement"`
	Marker      string `yaml:"marker" json:"marker"`
	If          string `yaml:"if,omitempty" json:"if,omitempty"`
}

// File is the top level of a profile file.
type File struct {
	Profiles []Spec `yaml:"profiles"`
}

// ReadFile reads the profile file at path.
func ReadFile(path string) (*File, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := ParseFile(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseFile parses the contents of a profile file. Unknown fields are
// rejected.
func ParseFile(d []byte) (*File, error) {
	f := &File{}
	if err := yaml.UnmarshalWithOptions(d, f, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfile, err)
	}
	if len(f.Profiles) == 0 {
		return nil, fmt.Errorf("%w: no profiles", ErrProfile)
	}
	seen := map[string]bool{}
	for i := range f.Profiles {
		name := f.Profiles[i].Name
		if name == "" {
			return nil, fmt.Errorf("%w: profile %d has no name", ErrProfile, i)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate profile %q", ErrProfile, name)
		}
		seen[name] = true
	}
	if debug.Profile() {
		debug.Logf("parsed %d profiles\n", len(f.Profiles))
	}
	return f, nil
}

// Select returns the profile called name. An empty name selects the
// only profile of a file holding exactly one.
func (f *File) Select(name string) (Spec, error) {
	if name == "" {
		if len(f.Profiles) == 1 {
			return f.Profiles[0], nil
		}
		return Spec{}, fmt.Errorf("%w: %d profiles, choose one by name", ErrProfile, len(f.Profiles))
	}
	for _, s := range f.Profiles {
		if s.Name == name {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: no profile %q", ErrProfile, name)
}

// Profile is a validated, immutable patch configuration.
type Profile struct {
	spec         Spec
	pattern      pattern.Pattern
	target       []byte
	targetOffset int
	replacement  []byte
	marker       pattern.Pattern
	guard        *guard
}

// Compile validates s. Besides checking that every byte field parses, it
// requires the target to occur in the pattern and the marker to occur in
// the patched pattern but not in the unpatched one, so that the two
// states of a file are always told apart.
func Compile(s Spec) (*Profile, error) {
	wrap := func(field string, err error) error {
		return fmt.Errorf("%w: %s: %s: %w", ErrProfile, s.Name, field, err)
	}
	p := &Profile{spec: s}
	var err error
	p.pattern, err = pattern.ParseMasked(s.Pattern, s.Mask)
	if err != nil {
		return nil, wrap("pattern", err)
	}
	if p.target, err = literal(s.Target); err != nil {
		return nil, wrap("target", err)
	}
	if p.replacement, err = literal(s.Replacement); err != nil {
		return nil, wrap("replacement", err)
	}
	marker, err := literal(s.Marker)
	if err != nil {
		return nil, wrap("marker", err)
	}
	p.marker = pattern.Literal(marker)
	if p.targetOffset, err = p.pattern.Index(p.target); err != nil {
		return nil, wrap("target", err)
	}
	if off, err := p.pattern.Index(marker); err == nil {
		return nil, wrap("marker", fmt.Errorf("occurs in the unpatched pattern at %d", off))
	}
	patched := p.pattern.Splice(p.targetOffset, len(p.target), p.replacement)
	if _, err := patched.LiteralIndex(marker); err != nil {
		return nil, wrap("marker", fmt.Errorf("not produced by the replacement: %w", err))
	}
	if s.If != "" {
		if p.guard, err = compileGuard(s.If); err != nil {
			return nil, wrap("if", err)
		}
	}
	if debug.Profile() {
		debug.Logf("profile %s: pattern %s mask %s target at %d\n", s.Name, p.pattern, p.pattern.Mask(), p.targetOffset)
	}
	return p, nil
}

func literal(s string) ([]byte, error) {
	p, err := pattern.Parse(s)
	if err != nil {
		return nil, err
	}
	if p.HasWildcards() {
		return nil, fmt.Errorf("%w: wildcards not allowed", pattern.ErrBadPattern)
	}
	return p.Bytes(), nil
}

func (p *Profile) Name() string             { return p.spec.Name }
func (p *Profile) Description() string      { return p.spec.Description }
func (p *Profile) File() string             { return p.spec.File }
func (p *Profile) Pattern() pattern.Pattern { return p.pattern }
func (p *Profile) Marker() pattern.Pattern  { return p.marker }
func (p *Profile) TargetOffset() int        { return p.targetOffset }
func (p *Profile) TargetWord() []byte       { return append([]byte(nil), p.target...) }
func (p *Profile) Replacement() []byte      { return append([]byte(nil), p.replacement...) }
func (p *Profile) Spec() Spec               { return p.spec }
func (p *Profile) HasGuard() bool           { return p.guard != nil }
func (p *Profile) SizeDelta() int64         { return int64(len(p.replacement) - len(p.target)) }
