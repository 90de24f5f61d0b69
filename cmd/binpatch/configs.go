package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/signadot/binpatch/backup"
	"github.com/signadot/binpatch/format"
	"github.com/signadot/binpatch/locate"
	"github.com/signadot/binpatch/patch"
	"github.com/signadot/binpatch/preview"
	"github.com/signadot/binpatch/profile"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"github.com/xyproto/env/v2"
)

const (
	defaultConfig = "binpatch.yaml"
	adHocName     = "ad-hoc"
)

type MainConfig struct {
	Config   string `cli:"name=c aliases=config desc='profile file (default $BINPATCH_CONFIG or binpatch.yaml)'"`
	Profile  string `cli:"name=p aliases=profile desc='name of the profile to use'"`
	Backup   string `cli:"name=backup desc='directory for backups (default beside the file)'"`
	Verbose  bool   `cli:"name=v desc='log debug messages'"`
	Color    bool   `cli:"name=color desc='color previews and reports'"`
	DryRun   bool   `cli:"name=n aliases=dryrun desc='show changes without making them'"`
	NoLock   bool   `cli:"name=nolock desc='do not take the advisory lock on targets'"`
	Rebackup bool   `cli:"name=rebackup desc='replace an existing backup that differs from the file'"`

	Pattern     string `cli:"name=pattern desc='ad-hoc pattern, hex bytes with ?? wildcards'"`
	Mask        string `cli:"name=mask desc='ad-hoc pattern mask of x and ?'"`
	Target      string `cli:"name=target desc='ad-hoc target word, hex bytes'"`
	Replacement string `cli:"name=replacement desc='ad-hoc replacement, hex bytes'"`
	Marker      string `cli:"name=marker desc='ad-hoc patched marker, hex bytes'"`

	OutFormat *format.Format

	Main *cli.Command
}

func (cfg *MainConfig) fmtFunc(fps ...**format.Format) cli.FuncOpt {
	return cli.FuncOpt(func(_ *cli.Context, v string) (any, error) {
		f, err := format.ParseFormat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		for _, fp := range fps {
			*fp = &f
		}
		return f, nil
	})
}

func (cfg *MainConfig) outFormat() format.Format {
	if cfg.OutFormat == nil {
		return format.TextFormat
	}
	return *cfg.OutFormat
}

// adHoc reports whether any ad-hoc flag is set. A partial set still
// selects the ad-hoc profile so that Compile reports what is missing.
func (cfg *MainConfig) adHoc() bool {
	return cfg.Pattern != "" || cfg.Mask != "" || cfg.Target != "" || cfg.Replacement != "" || cfg.Marker != ""
}

// configPath returns the profile file to read. A default name that is
// not in the working directory is looked up next to the executable.
func (cfg *MainConfig) configPath() (string, error) {
	if cfg.Config != "" {
		return cfg.Config, nil
	}
	name := env.Str("BINPATCH_CONFIG", defaultConfig)
	if filepath.IsAbs(name) {
		return name, nil
	}
	loc, err := locate.Default()
	if err != nil {
		return "", err
	}
	return loc.Find(name)
}

func (cfg *MainConfig) profileFile() (*profile.File, error) {
	p, err := cfg.configPath()
	if err != nil {
		return nil, err
	}
	theLog.Debug("reading profiles", "config", p)
	return profile.ReadFile(p)
}

func (cfg *MainConfig) profileSpec() (profile.Spec, error) {
	if cfg.adHoc() {
		return profile.Spec{
			Name:        adHocName,
			Pattern:     cfg.Pattern,
			Mask:        cfg.Mask,
			Target:      cfg.Target,
			Replacement: cfg.Replacement,
			Marker:      cfg.Marker,
		}, nil
	}
	f, err := cfg.profileFile()
	if err != nil {
		return profile.Spec{}, err
	}
	return f.Select(cfg.Profile)
}

// loadProfile selects the profile, applies $BINPATCH_PROFILE_PATCH and
// validates the result.
func (cfg *MainConfig) loadProfile() (*profile.Profile, error) {
	s, err := cfg.profileSpec()
	if err != nil {
		return nil, err
	}
	if overlay := env.Str("BINPATCH_PROFILE_PATCH"); overlay != "" {
		theLog.Debug("overlaying profile", "profile", s.Name, "patch", overlay)
		s, err = s.Overlay([]byte(overlay))
		if err != nil {
			return nil, err
		}
	}
	return profile.Compile(s)
}

// targets returns the files to work on: args if given, otherwise the
// file named by prof.
func (cfg *MainConfig) targets(args []string, prof *profile.Profile) ([]string, error) {
	if len(args) != 0 {
		return args, nil
	}
	if prof.File() == "" {
		return nil, fmt.Errorf("%w: no file given and profile %q names none", cli.ErrUsage, prof.Name())
	}
	loc, err := locate.Default()
	if err != nil {
		return nil, err
	}
	p, err := loc.Find(prof.File())
	if err != nil {
		return nil, err
	}
	return []string{p}, nil
}

func (cfg *MainConfig) store() *backup.DirStore {
	s := backup.NewDirStore(cfg.Backup, theLog)
	s.Replace = cfg.Rebackup
	return s
}

func (cfg *MainConfig) patcher(w io.Writer, prof *profile.Profile) *patch.Patcher {
	opts := []patch.Option{
		patch.WithLogger(theLog),
		patch.WithLock(!cfg.NoLock),
	}
	if cfg.DryRun {
		opts = append(opts,
			patch.WithDryRun(w),
			patch.WithPreviewColors(cfg.colors(w)))
	}
	return patch.New(prof, cfg.store(), opts...)
}

func (cfg *MainConfig) useColor(w io.Writer) bool {
	if cfg.Color {
		color.NoColor = false
		return true
	}
	if cfg.Main != nil {
		for _, opt := range cfg.Main.Opts {
			if opt.Name != "color" {
				continue
			}
			if opt.Value != nil {
				return false
			}
			break
		}
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

func (cfg *MainConfig) colors(w io.Writer) *preview.Colors {
	if cfg.useColor(w) {
		return preview.NewColors()
	}
	return preview.Plain()
}

type ActionConfig struct {
	*MainConfig

	name string
	Cmd  *cli.Command
}

type StatusConfig struct {
	*MainConfig

	Status *cli.Command
}

type FindConfig struct {
	*MainConfig

	Limit int `cli:"name=limit desc='report at most this many matches per file (0 for all)'"`

	Find *cli.Command
}

type ProfilesConfig struct {
	*MainConfig

	Profiles *cli.Command
}
