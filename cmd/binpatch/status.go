package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/signadot/binpatch/backup"
	"github.com/signadot/binpatch/patch"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
)

type statusReport struct {
	File      string      `json:"file" yaml:"file"`
	Profile   string      `json:"profile" yaml:"profile"`
	State     patch.State `json:"state" yaml:"state"`
	Patchable bool        `json:"patchable" yaml:"patchable"`
	Span      string      `json:"span,omitempty" yaml:"span,omitempty"`
	Backup    string      `json:"backup,omitempty" yaml:"backup,omitempty"`

	color bool
}

func (r *statusReport) WriteText(w io.Writer) error {
	state := r.State.String()
	var notes []string
	switch {
	case r.State == patch.Patched:
		if r.color {
			state = color.GreenString(state)
		}
	case r.Patchable:
		notes = append(notes, "target at "+r.Span)
		if r.color {
			state = color.YellowString(state)
		}
	default:
		notes = append(notes, "pattern not found")
		if r.color {
			state = color.RedString(state)
		}
	}
	if r.Backup != "" {
		notes = append(notes, "backup "+r.Backup)
	} else {
		notes = append(notes, "no backup")
	}
	_, err := fmt.Fprintf(w, "%s: %s (%s), %s\n", r.File, state, r.Profile, strings.Join(notes, ", "))
	return err
}

type statusReports []*statusReport

func (rs statusReports) WriteText(w io.Writer) error {
	for _, r := range rs {
		if err := r.WriteText(w); err != nil {
			return err
		}
	}
	return nil
}

func status(cfg *StatusConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Status.Parse(cc, args)
	if err != nil {
		return err
	}
	prof, err := cfg.loadProfile()
	if err != nil {
		return err
	}
	paths, err := cfg.targets(args, prof)
	if err != nil {
		return err
	}
	store := cfg.store()
	p := patch.New(prof, store, patch.WithLogger(theLog))
	useColor := cfg.useColor(cc.Out)
	var reports statusReports
	for _, path := range paths {
		r, err := fileStatus(p, store, path)
		if err != nil {
			return err
		}
		r.color = useColor
		reports = append(reports, r)
	}
	return cfg.outFormat().Encode(cc.Out, reports)
}

func fileStatus(p *patch.Patcher, store *backup.DirStore, path string) (*statusReport, error) {
	prof := p.Profile()
	r := &statusReport{File: path, Profile: prof.Name()}
	st, err := p.State(path)
	if err != nil {
		return nil, err
	}
	r.State = st
	if st == patch.Original {
		span, err := p.Locate(path)
		switch {
		case err == nil:
			r.Patchable = true
			r.Span = span.String()
		case !errors.Is(err, patch.ErrPatternNotFound):
			return nil, err
		}
	}
	ok, err := store.Has(path)
	if err != nil {
		return nil, err
	}
	if ok {
		if r.Backup, err = store.PathFor(path); err != nil {
			return nil, err
		}
	}
	return r, nil
}
