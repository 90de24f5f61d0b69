package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/signadot/binpatch/fsutil"
	"github.com/signadot/binpatch/pattern"
	"github.com/signadot/binpatch/profile"
	"github.com/signadot/binpatch/search"

	"github.com/scott-cotton/cli"
)

type findReport struct {
	File    string  `json:"file" yaml:"file"`
	Pattern []int64 `json:"pattern" yaml:"pattern"`
	Target  []int64 `json:"target" yaml:"target"`
	Marker  []int64 `json:"marker" yaml:"marker"`
}

func (r *findReport) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s:\n  pattern %s\n  target  %s\n  marker  %s\n",
		r.File, offsets(r.Pattern), offsets(r.Target), offsets(r.Marker))
	return err
}

func offsets(offs []int64) string {
	if len(offs) == 0 {
		return "-"
	}
	parts := make([]string, len(offs))
	for i, off := range offs {
		parts[i] = fmt.Sprintf("%#x", off)
	}
	return strings.Join(parts, " ")
}

type findReports []*findReport

func (rs findReports) WriteText(w io.Writer) error {
	for _, r := range rs {
		if err := r.WriteText(w); err != nil {
			return err
		}
	}
	return nil
}

func find(cfg *FindConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Find.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Limit < 0 {
		return fmt.Errorf("%w: -limit must not be negative", cli.ErrUsage)
	}
	prof, err := cfg.loadProfile()
	if err != nil {
		return err
	}
	paths, err := cfg.targets(args, prof)
	if err != nil {
		return err
	}
	var reports findReports
	for _, path := range paths {
		r, err := findInFile(prof, path, cfg.Limit)
		if err != nil {
			return err
		}
		reports = append(reports, r)
	}
	return cfg.outFormat().Encode(cc.Out, reports)
}

func findInFile(prof *profile.Profile, path string, limit int) (*findReport, error) {
	r := &findReport{File: path}
	var err error
	if r.Pattern, err = findAllInFile(path, prof.Pattern(), limit); err != nil {
		return nil, err
	}
	r.Target = make([]int64, len(r.Pattern))
	for i, pos := range r.Pattern {
		r.Target[i] = pos + int64(prof.TargetOffset())
	}
	if r.Marker, err = findAllInFile(path, prof.Marker(), limit); err != nil {
		return nil, err
	}
	return r, nil
}

func findAllInFile(path string, p pattern.Pattern, limit int) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fsutil.IOErr("open", err)
	}
	defer f.Close()
	return search.FindAll(f, p, limit)
}
