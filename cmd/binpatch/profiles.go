package main

import (
	"fmt"
	"io"

	"github.com/signadot/binpatch/profile"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
)

type profileReport struct {
	Name        string `json:"name" yaml:"name"`
	File        string `json:"file,omitempty" yaml:"file,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`

	color bool
}

type profileReports []*profileReport

func (rs profileReports) WriteText(w io.Writer) error {
	for _, r := range rs {
		name := r.Name
		if r.color {
			if r.Error != "" {
				name = color.RedString(name)
			} else {
				name = color.CyanString(name)
			}
		}
		line := fmt.Sprintf("%-16s %-16s %s\n", name, r.File, r.Description)
		if r.Error != "" {
			line = fmt.Sprintf("%-16s invalid: %s\n", name, r.Error)
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

func profiles(cfg *ProfilesConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Profiles.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: profiles takes no arguments", cli.ErrUsage)
	}
	f, err := cfg.profileFile()
	if err != nil {
		return err
	}
	return cfg.outFormat().Encode(cc.Out, checkProfiles(f, cfg.useColor(cc.Out)))
}

func checkProfiles(f *profile.File, useColor bool) profileReports {
	var res profileReports
	for _, s := range f.Profiles {
		r := &profileReport{Name: s.Name, File: s.File, Description: s.Description, color: useColor}
		if _, err := profile.Compile(s); err != nil {
			r.Error = err.Error()
		}
		res = append(res, r)
	}
	return res
}
