package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/signadot/binpatch/patch"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
)

func binpatchMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		logLevel.Set(slog.LevelDebug)
	}
	sub := cfg.Main.FindSub(cc, "toggle")
	if len(args) != 0 {
		if s := cfg.Main.FindSub(cc, args[0]); s != nil {
			sub, args = s, args[1:]
		}
	}
	err = sub.Run(cc, args)
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	if err != nil {
		theLog.Error(err.Error())
		return cli.ExitCodeErr(1)
	}
	return nil
}

type actionFunc func(*patch.Patcher, string) (patch.Action, error)

type actionReport struct {
	File    string       `json:"file" yaml:"file"`
	Profile string       `json:"profile" yaml:"profile"`
	Action  patch.Action `json:"action" yaml:"action"`

	color bool
}

func (r *actionReport) WriteText(w io.Writer) error {
	act := r.Action.String()
	if r.color {
		switch r.Action {
		case patch.ActionApplied:
			act = color.GreenString(act)
		case patch.ActionReverted:
			act = color.YellowString(act)
		case patch.ActionSkipped:
			act = color.HiBlackString(act)
		}
	}
	_, err := fmt.Fprintf(w, "%s: %s (profile %s)\n", r.File, act, r.Profile)
	return err
}

func action(cfg *ActionConfig, cc *cli.Context, args []string, op actionFunc) error {
	args, err := cfg.Cmd.Parse(cc, args)
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
	p := cfg.patcher(cc.Out, prof)
	useColor := cfg.useColor(cc.Out)
	for _, path := range paths {
		act, err := op(p, path)
		if err != nil {
			return fmt.Errorf("%s %s: %w", cfg.name, path, err)
		}
		r := &actionReport{File: path, Profile: prof.Name(), Action: act, color: useColor}
		if err := cfg.outFormat().Encode(cc.Out, r); err != nil {
			return err
		}
	}
	return nil
}
