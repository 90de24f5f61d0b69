package main

import (
	"github.com/signadot/binpatch/patch"

	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "O",
		Aliases:     []string{"ofmt"},
		Description: "report format: text/t, json/j, yaml/y",
		Type:        cli.NamedFuncOpt(cfg.fmtFunc(&cfg.OutFormat), "(format)"),
	})

	return cli.NewCommandAt(&cfg.Main, "binpatch").
		WithSynopsis("binpatch [opts] [command] [opts] [files]").
		WithDescription(mainDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return binpatchMain(cfg, cc, args)
		}).
		WithSubs(
			ActionCommand(cfg, "toggle", "patch original files and revert patched ones", (*patch.Patcher).Toggle),
			ActionCommand(cfg, "apply", "patch original files", (*patch.Patcher).Apply),
			ActionCommand(cfg, "revert", "restore patched files from their backups", (*patch.Patcher).Revert),
			StatusCommand(cfg),
			FindCommand(cfg),
			ProfilesCommand(cfg))
}

const mainDescription = `binpatch reversibly rewrites a word inside binary files.

A profile names a byte pattern, a target word inside it, the replacement
for that word and a marker that only a patched file contains.  Profiles are
read from 'binpatch.yaml' in the working directory or next to the binpatch
executable, or from the file given with -c or $BINPATCH_CONFIG:

  profiles:
  - name: dht
    file: dht
    pattern: "48 8B ?? ?? 74 65 73 74 00"
    target: "74 65 73 74"
    replacement: "70 72 6F 64"
    marker: "70 72 6F 64 00"
    if: size > 1024

$BINPATCH_PROFILE_PATCH may hold a JSON merge patch, in JSON or YAML, that
is applied to the selected profile.  -pattern, -mask, -target, -replacement
and -marker describe a profile on the command line instead.

Without a command, binpatch toggles: files holding the marker are restored
from their backup and all others are patched.  Without files, the file the
profile names is looked up like the profile file.

A backup that differs from the file being patched is never replaced unless
-rebackup is given.`

func ActionCommand(mainCfg *MainConfig, name, desc string, op actionFunc) *cli.Command {
	cfg := &ActionConfig{MainConfig: mainCfg, name: name}
	return cli.NewCommandAt(&cfg.Cmd, name).
		WithSynopsis(name + " [files]").
		WithDescription(desc).
		WithRun(func(cc *cli.Context, args []string) error {
			return action(cfg, cc, args, op)
		})
}

func StatusCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &StatusConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Status, "status").
		WithAliases("st").
		WithSynopsis("status [files]").
		WithDescription("report whether files are original or patched").
		WithRun(func(cc *cli.Context, args []string) error {
			return status(cfg, cc, args)
		})
}

func FindCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FindConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Find, "find").
		WithAliases("f").
		WithSynopsis("find [-limit n] [files]").
		WithDescription("list the offsets of the pattern, target word and marker in files").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return find(cfg, cc, args)
		})
}

func ProfilesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ProfilesConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Profiles, "profiles").
		WithAliases("ls").
		WithSynopsis("profiles").
		WithDescription("list and validate the profiles of the profile file").
		WithRun(func(cc *cli.Context, args []string) error {
			return profiles(cfg, cc, args)
		})
}
