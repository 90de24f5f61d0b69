// Package debug holds binpatch's environment driven trace switches.
//
// Each switch is read once at startup:
//
//	BINPATCH_DEBUG_SEARCH   pattern scans and matches
//	BINPATCH_DEBUG_REWRITE  rewrite spans and copy sizes
//	BINPATCH_DEBUG_BACKUP   backup and restore copies
//	BINPATCH_DEBUG_PROFILE  profile loading, overlays and guards
//	BINPATCH_DEBUG          all of the above
package debug

import (
	"github.com/xyproto/env/v2"
)

type debug struct {
	Search  bool
	Rewrite bool
	Backup  bool
	Profile bool
}

var d *debug

func init() {
	Reload()
}

// Reload re-reads the switches from the environment.
func Reload() {
	all := env.Bool("BINPATCH_DEBUG")
	d = &debug{
		Search:  all || env.Bool("BINPATCH_DEBUG_SEARCH"),
		Rewrite: all || env.Bool("BINPATCH_DEBUG_REWRITE"),
		Backup:  all || env.Bool("BINPATCH_DEBUG_BACKUP"),
		Profile: all || env.Bool("BINPATCH_DEBUG_PROFILE"),
	}
}

func Search() bool {
	return d.Search
}
func Rewrite() bool {
	return d.Rewrite
}
func Backup() bool {
	return d.Backup
}
func Profile() bool {
	return d.Profile
}
