package preview

import (
	"strings"

	"github.com/fatih/color"
)

type ColorAttr int

const (
	OffsetColor ColorAttr = iota
	HeaderColor
	DeleteColor
	InsertColor
	SpanColor
)

type Colors struct {
	Default func(string, ...any) string
	Map     map[ColorAttr]func(string, ...any) string
}

func NewColors() *Colors {
	colors := &Colors{
		Default: colorDefault,
		Map: map[ColorAttr]func(string, ...any) string{
			OffsetColor: color.RGB(96, 96, 96).SprintfFunc(),
			HeaderColor: color.New(color.Bold).SprintfFunc(),
			DeleteColor: color.RGB(196, 64, 64).SprintfFunc(),
			InsertColor: color.RGB(8, 196, 16).SprintfFunc(),
			SpanColor:   color.RGB(198, 198, 46).SprintfFunc(),
		},
	}
	for k, f := range colors.Map {
		colors.Map[k] = func(v string, _ ...any) string {
			return f(strings.Replace(v, "%", "%%", -1))
		}
	}
	return colors
}

// Plain returns Colors that leave text untouched.
func Plain() *Colors {
	return &Colors{Default: colorDefault}
}

func colorDefault(v string, _ ...any) string { return v }

func (c *Colors) Color(a ColorAttr, s string) string {
	return c.Get(a)(s)
}

func (c *Colors) Get(a ColorAttr) func(string, ...any) string {
	if c == nil {
		return colorDefault
	}
	f := c.Map[a]
	if f == nil {
		return c.Default
	}
	return f
}
