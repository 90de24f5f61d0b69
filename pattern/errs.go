package pattern

import "errors"

var (
	ErrBadPattern      = errors.New("bad pattern")
	ErrPatternNotFound = errors.New("pattern not found")
)
