package patch

import (
	"fmt"

	"github.com/signadot/binpatch/pattern"
	"github.com/signadot/binpatch/search"
)

// State is what a file looks like to a profile.
type State int

const (
	Original State = iota
	Patched
)

func (s State) String() string {
	d, err := s.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (s State) MarshalText() ([]byte, error) {
	switch s {
	case Original:
		return []byte("original"), nil
	case Patched:
		return []byte("patched"), nil
	default:
		return nil, fmt.Errorf("<err: %d is not a state>", int(s))
	}
}

// IsPatched reports whether the file at path contains marker. It only
// reads the file.
func IsPatched(path string, marker pattern.Pattern) (bool, error) {
	res, err := search.FindPatternInFile(path, marker)
	if err != nil {
		return false, err
	}
	return res.Found, nil
}
