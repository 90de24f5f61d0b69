package fsutil

import (
	"errors"
	"fmt"
)

var (
	ErrIO     = errors.New("i/o failure")
	ErrLocked = errors.New("file is locked by another binpatch process")
)

// IOErr wraps err as an ErrIO failure of op. nil stays nil.
func IOErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
