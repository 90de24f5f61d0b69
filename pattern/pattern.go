package pattern

import (
	"encoding/hex"
	"fmt"
	"strings"
)

type kind uint8

const (
	literal kind = iota
	masked
	hole
)

type Pattern struct {
	bytes []byte
	kinds []kind
}

// Literal returns a pattern matching b exactly.
func Literal(b []byte) Pattern {
	return Pattern{
		bytes: append([]byte(nil), b...),
		kinds: make([]kind, len(b)),
	}
}

// Parse parses whitespace separated hex with "??" or "?" holes.
func Parse(s string) (Pattern, error) {
	var p Pattern
	for _, field := range strings.Fields(s) {
		field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
		if field == "?" {
			p.bytes = append(p.bytes, 0)
			p.kinds = append(p.kinds, hole)
			continue
		}
		if len(field)%2 != 0 {
			return Pattern{}, fmt.Errorf("%w: odd length hex %q", ErrBadPattern, field)
		}
		for i := 0; i < len(field); i += 2 {
			pair := field[i : i+2]
			if pair == "??" {
				p.bytes = append(p.bytes, 0)
				p.kinds = append(p.kinds, hole)
				continue
			}
			b, err := hex.DecodeString(pair)
			if err != nil {
				return Pattern{}, fmt.Errorf("%w: %q: %w", ErrBadPattern, pair, err)
			}
			p.bytes = append(p.bytes, b[0])
			p.kinds = append(p.kinds, literal)
		}
	}
	if len(p.bytes) == 0 {
		return Pattern{}, fmt.Errorf("%w: empty", ErrBadPattern)
	}
	return p, nil
}

// ParseMasked parses s as Parse does and then applies mask, one
// character per byte: 'x' must match, '?' is a wildcard. Holes in s
// must be masked with '?'.
func ParseMasked(s, mask string) (Pattern, error) {
	p, err := Parse(s)
	if err != nil {
		return Pattern{}, err
	}
	if mask == "" {
		return p, nil
	}
	mask = strings.Join(strings.Fields(mask), "")
	if len(mask) != len(p.bytes) {
		return Pattern{}, fmt.Errorf("%w: mask has %d positions, pattern has %d bytes", ErrBadPattern, len(mask), len(p.bytes))
	}
	for i := range mask {
		switch mask[i] {
		case 'x', 'X':
			if p.kinds[i] == hole {
				return Pattern{}, fmt.Errorf("%w: byte %d is a hole but mask requires a match", ErrBadPattern, i)
			}
		case '?':
			if p.kinds[i] == literal {
				p.kinds[i] = masked
			}
		default:
			return Pattern{}, fmt.Errorf("%w: mask character %q at %d", ErrBadPattern, mask[i], i)
		}
	}
	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Pattern {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) Len() int { return len(p.bytes) }

func (p Pattern) IsZero() bool { return len(p.bytes) == 0 }

// Bytes returns a copy of the nominal bytes. Holes read as zero.
func (p Pattern) Bytes() []byte {
	return append([]byte(nil), p.bytes...)
}

// IsWild reports whether position i matches any byte.
func (p Pattern) IsWild(i int) bool { return p.kinds[i] != literal }

func (p Pattern) HasWildcards() bool {
	for _, k := range p.kinds {
		if k != literal {
			return true
		}
	}
	return false
}

// Match reports whether the first Len() bytes of b match p.
func (p Pattern) Match(b []byte) bool {
	if len(b) < len(p.bytes) {
		return false
	}
	for i, c := range p.bytes {
		if p.kinds[i] == literal && b[i] != c {
			return false
		}
	}
	return true
}

// Index returns the offset of target within the nominal bytes of p.
// Holes never compare equal. Index fails with ErrPatternNotFound if
// target does not occur.
func (p Pattern) Index(target []byte) (int, error) {
	return p.index(target, hole)
}

// LiteralIndex is like Index but only literal bytes compare equal, so a
// match is present in every input that p matches.
func (p Pattern) LiteralIndex(target []byte) (int, error) {
	return p.index(target, masked)
}

// index skips positions whose kind is at least wild.
func (p Pattern) index(target []byte, wild kind) (int, error) {
	if len(target) == 0 {
		return 0, fmt.Errorf("%w: empty target", ErrBadPattern)
	}
outer:
	for start := 0; start+len(target) <= len(p.bytes); start++ {
		for j, c := range target {
			if p.kinds[start+j] >= wild || p.bytes[start+j] != c {
				continue outer
			}
		}
		return start, nil
	}
	return 0, fmt.Errorf("%w: % X in %s", ErrPatternNotFound, target, p)
}

// Splice returns a copy of p with the n bytes at off replaced by the
// literal bytes repl.
func (p Pattern) Splice(off, n int, repl []byte) Pattern {
	size := len(p.bytes) - n + len(repl)
	q := Pattern{
		bytes: make([]byte, 0, size),
		kinds: make([]kind, 0, size),
	}
	q.bytes = append(q.bytes, p.bytes[:off]...)
	q.bytes = append(q.bytes, repl...)
	q.bytes = append(q.bytes, p.bytes[off+n:]...)
	q.kinds = append(q.kinds, p.kinds[:off]...)
	q.kinds = append(q.kinds, make([]kind, len(repl))...)
	q.kinds = append(q.kinds, p.kinds[off+n:]...)
	return q
}

// String renders p in the form accepted by Parse. Masked bytes show
// their nominal value; see Mask.
func (p Pattern) String() string {
	var sb strings.Builder
	for i, c := range p.bytes {
		if i != 0 {
			sb.WriteByte(' ')
		}
		if p.kinds[i] == hole {
			sb.WriteString("??")
			continue
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}

// Mask renders the match mask of p, 'x' for literal bytes and '?' for
// wildcards.
func (p Pattern) Mask() string {
	m := make([]byte, len(p.kinds))
	for i, k := range p.kinds {
		m[i] = 'x'
		if k != literal {
			m[i] = '?'
		}
	}
	return string(m)
}

func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pattern) UnmarshalText(d []byte) error {
	pp, err := Parse(string(d))
	if err != nil {
		return err
	}
	*p = pp
	return nil
}
