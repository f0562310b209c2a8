// Package iprange parses IPv4 range specifications and enumerates their
// usable host addresses.
//
// Two grammars are accepted: CIDR notation ("192.168.1.0/24") and an explicit
// start-end pair ("192.168.1.10 - 192.168.1.20"). The grammar is picked from
// the separator present in the input; a failure inside that grammar is final.
package iprange

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Spec is a parsed range specification.
type Spec struct {
	Input  string
	Kind   Kind
	Range  Range
	Prefix int // CIDR only
}

// Usable returns an iterator over the usable addresses of s.
func (s Spec) Usable() *Iterator {
	return Usable(s.Range, s.Kind)
}

// UsableRange returns the usable interval of s.
func (s Spec) UsableRange() Range {
	return UsableRange(s.Range, s.Kind)
}

func (s Spec) String() string {
	if s.Kind == KindCIDR {
		return Block{Network: s.Range.Start, Prefix: s.Prefix}.String()
	}
	return s.Range.String()
}

// Parse parses a CIDR block or a start-end pair. Errors are *ParseError.
func Parse(spec string) (Spec, error) {
	input := strings.TrimSpace(spec)
	switch {
	case strings.Contains(input, "/"):
		return parseCIDR(input)
	case strings.Contains(input, "-"):
		return parsePair(input)
	default:
		return Spec{}, newParseError(spec, "", ErrUnrecognizedFormat)
	}
}

// MustParse is like Parse but panics on error.
func MustParse(spec string) Spec {
	s, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// parseCIDR is non-strict: host bits are masked away.
func parseCIDR(input string) (Spec, error) {
	left, right, _ := strings.Cut(input, "/")
	if left == "" {
		return Spec{}, newParseError(input, "", missing(ErrInvalidAddress, "network address"))
	}
	if right == "" {
		return Spec{}, newParseError(input, "", missing(ErrInvalidPrefix, "prefix length"))
	}

	addr, err := ParseAddr(left)
	if err != nil {
		return Spec{}, newParseError(input, left, ErrInvalidAddress)
	}
	prefix, ok := parsePrefix(right)
	if !ok {
		return Spec{}, newParseError(input, right, ErrInvalidPrefix)
	}

	block := NewBlock(addr, prefix)
	return Spec{
		Input:  input,
		Kind:   KindCIDR,
		Range:  block.Range(),
		Prefix: prefix,
	}, nil
}

func parsePrefix(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > 32 {
		return 0, false
	}
	return n, true
}

func parsePair(input string) (Spec, error) {
	left, right, _ := strings.Cut(input, "-")
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if left == "" {
		return Spec{}, newParseError(input, "", missing(ErrInvalidAddress, "start address"))
	}
	if right == "" {
		return Spec{}, newParseError(input, "", missing(ErrInvalidAddress, "end address"))
	}

	start, err := ParseAddr(left)
	if err != nil {
		return Spec{}, newParseError(input, left, ErrInvalidAddress)
	}
	end, err := ParseAddr(right)
	if err != nil {
		return Spec{}, newParseError(input, right, ErrInvalidAddress)
	}
	if start > end {
		return Spec{}, newParseError(input, "", ErrStartExceedsEnd)
	}

	return Spec{
		Input: input,
		Kind:  KindPair,
		Range: Range{Start: start, End: end},
	}, nil
}

// missing marks an empty side of a spec, which has no token to quote.
func missing(err error, what string) error {
	return errors.Wrap(err, "missing "+what)
}
