package iprange

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnrecognizedFormat = errors.New("unrecognized format")
	ErrInvalidAddress     = errors.New("invalid IPv4 address")
	ErrInvalidPrefix      = errors.New("invalid prefix length")
	ErrStartExceedsEnd    = errors.New("start exceeds end")
)

// ParseError reports a range specification that could not be parsed.
// Token is the offending substring when one can be singled out.
type ParseError struct {
	Input string
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Token != "" && e.Token != e.Input {
		return fmt.Sprintf("invalid range %q: %v: %q", e.Input, e.Err, e.Token)
	}
	return fmt.Sprintf("invalid range %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(input, token string, err error) *ParseError {
	return &ParseError{Input: input, Token: token, Err: err}
}
