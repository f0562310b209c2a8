package resolve

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidName = errors.New("invalid domain name")
	ErrNotFound    = errors.New("no such host")
	ErrIPv6Only    = errors.New("no IPv4 address found, only IPv6 addresses are available")
)

// ResolutionError reports a name that could not be resolved to IPv4.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve domain %q: %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
