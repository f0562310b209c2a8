package iprange

import (
	"encoding/binary"
	"net"
	"strings"

	"github.com/pkg/errors"
)

// Addr is an IPv4 address held as its 32-bit integer value.
type Addr uint32

const (
	MinAddr Addr = 0
	MaxAddr Addr = 0xffffffff
)

// ParseAddr parses a dotted-quad IPv4 address. IPv6 forms, including
// IPv4-mapped ones, are rejected.
func ParseAddr(s string) (Addr, error) {
	if s == "" || strings.IndexByte(s, ':') >= 0 {
		return 0, errors.Wrapf(ErrInvalidAddress, "%q", s)
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return 0, errors.Wrapf(ErrInvalidAddress, "%q", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, errors.Wrapf(ErrInvalidAddress, "%q", s)
	}
	return Addr(binary.BigEndian.Uint32(ip4)), nil
}

// MustAddr is like ParseAddr but panics on error.
func MustAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddrFromIP converts an IPv4 (or IPv4-mapped) net.IP.
func AddrFromIP(ip net.IP) (Addr, bool) {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, false
	}
	return Addr(binary.BigEndian.Uint32(ip4)), true
}

func (a Addr) IP() net.IP {
	return net.IPv4(byte(a>>24), byte(a>>16), byte(a>>8), byte(a)).To4()
}

func (a Addr) String() string {
	var buf [15]byte
	return string(a.appendTo(buf[:0]))
}

// AppendTo appends the dotted-quad form of a to b.
func (a Addr) AppendTo(b []byte) []byte {
	return a.appendTo(b)
}

func (a Addr) appendTo(b []byte) []byte {
	for i := 3; i >= 0; i-- {
		b = appendOctet(b, byte(a>>(uint(i)*8)))
		if i > 0 {
			b = append(b, '.')
		}
	}
	return b
}

func appendOctet(b []byte, o byte) []byte {
	switch {
	case o >= 100:
		return append(b, '0'+o/100, '0'+(o/10)%10, '0'+o%10)
	case o >= 10:
		return append(b, '0'+o/10, '0'+o%10)
	default:
		return append(b, '0'+o)
	}
}
