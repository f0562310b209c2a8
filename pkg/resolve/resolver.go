// Package resolve turns domain names into IPv4 addresses, either through the
// system resolver or by querying a given DNS server.
package resolve

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

const (
	DefaultTimeout   = 5 * time.Second
	DefaultCacheSize = 256
)

type Options struct {
	// Server is a DNS server ("1.1.1.1" or "1.1.1.1:53"). Empty means the
	// system resolver.
	Server    string
	Timeout   time.Duration
	CacheSize int
}

// lookupFunc has the shape of net.Resolver.LookupIP.
type lookupFunc func(ctx context.Context, network, host string) ([]net.IP, error)

type Resolver struct {
	timeout time.Duration
	lookup  lookupFunc
	cache   *lru.Cache[string, net.IP]
}

func New(options Options) (*Resolver, error) {
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.CacheSize <= 0 {
		options.CacheSize = DefaultCacheSize
	}

	cache, err := lru.New[string, net.IP](options.CacheSize)
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		timeout: options.Timeout,
		cache:   cache,
	}
	if options.Server != "" {
		server, err := serverAddr(options.Server)
		if err != nil {
			return nil, err
		}
		r.lookup = newDNSClient(server, options.Timeout).LookupIP
	} else {
		r.lookup = net.DefaultResolver.LookupIP
	}
	return r, nil
}

// LookupIPv4 returns the first IPv4 address of name. Errors are
// *ResolutionError.
func (r *Resolver) LookupIPv4(ctx context.Context, name string) (net.IP, error) {
	if ip := net.ParseIP(name); ip != nil && ip.To4() != nil && !strings.Contains(name, ":") {
		return ip.To4(), nil
	}

	host, err := normalize(name)
	if err != nil {
		return nil, &ResolutionError{Name: name, Err: err}
	}
	if ip, ok := r.cache.Get(host); ok {
		return ip, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ips, err := r.lookup(ctx, "ip4", host)
	if ip := firstIPv4(ips); err == nil && ip != nil {
		r.cache.Add(host, ip)
		return ip, nil
	}

	// tell a missing name apart from an IPv6-only one
	if ips6, err6 := r.lookup(ctx, "ip6", host); err6 == nil && len(ips6) > 0 {
		return nil, &ResolutionError{Name: name, Err: ErrIPv6Only}
	}
	if err != nil && !isNotFound(err) {
		return nil, &ResolutionError{Name: name, Err: err}
	}
	return nil, &ResolutionError{Name: name, Err: ErrNotFound}
}

func normalize(name string) (string, error) {
	host := strings.TrimSuffix(strings.TrimSpace(name), ".")
	if host == "" {
		return "", ErrInvalidName
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", errors.Wrap(ErrInvalidName, err.Error())
	}
	if !govalidator.IsDNSName(ascii) {
		return "", ErrInvalidName
	}
	return strings.ToLower(ascii), nil
}

func firstIPv4(ips []net.IP) net.IP {
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4
		}
	}
	return nil
}

func isNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}
	return false
}

func serverAddr(server string) (string, error) {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server, nil
	}
	if net.ParseIP(server) == nil && !govalidator.IsDNSName(server) {
		return "", errors.Errorf("invalid resolver address %q", server)
	}
	return net.JoinHostPort(server, "53"), nil
}
