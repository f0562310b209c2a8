package scan

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/remeh/sizedwaitgroup"
	"github.com/zan8in/gologger"
	"github.com/zan8in/ipkit/pkg/port"
)

const (
	DefaultTimeout = 2 * time.Second
	DefaultRetries = 1
	DefaultThreads = 25

	retryDelay = 10 * time.Millisecond
)

type Options struct {
	Timeout time.Duration
	Retries int
	Threads int
}

// Checker tells whether TCP services answer on a host.
type Checker struct {
	timeout time.Duration
	retries int
	threads int
}

type Result struct {
	Host string
	Port *port.Port
	Open bool
}

func NewChecker(options Options) *Checker {
	c := &Checker{
		timeout: options.Timeout,
		retries: options.Retries,
		threads: options.Threads,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.retries <= 0 {
		c.retries = DefaultRetries
	}
	if c.threads <= 0 {
		c.threads = DefaultThreads
	}
	return c
}

// ConnectPort dials host:port up to the configured number of attempts.
func (c *Checker) ConnectPort(ctx context.Context, host string, p *port.Port) (bool, error) {
	hostport := net.JoinHostPort(host, strconv.Itoa(p.Port))
	dialer := net.Dialer{Timeout: c.timeout}

	var err error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		var conn net.Conn
		conn, err = dialer.DialContext(ctx, "tcp", hostport)
		if err == nil {
			conn.Close()
			return true, nil
		}
		gologger.Debug().Msgf("connect %s: %s\n", hostport, err)
	}
	return false, err
}

// Check probes every port concurrently. Results follow the order of ports.
func (c *Checker) Check(ctx context.Context, host string, ports []*port.Port) []Result {
	results := make([]Result, len(ports))
	swg := sizedwaitgroup.New(c.threads)

	for i, p := range ports {
		swg.Add()
		go func(i int, p *port.Port) {
			defer swg.Done()
			open, _ := c.ConnectPort(ctx, host, p)
			results[i] = Result{Host: host, Port: p, Open: open}
		}(i, p)
	}
	swg.Wait()

	return results
}
