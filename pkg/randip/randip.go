// Package randip generates random IPv4 addresses.
package randip

import (
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zan8in/ipkit/pkg/iprange"
)

var ErrInvalidBounds = errors.New("minimum must be lower than maximum")

// Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a generator seeded with seed, or with the current time when
// seed is 0.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Addr returns an address whose four octets are independently uniform.
func (g *Generator) Addr() iprange.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return iprange.Addr(g.rnd.Uint32())
}

// Between returns an address uniform over [min, max].
func (g *Generator) Between(min, max iprange.Addr) (iprange.Addr, error) {
	if min >= max {
		return 0, errors.Wrapf(ErrInvalidBounds, "%s >= %s", min, max)
	}
	return g.Within(iprange.Range{Start: min, End: max}), nil
}

// Within returns an address uniform over r.
func (g *Generator) Within(r iprange.Range) iprange.Addr {
	n := r.Len()
	if n > 1<<32-1 {
		return g.Addr()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return r.Start + iprange.Addr(g.rnd.Int63n(int64(n)))
}
