package iprange

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/slices"
)

// Kind tells how a range was written, which decides its usable addresses.
type Kind int

const (
	KindCIDR Kind = iota
	KindPair
)

func (k Kind) String() string {
	switch k {
	case KindCIDR:
		return "cidr"
	case KindPair:
		return "pair"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Range is an inclusive interval of addresses. Start <= End always holds for
// values built by this package.
type Range struct {
	Start Addr
	End   Addr
}

// Len returns the number of addresses in r.
func (r Range) Len() uint64 {
	return uint64(r.End) - uint64(r.Start) + 1
}

func (r Range) Contains(a Addr) bool {
	return r.Start <= a && a <= r.End
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Iter returns an iterator over every address of r.
func (r Range) Iter() *Iterator {
	return newIterator(uint64(r.Start), uint64(r.End))
}

// Block is a CIDR block.
type Block struct {
	Network Addr
	Prefix  int
}

// NewBlock masks a with the given prefix length.
func NewBlock(a Addr, prefix int) Block {
	return Block{Network: a & mask(prefix), Prefix: prefix}
}

func mask(prefix int) Addr {
	if prefix <= 0 {
		return 0
	}
	return MaxAddr << uint(32-prefix)
}

func (b Block) Broadcast() Addr {
	return b.Network | ^mask(b.Prefix)
}

// Size is 2^(32-prefix).
func (b Block) Size() uint64 {
	return uint64(1) << uint(32-b.Prefix)
}

func (b Block) Range() Range {
	return Range{Start: b.Network, End: b.Broadcast()}
}

func (b Block) String() string {
	return fmt.Sprintf("%s/%d", b.Network, b.Prefix)
}

// UsableRange returns the interval of host addresses of r. A CIDR block loses
// its network and broadcast addresses unless it holds only one or two
// addresses (/32 and /31), in which case every address is a host.
// Explicit pairs keep both endpoints.
func UsableRange(r Range, kind Kind) Range {
	if kind == KindCIDR && r.Len() > 2 {
		return Range{Start: r.Start + 1, End: r.End - 1}
	}
	return r
}

// Usable returns a lazy iterator over the usable addresses of r.
func Usable(r Range, kind Kind) *Iterator {
	return UsableRange(r, kind).Iter()
}

// Coalesce sorts ranges and merges the ones that overlap or touch.
func Coalesce(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b Range) bool {
		if a.Start == b.Start {
			return a.End < b.End
		}
		return a.Start < b.Start
	})

	merged := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if uint64(r.Start) <= uint64(last.End)+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// ToCIDRs returns the smallest list of blocks covering exactly r.
func ToCIDRs(r Range) []Block {
	var out []Block
	cur, end := uint64(r.Start), uint64(r.End)
	for cur <= end {
		// largest aligned block starting at cur
		prefix := 32 - bits.TrailingZeros32(uint32(cur))
		if cur == 0 {
			prefix = 0
		}
		for prefix < 32 && cur+(uint64(1)<<uint(32-prefix))-1 > end {
			prefix++
		}
		out = append(out, Block{Network: Addr(cur), Prefix: prefix})
		cur += uint64(1) << uint(32-prefix)
	}
	return out
}
