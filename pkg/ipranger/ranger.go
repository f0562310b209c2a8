// Package ipranger holds the set of addresses excluded from an enumeration.
package ipranger

import (
	"net"
	"strings"

	"github.com/pkg/errors"
	"github.com/yl2chen/cidranger"
	"github.com/zan8in/ipkit/pkg/iprange"
)

// Ranger is a set of excluded networks backed by a path-compressed trie.
type Ranger struct {
	trie cidranger.Ranger
	n    int
}

func New() *Ranger {
	return &Ranger{trie: cidranger.NewPCTrieRanger()}
}

// Add excludes a CIDR block, a start-end pair or a single IPv4 address.
// CIDR blocks are excluded whole, network and broadcast included.
func (r *Ranger) Add(entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil
	}

	var blocks []iprange.Block
	if strings.ContainsAny(entry, "/-") {
		spec, err := iprange.Parse(entry)
		if err != nil {
			return err
		}
		if spec.Kind == iprange.KindCIDR {
			blocks = []iprange.Block{{Network: spec.Range.Start, Prefix: spec.Prefix}}
		} else {
			blocks = iprange.ToCIDRs(spec.Range)
		}
	} else {
		a, err := iprange.ParseAddr(entry)
		if err != nil {
			return errors.Wrap(err, "exclude")
		}
		blocks = []iprange.Block{{Network: a, Prefix: 32}}
	}

	for _, b := range blocks {
		if err := r.insert(b); err != nil {
			return errors.Wrapf(err, "exclude %s", b)
		}
	}
	r.n++
	return nil
}

func (r *Ranger) insert(b iprange.Block) error {
	ipnet := net.IPNet{
		IP:   b.Network.IP(),
		Mask: net.CIDRMask(b.Prefix, 32),
	}
	return r.trie.Insert(cidranger.NewBasicRangerEntry(ipnet))
}

// Contains reports whether a is excluded.
func (r *Ranger) Contains(a iprange.Addr) bool {
	if r == nil || r.n == 0 {
		return false
	}
	ok, err := r.trie.Contains(a.IP())
	return err == nil && ok
}

// Len is the number of entries added.
func (r *Ranger) Len() int {
	if r == nil {
		return 0
	}
	return r.n
}

type filter struct {
	seq    iprange.Sequence
	ranger *Ranger
	stats  *Stats
}

// Filter drops the addresses of seq that r contains. stats may be nil.
func Filter(seq iprange.Sequence, r *Ranger, stats *Stats) iprange.Sequence {
	if stats == nil {
		stats = &Stats{}
	}
	return &filter{seq: seq, ranger: r, stats: stats}
}

func (f *filter) Next() bool {
	for f.seq.Next() {
		if f.ranger.Contains(f.seq.Addr()) {
			f.stats.Excluded++
			continue
		}
		f.stats.Emitted++
		return true
	}
	return false
}

func (f *filter) Addr() iprange.Addr {
	return f.seq.Addr()
}

func (f *filter) Reset() {
	f.seq.Reset()
	*f.stats = Stats{}
}
