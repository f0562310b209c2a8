package iprange

// Sequence is a pull-based, restartable stream of addresses.
//
//	for seq.Next() {
//		use(seq.Addr())
//	}
type Sequence interface {
	Next() bool
	Addr() Addr
	Reset()
}

// Iterator walks an inclusive address interval in ascending order. It keeps
// only the bounds and a cursor, so its size does not depend on the range.
type Iterator struct {
	first uint64
	last  uint64
	next  uint64
	cur   Addr
}

func newIterator(first, last uint64) *Iterator {
	return &Iterator{first: first, last: last, next: first}
}

// Next advances to the following address and reports whether there was one.
func (it *Iterator) Next() bool {
	if it.next > it.last {
		return false
	}
	it.cur = Addr(it.next)
	it.next++
	return true
}

// Addr returns the current address. It is only valid after Next returned true.
func (it *Iterator) Addr() Addr {
	return it.cur
}

// Reset rewinds the iterator to its first address.
func (it *Iterator) Reset() {
	it.next = it.first
	it.cur = 0
}

// Len is the total number of addresses the iterator yields from the start.
func (it *Iterator) Len() uint64 {
	return it.last - it.first + 1
}

// Range returns the interval walked by the iterator.
func (it *Iterator) Range() Range {
	return Range{Start: Addr(it.first), End: Addr(it.last)}
}

type concat struct {
	seqs []Sequence
	idx  int
}

// Concat chains sequences one after another.
func Concat(seqs ...Sequence) Sequence {
	return &concat{seqs: seqs}
}

func (c *concat) Next() bool {
	for c.idx < len(c.seqs) {
		if c.seqs[c.idx].Next() {
			return true
		}
		c.idx++
	}
	return false
}

func (c *concat) Addr() Addr {
	if c.idx < len(c.seqs) {
		return c.seqs[c.idx].Addr()
	}
	return 0
}

func (c *concat) Reset() {
	for _, s := range c.seqs {
		s.Reset()
	}
	c.idx = 0
}
