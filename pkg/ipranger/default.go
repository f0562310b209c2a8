package ipranger

// Stats counts what a filtered enumeration did.
type Stats struct {
	Emitted  uint64
	Excluded uint64
}

func (s Stats) Total() uint64 {
	return s.Emitted + s.Excluded
}
