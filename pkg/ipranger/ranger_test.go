package ipranger

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zan8in/ipkit/pkg/iprange"
)

func addrs(seq iprange.Sequence) []string {
	var out []string
	for seq.Next() {
		out = append(out, seq.Addr().String())
	}
	return out
}

func TestRanger_Add(t *testing.T) {
	r := New()
	require.NoError(t, r.Add("10.0.0.0/30"))
	require.NoError(t, r.Add("10.0.1.3-10.0.1.6"))
	require.NoError(t, r.Add("10.0.2.9"))
	require.NoError(t, r.Add("   "))
	assert.Equal(t, 3, r.Len())

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.0.0.0", true},
		{"10.0.0.3", true},
		{"10.0.0.4", false},
		{"10.0.1.2", false},
		{"10.0.1.3", true},
		{"10.0.1.6", true},
		{"10.0.1.7", false},
		{"10.0.2.9", true},
		{"10.0.2.10", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(iprange.MustAddr(tt.ip)))
		})
	}
}

func TestRanger_AddInvalid(t *testing.T) {
	r := New()
	err := r.Add("10.0.0.0/40")
	require.Error(t, err)
	assert.True(t, errors.Is(err, iprange.ErrInvalidPrefix))

	err = r.Add("10.0.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, iprange.ErrInvalidAddress))

	assert.Equal(t, 0, r.Len())
}

func TestRanger_Empty(t *testing.T) {
	var nilRanger *Ranger
	assert.False(t, nilRanger.Contains(iprange.MustAddr("1.2.3.4")))
	assert.Equal(t, 0, nilRanger.Len())
	assert.False(t, New().Contains(iprange.MustAddr("1.2.3.4")))
}

func TestFilter(t *testing.T) {
	r := New()
	require.NoError(t, r.Add("192.168.1.2"))
	require.NoError(t, r.Add("192.168.1.4-192.168.1.5"))

	var stats Stats
	seq := Filter(iprange.MustParse("192.168.1.0/29").Usable(), r, &stats)
	assert.Equal(t, []string{"192.168.1.1", "192.168.1.3", "192.168.1.6"}, addrs(seq))
	assert.Equal(t, Stats{Emitted: 3, Excluded: 3}, stats)
	assert.Equal(t, uint64(6), stats.Total())

	seq.Reset()
	assert.Equal(t, Stats{}, stats)
	assert.Len(t, addrs(seq), 3)
}

func TestFilter_NilStats(t *testing.T) {
	seq := Filter(iprange.MustParse("10.0.0.1-10.0.0.3").Usable(), nil, nil)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, addrs(seq))
}

func TestFilter_ExcludeEverything(t *testing.T) {
	r := New()
	require.NoError(t, r.Add("0.0.0.0/0"))
	var stats Stats
	assert.Empty(t, addrs(Filter(iprange.MustParse("10.0.0.0/24").Usable(), r, &stats)))
	assert.Equal(t, uint64(254), stats.Excluded)
}
