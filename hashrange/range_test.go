package hashrange

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epkroute/epkroute-go/pkhash"
	"github.com/epkroute/epkroute-go/wide"
)

func h(v uint64) pkhash.Hash { return pkhash.New(wide.From64(v)) }

func hp(v uint64) *pkhash.Hash {
	x := h(v)
	return &x
}

func bounded(start, end uint64) Range { return MustNew(hp(start), hp(end)) }

func from(start uint64) Range { return MustNew(hp(start), nil) }

func to(end uint64) Range { return MustNew(nil, hp(end)) }

func TestNew(t *testing.T) {
	t.Run("rejects start after end", func(t *testing.T) {
		_, err := New(hp(5), hp(4))
		assert.True(t, errors.Is(err, ErrInvalidRange))
	})

	t.Run("equal bounds are allowed but empty", func(t *testing.T) {
		r, err := Between(h(5), h(5))
		require.NoError(t, err)
		assert.True(t, r.IsEmpty())
	})

	t.Run("full range has no bounds", func(t *testing.T) {
		r := Full()
		_, hasStart := r.Start()
		_, hasEnd := r.End()
		assert.False(t, hasStart)
		assert.False(t, hasEnd)
		assert.True(t, r.IsFull())
		assert.False(t, r.IsEmpty())
		assert.Equal(t, "[-inf,+inf)", r.String())
	})
}

func TestContainsHash(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		in   uint64
		want bool
	}{
		{"inside", bounded(10, 20), 15, true},
		{"start is included", bounded(10, 20), 10, true},
		{"end compares inclusively", bounded(10, 20), 20, true},
		{"below", bounded(10, 20), 9, false},
		{"above", bounded(10, 20), 21, false},
		{"open start", to(20), 0, true},
		{"open end", from(10), 1 << 63, true},
		{"full", Full(), 42, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.ContainsHash(h(tt.in)))
		})
	}
}

func TestContainsRange(t *testing.T) {
	tests := []struct {
		name  string
		outer Range
		inner Range
		want  bool
	}{
		{"itself", bounded(10, 20), bounded(10, 20), true},
		{"strictly inside", bounded(10, 20), bounded(12, 18), true},
		{"sticks out", bounded(10, 20), bounded(12, 21), false},
		{"open beats concrete", to(20), bounded(0, 20), true},
		{"concrete never contains open", bounded(0, 20), to(20), false},
		{"full contains everything", Full(), from(3), true},
		{"open end contains open end", from(3), from(5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outer.Contains(tt.inner))
		})
	}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want Range
		ok   bool
	}{
		{"partial", bounded(10, 20), bounded(15, 30), bounded(15, 20), true},
		{"nested", bounded(10, 20), bounded(12, 13), bounded(12, 13), true},
		{"touching is not overlapping", bounded(10, 20), bounded(20, 30), Range{}, false},
		{"disjoint", bounded(10, 20), bounded(25, 30), Range{}, false},
		{"concrete start wins over open", to(20), bounded(5, 30), bounded(5, 20), true},
		{"both open starts stay open", to(20), to(10), to(10), true},
		{"full and full", Full(), Full(), Full(), true},
		{"open end", from(10), from(15), from(15), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Overlap(tt.b)
			assert.Equal(t, tt.ok, ok)
			gotReverse, okReverse := tt.b.Overlap(tt.a)
			assert.Equal(t, ok, okReverse)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
				assert.True(t, got.Equal(gotReverse))
			}
		})
	}
}

func TestCompare(t *testing.T) {
	ranges := []Range{
		from(10),
		bounded(10, 20),
		Full(),
		to(5),
		bounded(3, 4),
		bounded(10, 15),
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Compare(ranges[j]) < 0 })

	want := []Range{to(5), Full(), bounded(3, 4), bounded(10, 15), bounded(10, 20), from(10)}
	for i := range want {
		assert.True(t, want[i].Equal(ranges[i]), "position %d: want %s got %s", i, want[i], ranges[i])
	}
	assert.Equal(t, 0, bounded(1, 2).Compare(bounded(1, 2)))
}

func TestEqual(t *testing.T) {
	assert.True(t, bounded(1, 2).Equal(bounded(1, 2)))
	assert.False(t, bounded(1, 2).Equal(bounded(1, 3)))
	assert.False(t, to(2).Equal(bounded(0, 2)))
	assert.True(t, Full().Equal(Full()))
}
