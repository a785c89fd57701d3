package hashrange

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epkroute/epkroute-go/pkhash"
	"github.com/epkroute/epkroute-go/wide"
)

func TestTryCreate(t *testing.T) {
	tests := []struct {
		name   string
		ranges []Range
		want   CreateOutcome
	}{
		{"nil", nil, CreateNullRanges},
		{"empty", []Range{}, CreateNoRanges},
		{"single full", []Range{Full()}, CreateSuccess},
		{"contiguous bounded", []Range{bounded(0, 5), bounded(5, 10)}, CreateSuccess},
		{"contiguous open", []Range{to(5), bounded(5, 10), from(10)}, CreateSuccess},
		{"empty range", []Range{bounded(0, 5), bounded(5, 5)}, CreateEmptyRange},
		{"duplicate", []Range{bounded(0, 5), bounded(0, 5), bounded(5, 10)}, CreateDuplicateRange},
		{"overlap", []Range{bounded(0, 6), bounded(5, 10)}, CreateRangesOverlap},
		{"gap", []Range{bounded(0, 5), bounded(6, 10)}, CreateRangesNotContiguous},
		{"open range in the middle", []Range{Full(), bounded(5, 10)}, CreateRangesOverlap},
		{"overlap cancelled by a gap", []Range{bounded(0, 10), bounded(5, 15), bounded(20, 25)}, CreateRangesOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := TryCreate(tt.ranges)
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}

	t.Run("width sums do not wrap", func(t *testing.T) {
		half := wide.New128(0, 1<<63)
		end := pkhash.New(half.Add64(5))
		start := pkhash.New(half)
		// 2^127+5 plus 2^128-1-2^127 wraps to 4 in 128 bits.
		_, got := TryCreate([]Range{MustNew(nil, &end), MustNew(&start, nil)})
		assert.Equal(t, CreateRangesOverlap, got)
	})

	t.Run("create wraps the outcome", func(t *testing.T) {
		_, err := Create([]Range{bounded(0, 5), bounded(6, 10)})
		assert.True(t, errors.Is(err, ErrInvalidRanges))
		assert.Contains(t, err.Error(), "RangesAreNotContiguous")
	})
}

func TestTryCreateIsOrderInsensitive(t *testing.T) {
	input := []Range{to(10), bounded(10, 20), bounded(20, 30), bounded(30, 45), bounded(45, 46), from(46)}
	want, outcome := TryCreate(input)
	require.Equal(t, CreateSuccess, outcome)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]Range(nil), input...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, outcome := TryCreate(shuffled)
		require.Equal(t, CreateSuccess, outcome)
		assert.True(t, want.Equal(got), "got %s", got)
	}
}

func TestRangesLookup(t *testing.T) {
	rs, err := Create([]Range{to(10), bounded(10, 20), from(20)})
	require.NoError(t, err)

	tests := []struct {
		in   uint64
		want int
	}{
		{0, 0},
		{9, 0},
		{10, 1},
		{19, 1},
		{20, 2},
		{1 << 62, 2},
	}
	for _, tt := range tests {
		got, ok := rs.Find(h(tt.in))
		require.True(t, ok, "hash %d", tt.in)
		assert.Equal(t, tt.want, got, "hash %d", tt.in)
	}

	t.Run("outside a bounded set", func(t *testing.T) {
		rs, err := Create([]Range{bounded(10, 20), bounded(20, 30)})
		require.NoError(t, err)
		_, ok := rs.Find(h(5))
		assert.False(t, ok)
		_, ok = rs.Find(h(30))
		assert.False(t, ok)
	})

	t.Run("overlapping", func(t *testing.T) {
		assert.Equal(t, []int{0, 1}, rs.Overlapping(bounded(5, 15)))
		assert.Equal(t, []int{1}, rs.Overlapping(bounded(10, 20)))
		assert.Equal(t, []int{0, 1, 2}, rs.Overlapping(Full()))
		assert.Empty(t, Ranges{}.Overlapping(Full()))
	})

	t.Run("accessors copy", func(t *testing.T) {
		all := rs.All()
		all[0] = Full()
		assert.True(t, rs.At(0).Equal(to(10)))
		assert.Equal(t, 3, rs.Len())
	})
}
