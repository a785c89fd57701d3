package hashrange

import (
	"fmt"
	"sort"
	"strings"

	"github.com/epkroute/epkroute-go/pkhash"
	"github.com/epkroute/epkroute-go/wide"
)

// CreateOutcome says why a set of ranges was rejected.
type CreateOutcome int

const (
	CreateSuccess CreateOutcome = iota
	CreateNullRanges
	CreateNoRanges
	CreateEmptyRange
	CreateDuplicateRange
	CreateRangesOverlap
	CreateRangesNotContiguous
)

func (o CreateOutcome) String() string {
	switch o {
	case CreateSuccess:
		return "Success"
	case CreateNullRanges:
		return "NullPartitionKeyRanges"
	case CreateNoRanges:
		return "NoPartitionKeyRanges"
	case CreateEmptyRange:
		return "EmptyPartitionKeyRange"
	case CreateDuplicateRange:
		return "DuplicatePartitionKeyRange"
	case CreateRangesOverlap:
		return "RangesOverlap"
	case CreateRangesNotContiguous:
		return "RangesAreNotContiguous"
	default:
		return fmt.Sprintf("CreateOutcome(%d)", int(o))
	}
}

// Ranges is a sorted, non-empty set of ranges that abut each other with no
// gaps or overlaps. It is immutable; split and merge build new sets.
type Ranges struct {
	ranges []Range
}

// TryCreate validates ranges and returns them sorted. A nil slice and an
// empty slice are reported separately.
func TryCreate(ranges []Range) (Ranges, CreateOutcome) {
	if ranges == nil {
		return Ranges{}, CreateNullRanges
	}
	if len(ranges) == 0 {
		return Ranges{}, CreateNoRanges
	}
	for _, r := range ranges {
		if r.IsEmpty() {
			return Ranges{}, CreateEmptyRange
		}
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) < 0 })
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Equal(sorted[i]) {
			return Ranges{}, CreateDuplicateRange
		}
	}

	if outcome := checkWidths(sorted); outcome != CreateSuccess {
		return Ranges{}, outcome
	}
	// Widths only see the leading hash value, and an overlap can cancel a
	// gap in the sum. Adjacent bounds must match exactly.
	if outcome := checkAdjacency(sorted); outcome != CreateSuccess {
		return Ranges{}, outcome
	}
	return Ranges{ranges: sorted}, CreateSuccess
}

// Create is TryCreate returning an error wrapping ErrInvalidRanges.
func Create(ranges []Range) (Ranges, error) {
	rs, outcome := TryCreate(ranges)
	if outcome != CreateSuccess {
		return Ranges{}, fmt.Errorf("%w: %s", ErrInvalidRanges, outcome)
	}
	return rs, nil
}

// checkWidths compares the summed widths against the span of the union.
// Open bounds resolve to the ends of the hash space. Sums are carried in
// 192 bits so that they cannot wrap.
func checkWidths(sorted []Range) CreateOutcome {
	var sum wide.Uint192
	minStart, maxEnd := wide.Max128, wide.Zero128
	for _, r := range sorted {
		lo, hi := bounds(r)
		sum = sum.Add(wide.Widen(hi.Sub(lo)))
		if lo.Less(minStart) {
			minStart = lo
		}
		if maxEnd.Less(hi) {
			maxEnd = hi
		}
	}
	span := wide.Widen(maxEnd.Sub(minStart))
	switch sum.Cmp(span) {
	case 1:
		return CreateRangesOverlap
	case -1:
		return CreateRangesNotContiguous
	}
	return CreateSuccess
}

func checkAdjacency(sorted []Range) CreateOutcome {
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		if !prev.hasEnd || !next.hasStart {
			return CreateRangesOverlap
		}
		switch prev.end.Compare(next.start) {
		case 1:
			return CreateRangesOverlap
		case -1:
			return CreateRangesNotContiguous
		}
	}
	return CreateSuccess
}

// bounds resolves a range to leading hash values on the full 128-bit line.
func bounds(r Range) (lo, hi wide.Uint128) {
	lo, hi = wide.Zero128, wide.Max128
	if r.hasStart {
		lo = r.start.Leading()
	}
	if r.hasEnd {
		hi = r.end.Leading()
	}
	return lo, hi
}

// Len returns the number of ranges.
func (rs Ranges) Len() int { return len(rs.ranges) }

// At returns the i-th range in sorted order.
func (rs Ranges) At(i int) Range { return rs.ranges[i] }

// All returns a copy of the ranges in sorted order.
func (rs Ranges) All() []Range {
	cp := make([]Range, len(rs.ranges))
	copy(cp, rs.ranges)
	return cp
}

// Span returns the range from the first start to the last end.
func (rs Ranges) Span() Range {
	if len(rs.ranges) == 0 {
		return Range{}
	}
	first, last := rs.ranges[0], rs.ranges[len(rs.ranges)-1]
	return Range{start: first.start, hasStart: first.hasStart, end: last.end, hasEnd: last.hasEnd}
}

// Equal reports whether both sets hold the same ranges.
func (rs Ranges) Equal(o Ranges) bool {
	if len(rs.ranges) != len(o.ranges) {
		return false
	}
	for i := range rs.ranges {
		if !rs.ranges[i].Equal(o.ranges[i]) {
			return false
		}
	}
	return true
}

// Find returns the index of the range holding h, treating each range as
// half-open so that a boundary hash belongs to the range it starts.
func (rs Ranges) Find(h pkhash.Hash) (int, bool) {
	i := sort.Search(len(rs.ranges), func(i int) bool {
		r := rs.ranges[i]
		return !r.hasEnd || h.Compare(r.end) < 0
	})
	if i == len(rs.ranges) {
		return 0, false
	}
	if r := rs.ranges[i]; r.hasStart && h.Compare(r.start) < 0 {
		return 0, false
	}
	return i, true
}

// Overlapping returns the indexes of ranges that intersect r, in order.
func (rs Ranges) Overlapping(r Range) []int {
	var out []int
	for i, candidate := range rs.ranges {
		if _, ok := candidate.Overlap(r); ok {
			out = append(out, i)
		}
	}
	return out
}

func (rs Ranges) String() string {
	parts := make([]string, len(rs.ranges))
	for i, r := range rs.ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}
