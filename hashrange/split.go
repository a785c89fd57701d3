package hashrange

import (
	"fmt"

	"github.com/epkroute/epkroute-go/pkhash"
	"github.com/epkroute/epkroute-go/wide"
)

// SplitOutcome says whether a split succeeded.
type SplitOutcome int

const (
	SplitSuccess SplitOutcome = iota
	SplitRangeNotWideEnough
	SplitNumRangesNeedsToBeGreaterThanZero
)

func (o SplitOutcome) String() string {
	switch o {
	case SplitSuccess:
		return "Success"
	case SplitRangeNotWideEnough:
		return "RangeNotWideEnough"
	case SplitNumRangesNeedsToBeGreaterThanZero:
		return "NumRangesNeedsToBeGreaterThanZero"
	default:
		return fmt.Sprintf("SplitOutcome(%d)", int(o))
	}
}

// TrySplit divides r into count contiguous pieces of near equal width.
// Widths differ by at most one; the extra units go to the trailing pieces.
// Open bounds resolve to the ends of the hash space for sizing, and the
// first and last pieces keep them open.
func TrySplit(r Range, count int) (Ranges, SplitOutcome) {
	if count < 1 {
		return Ranges{}, SplitNumRangesNeedsToBeGreaterThanZero
	}
	lo, hi := bounds(r)
	width := hi.Sub(lo)
	if width.Less(wide.From64(uint64(count))) {
		return Ranges{}, SplitRangeNotWideEnough
	}
	if count == 1 {
		return Ranges{ranges: []Range{r}}, SplitSuccess
	}

	n := uint64(count)
	q, rem := width.DivMod64(n)
	firstLonger := n - rem

	pieces := make([]Range, count)
	prev := r.start
	hasPrev := r.hasStart
	for i := uint64(1); i < n; i++ {
		offset := q.Mul64(i)
		if i > firstLonger {
			offset = offset.Add64(i - firstLonger)
		}
		boundary := pkhash.New(lo.Add(offset))
		pieces[i-1] = Range{start: prev, hasStart: hasPrev, end: boundary, hasEnd: true}
		prev, hasPrev = boundary, true
	}
	pieces[count-1] = Range{start: prev, hasStart: hasPrev, end: r.end, hasEnd: r.hasEnd}
	return Ranges{ranges: pieces}, SplitSuccess
}

// Split is TrySplit returning an error wrapping ErrInvalidRange.
func Split(r Range, count int) (Ranges, error) {
	rs, outcome := TrySplit(r, count)
	if outcome != SplitSuccess {
		return Ranges{}, fmt.Errorf("%w: split %s into %d: %s", ErrInvalidRange, r, count, outcome)
	}
	return rs, nil
}

// Merge returns the single range covering a validated set: the first
// range's start through the last range's end, open where those are open.
func Merge(rs Ranges) Range {
	return rs.Span()
}
