// Package hashrange models half-open ranges over the partition key hash space
// and sorted, contiguous sets of them.
package hashrange

import (
	"errors"
	"fmt"

	"github.com/epkroute/epkroute-go/pkhash"
)

var (
	// ErrInvalidRange is returned when a range's start is after its end.
	ErrInvalidRange = errors.New("hashrange: invalid range")

	// ErrInvalidRanges is returned when a set of ranges fails validation.
	ErrInvalidRanges = errors.New("hashrange: invalid ranges")
)

// Range is the half-open interval [start, end) over partition key hashes.
// A missing start is unbounded below and a missing end is unbounded above.
type Range struct {
	start, end       pkhash.Hash
	hasStart, hasEnd bool
}

// New builds a range. A nil bound is open.
func New(start, end *pkhash.Hash) (Range, error) {
	var r Range
	if start != nil {
		r.start, r.hasStart = *start, true
	}
	if end != nil {
		r.end, r.hasEnd = *end, true
	}
	if r.hasStart && r.hasEnd && r.start.Compare(r.end) > 0 {
		return Range{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, r.start, r.end)
	}
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(start, end *pkhash.Hash) Range {
	r, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// Between is shorthand for a range with both bounds present.
func Between(start, end pkhash.Hash) (Range, error) {
	return New(&start, &end)
}

// Full returns the range covering every hash.
func Full() Range { return Range{} }

// Start returns the inclusive start and whether it is present.
func (r Range) Start() (pkhash.Hash, bool) { return r.start, r.hasStart }

// End returns the exclusive end and whether it is present.
func (r Range) End() (pkhash.Hash, bool) { return r.end, r.hasEnd }

// IsFull reports whether both bounds are open.
func (r Range) IsFull() bool { return !r.hasStart && !r.hasEnd }

// IsEmpty reports whether both bounds are present and equal.
func (r Range) IsEmpty() bool {
	return r.hasStart && r.hasEnd && r.start.Equal(r.end)
}

// ContainsHash reports whether h lies between the bounds. The end bound is
// compared inclusively; use Ranges.Find for half-open routing lookups.
func (r Range) ContainsHash(h pkhash.Hash) bool {
	return (!r.hasStart || r.start.Compare(h) <= 0) &&
		(!r.hasEnd || h.Compare(r.end) <= 0)
}

// Contains reports whether o lies entirely within r. An open bound contains
// any concrete bound.
func (r Range) Contains(o Range) bool {
	startOK := !r.hasStart || (o.hasStart && r.start.Compare(o.start) <= 0)
	endOK := !r.hasEnd || (o.hasEnd && r.end.Compare(o.end) >= 0)
	return startOK && endOK
}

// Overlap returns the intersection of r and o, if any.
func (r Range) Overlap(o Range) (Range, bool) {
	var out Range

	switch {
	case r.hasStart && o.hasStart:
		out.start, out.hasStart = r.start, true
		if o.start.Compare(r.start) > 0 {
			out.start = o.start
		}
	case r.hasStart:
		out.start, out.hasStart = r.start, true
	case o.hasStart:
		out.start, out.hasStart = o.start, true
	}

	switch {
	case r.hasEnd && o.hasEnd:
		out.end, out.hasEnd = r.end, true
		if o.end.Compare(r.end) < 0 {
			out.end = o.end
		}
	case r.hasEnd:
		out.end, out.hasEnd = r.end, true
	case o.hasEnd:
		out.end, out.hasEnd = o.end, true
	}

	if out.hasStart && out.hasEnd && out.start.Compare(out.end) >= 0 {
		return Range{}, false
	}
	return out, true
}

// Compare orders ranges by start, open first, then by end, open last.
func (r Range) Compare(o Range) int {
	switch {
	case !r.hasStart && o.hasStart:
		return -1
	case r.hasStart && !o.hasStart:
		return 1
	case r.hasStart && o.hasStart:
		if c := r.start.Compare(o.start); c != 0 {
			return c
		}
	}

	switch {
	case !r.hasEnd && o.hasEnd:
		return 1
	case r.hasEnd && !o.hasEnd:
		return -1
	case r.hasEnd && o.hasEnd:
		return r.end.Compare(o.end)
	}
	return 0
}

// Equal reports whether both bounds match exactly.
func (r Range) Equal(o Range) bool {
	return r.hasStart == o.hasStart && r.hasEnd == o.hasEnd &&
		(!r.hasStart || r.start.Equal(o.start)) &&
		(!r.hasEnd || r.end.Equal(o.end))
}

// String renders the range as "[start,end)" with open bounds as -inf/+inf.
func (r Range) String() string {
	start, end := "-inf", "+inf"
	if r.hasStart {
		start = r.start.String()
	}
	if r.hasEnd {
		end = r.end.String()
	}
	return "[" + start + "," + end + ")"
}
