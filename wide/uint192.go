package wide

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
)

// Uint192Size is the encoded size of a Uint192 in bytes.
const Uint192Size = 24

// Uint192 is an unsigned 192-bit integer.
type Uint192 struct {
	Lo  uint64
	Mid uint64
	Hi  uint64
}

var (
	// Zero192 is the smallest Uint192.
	Zero192 = Uint192{}

	// Max192 is the largest Uint192.
	Max192 = Uint192{Lo: math.MaxUint64, Mid: math.MaxUint64, Hi: math.MaxUint64}
)

// New192 builds a Uint192 from its limbs, lowest first.
func New192(lo, mid, hi uint64) Uint192 {
	return Uint192{Lo: lo, Mid: mid, Hi: hi}
}

// Widen converts a Uint128 into a Uint192.
func Widen(u Uint128) Uint192 {
	return Uint192{Lo: u.Lo, Mid: u.Hi}
}

// Narrow returns the low 128 bits of u and whether the value fits in 128 bits.
func (u Uint192) Narrow() (Uint128, bool) {
	return Uint128{Lo: u.Lo, Hi: u.Mid}, u.Hi == 0
}

// Add returns u+v modulo 2^192.
func (u Uint192) Add(v Uint192) Uint192 {
	lo, carry := bits.Add64(u.Lo, v.Lo, 0)
	mid, carry := bits.Add64(u.Mid, v.Mid, carry)
	hi, _ := bits.Add64(u.Hi, v.Hi, carry)
	return Uint192{Lo: lo, Mid: mid, Hi: hi}
}

// Sub returns u-v modulo 2^192.
func (u Uint192) Sub(v Uint192) Uint192 {
	lo, borrow := bits.Sub64(u.Lo, v.Lo, 0)
	mid, borrow := bits.Sub64(u.Mid, v.Mid, borrow)
	hi, _ := bits.Sub64(u.Hi, v.Hi, borrow)
	return Uint192{Lo: lo, Mid: mid, Hi: hi}
}

// And returns u&v.
func (u Uint192) And(v Uint192) Uint192 {
	return Uint192{Lo: u.Lo & v.Lo, Mid: u.Mid & v.Mid, Hi: u.Hi & v.Hi}
}

// Or returns u|v.
func (u Uint192) Or(v Uint192) Uint192 {
	return Uint192{Lo: u.Lo | v.Lo, Mid: u.Mid | v.Mid, Hi: u.Hi | v.Hi}
}

// Xor returns u^v.
func (u Uint192) Xor(v Uint192) Uint192 {
	return Uint192{Lo: u.Lo ^ v.Lo, Mid: u.Mid ^ v.Mid, Hi: u.Hi ^ v.Hi}
}

// Cmp compares from the high limb down and returns -1, 0 or +1.
func (u Uint192) Cmp(v Uint192) int {
	for _, p := range [3][2]uint64{{u.Hi, v.Hi}, {u.Mid, v.Mid}, {u.Lo, v.Lo}} {
		if p[0] < p[1] {
			return -1
		}
		if p[0] > p[1] {
			return 1
		}
	}
	return 0
}

// Less reports whether u < v.
func (u Uint192) Less(v Uint192) bool {
	return u.Cmp(v) < 0
}

// IsZero reports whether u == 0.
func (u Uint192) IsZero() bool {
	return u.Lo == 0 && u.Mid == 0 && u.Hi == 0
}

// Bytes returns the little-endian layout: low, mid, then high limb.
func (u Uint192) Bytes() [Uint192Size]byte {
	var b [Uint192Size]byte
	binary.LittleEndian.PutUint64(b[0:8], u.Lo)
	binary.LittleEndian.PutUint64(b[8:16], u.Mid)
	binary.LittleEndian.PutUint64(b[16:24], u.Hi)
	return b
}

// Uint192FromBytes decodes the first 24 bytes of b.
func Uint192FromBytes(b []byte) (Uint192, error) {
	if len(b) < Uint192Size {
		return Uint192{}, fmt.Errorf("%w: need %d bytes for uint192, got %d", ErrFormat, Uint192Size, len(b))
	}
	return Uint192{
		Lo:  binary.LittleEndian.Uint64(b[0:8]),
		Mid: binary.LittleEndian.Uint64(b[8:16]),
		Hi:  binary.LittleEndian.Uint64(b[16:24]),
	}, nil
}

// String renders the byte layout as dash-separated uppercase hex pairs.
func (u Uint192) String() string {
	b := u.Bytes()
	return hexDump(b[:])
}

// ParseUint192 parses the output of Uint192.String.
func ParseUint192(s string) (Uint192, error) {
	b, err := parseHexDump(s, Uint192Size)
	if err != nil {
		return Uint192{}, err
	}
	return Uint192FromBytes(b)
}
