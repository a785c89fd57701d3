// Package wide provides fixed-width unsigned integers used for hash values.
//
// Uint128 and Uint192 are plain comparable structs. Every operation returns a
// new value and arithmetic wraps modulo 2^N, so values are safe to share and
// to use as map keys.
//
// The byte layout is part of the wire contract with the server: limbs are
// written little-endian, lowest limb first.
package wide

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// ErrFormat is returned when a byte buffer or string cannot be decoded.
var ErrFormat = errors.New("wide: malformed value")

// Uint128Size is the encoded size of a Uint128 in bytes.
const Uint128Size = 16

// Uint128 is an unsigned 128-bit integer.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

var (
	// Zero128 is the smallest Uint128.
	Zero128 = Uint128{}

	// Max128 is the largest Uint128.
	Max128 = Uint128{Lo: math.MaxUint64, Hi: math.MaxUint64}
)

// New128 builds a Uint128 from its low and high limbs.
func New128(lo, hi uint64) Uint128 {
	return Uint128{Lo: lo, Hi: hi}
}

// From64 widens a uint64.
func From64(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// From32 widens a uint32.
func From32(v uint32) Uint128 {
	return Uint128{Lo: uint64(v)}
}

// Add returns u+v modulo 2^128.
func (u Uint128) Add(v Uint128) Uint128 {
	lo, carry := bits.Add64(u.Lo, v.Lo, 0)
	hi, _ := bits.Add64(u.Hi, v.Hi, carry)
	return Uint128{Lo: lo, Hi: hi}
}

// Add64 returns u+v modulo 2^128.
func (u Uint128) Add64(v uint64) Uint128 {
	return u.Add(From64(v))
}

// AddOverflow returns u+v and whether the addition wrapped.
func (u Uint128) AddOverflow(v Uint128) (Uint128, bool) {
	lo, carry := bits.Add64(u.Lo, v.Lo, 0)
	hi, carry := bits.Add64(u.Hi, v.Hi, carry)
	return Uint128{Lo: lo, Hi: hi}, carry != 0
}

// Sub returns u-v modulo 2^128.
func (u Uint128) Sub(v Uint128) Uint128 {
	lo, borrow := bits.Sub64(u.Lo, v.Lo, 0)
	hi, _ := bits.Sub64(u.Hi, v.Hi, borrow)
	return Uint128{Lo: lo, Hi: hi}
}

// Sub64 returns u-v modulo 2^128.
func (u Uint128) Sub64(v uint64) Uint128 {
	return u.Sub(From64(v))
}

// Mul64 returns u*v modulo 2^128.
func (u Uint128) Mul64(v uint64) Uint128 {
	hi, lo := bits.Mul64(u.Lo, v)
	hi += u.Hi * v
	return Uint128{Lo: lo, Hi: hi}
}

// mul64Overflow returns u*v and whether the product needed more than 128 bits.
func (u Uint128) mul64Overflow(v uint64) (Uint128, bool) {
	carryHi, hi := bits.Mul64(u.Hi, v)
	midHi, lo := bits.Mul64(u.Lo, v)
	hi, carry := bits.Add64(hi, midHi, 0)
	return Uint128{Lo: lo, Hi: hi}, carryHi != 0 || carry != 0
}

// DivMod64 returns u/v and u%v. It panics if v is zero.
func (u Uint128) DivMod64(v uint64) (Uint128, uint64) {
	if v == 0 {
		panic("wide: division by zero")
	}
	hi, r := bits.Div64(0, u.Hi, v)
	lo, r := bits.Div64(r, u.Lo, v)
	return Uint128{Lo: lo, Hi: hi}, r
}

// And returns u&v.
func (u Uint128) And(v Uint128) Uint128 {
	return Uint128{Lo: u.Lo & v.Lo, Hi: u.Hi & v.Hi}
}

// Or returns u|v.
func (u Uint128) Or(v Uint128) Uint128 {
	return Uint128{Lo: u.Lo | v.Lo, Hi: u.Hi | v.Hi}
}

// Xor returns u^v.
func (u Uint128) Xor(v Uint128) Uint128 {
	return Uint128{Lo: u.Lo ^ v.Lo, Hi: u.Hi ^ v.Hi}
}

// Cmp compares from the high limb down and returns -1, 0 or +1.
func (u Uint128) Cmp(v Uint128) int {
	switch {
	case u.Hi < v.Hi:
		return -1
	case u.Hi > v.Hi:
		return 1
	case u.Lo < v.Lo:
		return -1
	case u.Lo > v.Lo:
		return 1
	default:
		return 0
	}
}

// Less reports whether u < v.
func (u Uint128) Less(v Uint128) bool {
	return u.Cmp(v) < 0
}

// IsZero reports whether u == 0.
func (u Uint128) IsZero() bool {
	return u.Lo == 0 && u.Hi == 0
}

// Bytes returns the little-endian layout: low limb then high limb.
func (u Uint128) Bytes() [Uint128Size]byte {
	var b [Uint128Size]byte
	u.PutBytes(b[:])
	return b
}

// PutBytes writes the little-endian layout into b, which must hold 16 bytes.
func (u Uint128) PutBytes(b []byte) {
	binary.LittleEndian.PutUint64(b[0:8], u.Lo)
	binary.LittleEndian.PutUint64(b[8:16], u.Hi)
}

// AppendBytes appends the little-endian layout to b.
func (u Uint128) AppendBytes(b []byte) []byte {
	b = binary.LittleEndian.AppendUint64(b, u.Lo)
	return binary.LittleEndian.AppendUint64(b, u.Hi)
}

// Uint128FromBytes decodes the first 16 bytes of b.
func Uint128FromBytes(b []byte) (Uint128, error) {
	if len(b) < Uint128Size {
		return Uint128{}, fmt.Errorf("%w: need %d bytes for uint128, got %d", ErrFormat, Uint128Size, len(b))
	}
	return Uint128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}

// String renders the byte layout as dash-separated uppercase hex pairs,
// e.g. "01-00-00-...". This is the persisted form used in continuation state.
func (u Uint128) String() string {
	b := u.Bytes()
	return hexDump(b[:])
}

// ParseUint128 parses the output of Uint128.String.
func ParseUint128(s string) (Uint128, error) {
	b, err := parseHexDump(s, Uint128Size)
	if err != nil {
		return Uint128{}, err
	}
	return Uint128FromBytes(b)
}

// BigEndianHex renders u as 32 uppercase hex characters, most significant
// byte first.
func (u Uint128) BigEndianHex() string {
	return fmt.Sprintf("%016X%016X", u.Hi, u.Lo)
}

// MaxDecimalDigits is the number of decimal digits in Max128.
const MaxDecimalDigits = 39

// Decimal renders u in base 10.
func (u Uint128) Decimal() string {
	if u.Hi == 0 {
		return strconv.FormatUint(u.Lo, 10)
	}
	// Split into base 10^19 chunks; each fits a uint64.
	const chunk = 10_000_000_000_000_000_000
	q, r0 := u.DivMod64(chunk)
	q, r1 := q.DivMod64(chunk)
	var sb strings.Builder
	if q.Lo != 0 {
		sb.WriteString(strconv.FormatUint(q.Lo, 10))
		fmt.Fprintf(&sb, "%019d", r1)
	} else {
		sb.WriteString(strconv.FormatUint(r1, 10))
	}
	fmt.Fprintf(&sb, "%019d", r0)
	return sb.String()
}

// PaddedDecimal renders u in base 10, left padded with zeros to
// MaxDecimalDigits so that string order matches numeric order.
func (u Uint128) PaddedDecimal() string {
	d := u.Decimal()
	if len(d) >= MaxDecimalDigits {
		return d
	}
	return strings.Repeat("0", MaxDecimalDigits-len(d)) + d
}

// ParseDecimal128 parses a base 10 string, with or without zero padding.
func ParseDecimal128(s string) (Uint128, error) {
	if s == "" {
		return Uint128{}, fmt.Errorf("%w: empty decimal", ErrFormat)
	}
	var u Uint128
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return Uint128{}, fmt.Errorf("%w: invalid decimal digit %q in %q", ErrFormat, c, s)
		}
		next, overflow := u.mul64Overflow(10)
		if overflow {
			return Uint128{}, fmt.Errorf("%w: decimal %q overflows uint128", ErrFormat, s)
		}
		next, overflow = next.AddOverflow(From64(uint64(c - '0')))
		if overflow {
			return Uint128{}, fmt.Errorf("%w: decimal %q overflows uint128", ErrFormat, s)
		}
		u = next
	}
	return u, nil
}
