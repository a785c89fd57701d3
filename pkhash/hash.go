// Package pkhash computes partition key hashes consistently with the
// server's hashing schemes.
//
// CRITICAL: The V1 and V2 schemes and the effective partition key encoder
// must match the server byte for byte. The server derives the same values
// independently and routes on them.
package pkhash

import (
	"errors"
	"fmt"
	"strings"

	"github.com/epkroute/epkroute-go/wide"
)

var (
	// ErrOutOfRange is returned when a value exceeds a scheme limit.
	ErrOutOfRange = errors.New("pkhash: value out of range")

	// ErrInvalidComponent is returned for values that cannot be a partition
	// key component, such as arrays and objects.
	ErrInvalidComponent = errors.New("pkhash: invalid partition key component")

	// ErrUnsupportedVersion is returned for unknown scheme versions.
	ErrUnsupportedVersion = errors.New("pkhash: unsupported partition key version")
)

// Hash is the hash of a partition key: one wide value per partition key
// path, in path order.
//
// Two hashes are equal iff their canonical strings are equal, and they are
// ordered by their canonical strings. Each value renders as a zero padded
// 39 digit decimal so that string order agrees with numeric order.
type Hash struct {
	values []wide.Uint128
	text   string
}

// New builds a Hash from one or more values.
func New(values ...wide.Uint128) Hash {
	cp := make([]wide.Uint128, len(values))
	copy(cp, values)
	parts := make([]string, len(cp))
	for i, v := range cp {
		parts[i] = v.PaddedDecimal()
	}
	return Hash{values: cp, text: strings.Join(parts, "-")}
}

// Parse parses the canonical string produced by Hash.String. Unpadded
// decimals are accepted.
func Parse(s string) (Hash, error) {
	if s == "" {
		return Hash{}, fmt.Errorf("%w: empty partition key hash", wide.ErrFormat)
	}
	parts := strings.Split(s, "-")
	values := make([]wide.Uint128, len(parts))
	for i, p := range parts {
		v, err := wide.ParseDecimal128(p)
		if err != nil {
			return Hash{}, fmt.Errorf("parse partition key hash %q: %w", s, err)
		}
		values[i] = v
	}
	return New(values...), nil
}

// MustParse is like Parse but panics on error. Intended for constants and
// tests.
func MustParse(s string) Hash {
	h, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return h
}

// Len returns the number of component values.
func (h Hash) Len() int { return len(h.values) }

// Value returns the i-th component value.
func (h Hash) Value(i int) wide.Uint128 { return h.values[i] }

// Values returns a copy of the component values.
func (h Hash) Values() []wide.Uint128 {
	cp := make([]wide.Uint128, len(h.values))
	copy(cp, h.values)
	return cp
}

// Leading returns the first component value, which positions the hash on
// the range line. An empty hash yields zero.
func (h Hash) Leading() wide.Uint128 {
	if len(h.values) == 0 {
		return wide.Zero128
	}
	return h.values[0]
}

// String returns the canonical form.
func (h Hash) String() string { return h.text }

// Compare orders hashes by their canonical strings.
func (h Hash) Compare(o Hash) int { return strings.Compare(h.text, o.text) }

// Equal reports whether two hashes have the same canonical string.
func (h Hash) Equal(o Hash) bool { return h.text == o.text }

// Append returns a hash with o's values appended after h's, as used for
// hierarchical keys.
func (h Hash) Append(o Hash) Hash {
	values := make([]wide.Uint128, 0, len(h.values)+len(o.values))
	values = append(values, h.values...)
	values = append(values, o.values...)
	return New(values...)
}
