package pkhash

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/epkroute/epkroute-go/element"
	"github.com/epkroute/epkroute-go/hash"
	"github.com/epkroute/epkroute-go/wide"
)

// Version selects a hashing scheme. It comes from the container's partition
// key definition.
type Version int

const (
	V1 Version = 1
	V2 Version = 2
)

// String returns "V1" or "V2".
func (v Version) String() string {
	return fmt.Sprintf("V%d", int(v))
}

// Type tags written before each component when hashing and encoding.
const (
	typeUndefined byte = 0x00
	typeNull      byte = 0x01
	typeFalse     byte = 0x02
	typeTrue      byte = 0x03
	typeNumber    byte = 0x05
	typeString    byte = 0x08
)

const (
	// MaxV1StringChars is the number of characters of a string the V1 scheme
	// hashes. Longer strings are truncated, matching the legacy server.
	MaxV1StringChars = 100

	// MaxV2StringBytes is the longest UTF-8 string the V2 scheme accepts.
	MaxV2StringBytes = 2 * 1024
)

// Scheme hashes partition key components. Pick one with SchemeFor and reuse
// it; implementations are stateless and safe for concurrent use.
type Scheme interface {
	Version() Version
	HashUndefined() Hash
	HashNull() Hash
	HashBool(b bool) Hash
	HashNumber(f float64) Hash
	HashString(s string) (Hash, error)

	// HashComponent hashes one scalar component.
	HashComponent(e element.Element) (Hash, error)

	// HashComponents hashes each component and concatenates the values in
	// order, producing one value per partition key path.
	HashComponents(components ...element.Element) (Hash, error)
}

// SchemeFor returns the scheme for a partition key definition version.
func SchemeFor(v Version) (Scheme, error) {
	switch v {
	case V1:
		return v1, nil
	case V2:
		return v2, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, int(v))
	}
}

var (
	v1 = newV1Scheme()
	v2 = newV2Scheme()
)

// singletons holds the precomputed hashes of the fixed scalar encodings.
type singletons struct {
	undefined, null, falseHash, trueHash, emptyString Hash
}

func computeSingletons(fn func([]byte) Hash) singletons {
	return singletons{
		undefined:   fn([]byte{typeUndefined}),
		null:        fn([]byte{typeNull}),
		falseHash:   fn([]byte{typeFalse}),
		trueHash:    fn([]byte{typeTrue}),
		emptyString: fn([]byte{typeString}),
	}
}

type v1Scheme struct{ singletons }

func newV1Scheme() v1Scheme {
	return v1Scheme{computeSingletons(hashV1Bytes)}
}

func hashV1Bytes(b []byte) Hash {
	return New(wide.From32(hash.Murmur32(b, 0)))
}

func (v1Scheme) Version() Version { return V1 }

func (s v1Scheme) HashUndefined() Hash { return s.undefined }

func (s v1Scheme) HashNull() Hash { return s.null }

func (s v1Scheme) HashBool(b bool) Hash {
	if b {
		return s.trueHash
	}
	return s.falseHash
}

func (v1Scheme) HashNumber(f float64) Hash {
	return hashV1Bytes(numberBytes(f))
}

// HashString truncates s to MaxV1StringChars characters before hashing. It
// never fails.
func (s v1Scheme) HashString(str string) (Hash, error) {
	if str == "" {
		return s.emptyString, nil
	}
	str = truncateChars(str, MaxV1StringChars)
	b := make([]byte, 0, 1+len(str))
	b = append(b, typeString)
	b = append(b, str...)
	return hashV1Bytes(b), nil
}

func (s v1Scheme) HashComponent(e element.Element) (Hash, error) {
	return hashComponent(s, e)
}

func (s v1Scheme) HashComponents(components ...element.Element) (Hash, error) {
	return hashComponents(s, components)
}

type v2Scheme struct{ singletons }

func newV2Scheme() v2Scheme {
	return v2Scheme{computeSingletons(hashV2Bytes)}
}

func hashV2Bytes(b []byte) Hash {
	return New(hash.Murmur128(b, wide.Zero128))
}

func (v2Scheme) Version() Version { return V2 }

func (s v2Scheme) HashUndefined() Hash { return s.undefined }

func (s v2Scheme) HashNull() Hash { return s.null }

func (s v2Scheme) HashBool(b bool) Hash {
	if b {
		return s.trueHash
	}
	return s.falseHash
}

func (v2Scheme) HashNumber(f float64) Hash {
	return hashV2Bytes(numberBytes(f))
}

// HashString rejects strings longer than MaxV2StringBytes UTF-8 bytes.
func (s v2Scheme) HashString(str string) (Hash, error) {
	if len(str) > MaxV2StringBytes {
		return Hash{}, fmt.Errorf("%w: string of %d bytes exceeds %d", ErrOutOfRange, len(str), MaxV2StringBytes)
	}
	if str == "" {
		return s.emptyString, nil
	}
	b := make([]byte, 0, 1+len(str))
	b = append(b, typeString)
	b = append(b, str...)
	return hashV2Bytes(b), nil
}

func (s v2Scheme) HashComponent(e element.Element) (Hash, error) {
	return hashComponent(s, e)
}

func (s v2Scheme) HashComponents(components ...element.Element) (Hash, error) {
	return hashComponents(s, components)
}

func hashComponent(s Scheme, e element.Element) (Hash, error) {
	switch e.Kind() {
	case element.KindUndefined:
		return s.HashUndefined(), nil
	case element.KindNull:
		return s.HashNull(), nil
	case element.KindBoolean:
		return s.HashBool(e.Bool()), nil
	case element.KindNumber:
		return s.HashNumber(e.Number()), nil
	case element.KindString:
		return s.HashString(e.Str())
	case element.KindArray, element.KindObject:
		return Hash{}, fmt.Errorf("%w: %s", ErrInvalidComponent, e.Kind())
	default:
		panic(fmt.Sprintf("pkhash: unknown element kind %d", e.Kind()))
	}
}

func hashComponents(s Scheme, components []element.Element) (Hash, error) {
	if len(components) == 0 {
		return Hash{}, fmt.Errorf("%w: no components", ErrInvalidComponent)
	}
	values := make([]wide.Uint128, 0, len(components))
	for i, c := range components {
		h, err := s.HashComponent(c)
		if err != nil {
			return Hash{}, fmt.Errorf("component %d: %w", i, err)
		}
		values = append(values, h.values...)
	}
	return New(values...), nil
}

func numberBytes(f float64) []byte {
	b := make([]byte, 9)
	b[0] = typeNumber
	binary.LittleEndian.PutUint64(b[1:], math.Float64bits(f))
	return b
}

// truncateChars keeps the first n characters of s.
func truncateChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
