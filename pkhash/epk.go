package pkhash

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/epkroute/epkroute-go/element"
	"github.com/epkroute/epkroute-go/hash"
	"github.com/epkroute/epkroute-go/wide"
)

// Kind is the partition key kind of a container.
type Kind string

const (
	KindHash      Kind = "Hash"
	KindRange     Kind = "Range"
	KindMultiHash Kind = "MultiHash"
)

// Bounds of the effective partition key space as hex strings.
const (
	MinInclusiveEffectivePartitionKey = ""
	MaxExclusiveEffectivePartitionKey = "FF"
)

const (
	// maxStringBytesToAppend is how many encoded string bytes the binary
	// encoding keeps. Strings up to this length are followed by a terminator.
	maxStringBytesToAppend = 100

	stringTerminatorV1 byte = 0x00
	stringTerminatorV2 byte = 0xFF
)

// EffectivePartitionKey renders components as the uppercase hex string the
// server uses to place a document on its ordered key space.
//
// Hash containers prefix the binary encoding with the V1 hash, or use the
// V2 hash alone. MultiHash containers concatenate the V2 hash of each
// component. Range containers use the binary encoding unhashed.
func EffectivePartitionKey(kind Kind, version Version, components ...element.Element) (string, error) {
	if len(components) == 0 {
		return MinInclusiveEffectivePartitionKey, nil
	}
	for i, c := range components {
		if !c.Kind().IsScalar() {
			return "", fmt.Errorf("component %d: %w: %s", i, ErrInvalidComponent, c.Kind())
		}
	}

	switch kind {
	case KindHash:
		switch version {
		case V1:
			return effectiveV1(components), nil
		case V2:
			if err := checkV2Strings(components); err != nil {
				return "", err
			}
			return effectiveV2(components...), nil
		default:
			return "", fmt.Errorf("%w: %d", ErrUnsupportedVersion, int(version))
		}
	case KindMultiHash:
		if err := checkV2Strings(components); err != nil {
			return "", err
		}
		var sb strings.Builder
		for _, c := range components {
			sb.WriteString(effectiveV2(c))
		}
		return sb.String(), nil
	case KindRange:
		var b []byte
		for _, c := range components {
			b = appendBinary(b, c)
		}
		return strings.ToUpper(hex.EncodeToString(b)), nil
	default:
		return "", fmt.Errorf("%w: unknown partition kind %q", ErrInvalidComponent, string(kind))
	}
}

func checkV2Strings(components []element.Element) error {
	for i, c := range components {
		if c.Kind() == element.KindString && len(c.Str()) > MaxV2StringBytes {
			return fmt.Errorf("component %d: %w: string of %d bytes exceeds %d", i, ErrOutOfRange, len(c.Str()), MaxV2StringBytes)
		}
	}
	return nil
}

func effectiveV1(components []element.Element) string {
	truncated := make([]element.Element, len(components))
	for i, c := range components {
		if c.Kind() == element.KindString {
			c = element.String(truncateChars(c.Str(), MaxV1StringChars))
		}
		truncated[i] = c
	}

	var hb []byte
	for _, c := range truncated {
		hb = appendHashing(hb, c, stringTerminatorV1)
	}
	h := hash.Murmur32(hb, 0)

	b := appendNumber(nil, float64(h))
	for _, c := range truncated {
		b = appendBinary(b, c)
	}
	return strings.ToUpper(hex.EncodeToString(b))
}

func effectiveV2(components ...element.Element) string {
	var hb []byte
	for _, c := range components {
		hb = appendHashing(hb, c, stringTerminatorV2)
	}
	h := hash.Murmur128(hb, wide.Zero128)
	// The top two bits are reserved so the key sorts below "FF".
	h.Hi &= 0x3FFF_FFFF_FFFF_FFFF
	return h.BigEndianHex()
}

// appendHashing writes the bytes fed to the hash function.
func appendHashing(b []byte, e element.Element, terminator byte) []byte {
	switch e.Kind() {
	case element.KindUndefined:
		return append(b, typeUndefined)
	case element.KindNull:
		return append(b, typeNull)
	case element.KindBoolean:
		if e.Bool() {
			return append(b, typeTrue)
		}
		return append(b, typeFalse)
	case element.KindNumber:
		return append(b, numberBytes(e.Number())...)
	case element.KindString:
		b = append(b, typeString)
		b = append(b, e.Str()...)
		return append(b, terminator)
	default:
		panic(fmt.Sprintf("pkhash: cannot hash element kind %s", e.Kind()))
	}
}

// appendBinary writes the order preserving binary encoding of e.
func appendBinary(b []byte, e element.Element) []byte {
	switch e.Kind() {
	case element.KindNumber:
		return appendNumber(b, e.Number())
	case element.KindString:
		return appendString(b, e.Str())
	default:
		return appendHashing(b, e, 0)
	}
}

// appendNumber writes the type tag, the high byte of the order preserving
// payload, then the rest in 7 bit groups. Each group has its low bit set
// except the last.
func appendNumber(b []byte, f float64) []byte {
	b = append(b, typeNumber)
	payload := orderPreservingBits(f)
	b = append(b, byte(payload>>56))
	payload <<= 8

	var group byte
	first := true
	for {
		if !first {
			b = append(b, group)
		}
		first = false
		group = byte(payload>>56) | 0x01
		payload <<= 7
		if payload == 0 {
			break
		}
	}
	return append(b, group&0xFE)
}

func orderPreservingBits(f float64) uint64 {
	const mask = uint64(1) << 63
	u := math.Float64bits(f)
	if u < mask {
		return u ^ mask
	}
	return ^u + 1
}

// appendString writes each UTF-8 byte plus one, saturating at 0xFF. Long
// strings keep one byte more than the limit and drop the terminator.
func appendString(b []byte, s string) []byte {
	b = append(b, typeString)
	short := len(s) <= maxStringBytesToAppend
	n := len(s)
	if !short {
		n = maxStringBytesToAppend + 1
	}
	for i := 0; i < n; i++ {
		c := s[i]
		if c < 0xFF {
			c++
		}
		b = append(b, c)
	}
	if short {
		b = append(b, 0x00)
	}
	return b
}
