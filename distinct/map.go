package distinct

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/epkroute/epkroute-go/element"
	"github.com/epkroute/epkroute-go/wide"
)

var (
	// ErrInvalidArgument is returned for values or query types the maps do
	// not handle.
	ErrInvalidArgument = errors.New("distinct: invalid argument")

	// ErrMalformedToken is returned when a continuation token cannot be
	// parsed.
	ErrMalformedToken = errors.New("distinct: malformed continuation token")
)

// QueryType is the kind of DISTINCT a query asks for.
type QueryType int

const (
	QueryNone QueryType = iota
	QueryOrdered
	QueryUnordered
)

func (q QueryType) String() string {
	switch q {
	case QueryNone:
		return "None"
	case QueryOrdered:
		return "Ordered"
	case QueryUnordered:
		return "Unordered"
	default:
		return fmt.Sprintf("QueryType(%d)", int(q))
	}
}

// Map records values seen by one distinct query. Implementations are not
// safe for concurrent use.
type Map interface {
	// Add reports whether e has not been seen before.
	Add(e element.Element) (bool, error)

	// Continuation returns a token from which NewMap can resume, or "" when
	// there is nothing to resume.
	Continuation() string
}

// NewMap returns the map for queryType, resuming from token when it is not
// empty. Only ordered maps resume.
func NewMap(queryType QueryType, token string) (Map, error) {
	switch queryType {
	case QueryOrdered:
		return NewOrderedMap(token)
	case QueryUnordered:
		if token != "" {
			return nil, fmt.Errorf("%w: unordered distinct maps do not resume", ErrInvalidArgument)
		}
		return NewUnorderedMap(), nil
	default:
		return nil, fmt.Errorf("%w: query type %s", ErrInvalidArgument, queryType)
	}
}

// OrderedMap relies on the query returning equal values next to each
// other, so it only remembers the hash of the last value.
type OrderedMap struct {
	lastHash wide.Uint128
	hasLast  bool
}

// NewOrderedMap returns an ordered map, resuming after the value whose hash
// is encoded in token when token is not empty.
func NewOrderedMap(token string) (*OrderedMap, error) {
	m := &OrderedMap{}
	if token == "" {
		return m, nil
	}
	h, err := wide.ParseUint128(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedToken, token, err)
	}
	m.lastHash, m.hasLast = h, true
	return m, nil
}

// Add reports whether e differs from the previous value.
func (m *OrderedMap) Add(e element.Element) (bool, error) {
	if !knownKind(e) {
		return false, fmt.Errorf("%w: element kind %d", ErrInvalidArgument, e.Kind())
	}
	h := Hash(e)
	if m.hasLast && h == m.lastHash {
		return false, nil
	}
	m.lastHash, m.hasLast = h, true
	return true, nil
}

// Continuation returns the last hash in wide.Uint128 string form.
func (m *OrderedMap) Continuation() string {
	if !m.hasLast {
		return ""
	}
	return m.lastHash.String()
}

// Bits of UnorderedMap.simple.
const (
	simpleUndefined uint8 = 1 << iota
	simpleNull
	simpleFalse
	simpleTrue
	simpleEmptyString
	simpleEmptyArray
	simpleEmptyObject
)

// UnorderedMap stores short strings and numbers exactly and everything else
// by distinct hash.
type UnorderedMap struct {
	simple    uint8
	numbers   map[uint64]struct{}
	strings4  map[uint32]struct{}
	strings8  map[uint64]struct{}
	strings16 map[wide.Uint128]struct{}
	strings24 map[wide.Uint192]struct{}
	strings   map[wide.Uint128]struct{}
	arrays    map[wide.Uint128]struct{}
	objects   map[wide.Uint128]struct{}
}

// NewUnorderedMap returns an empty unordered map.
func NewUnorderedMap() *UnorderedMap {
	return &UnorderedMap{
		numbers:   make(map[uint64]struct{}),
		strings4:  make(map[uint32]struct{}),
		strings8:  make(map[uint64]struct{}),
		strings16: make(map[wide.Uint128]struct{}),
		strings24: make(map[wide.Uint192]struct{}),
		strings:   make(map[wide.Uint128]struct{}),
		arrays:    make(map[wide.Uint128]struct{}),
		objects:   make(map[wide.Uint128]struct{}),
	}
}

// Add reports whether e has not been added before.
func (m *UnorderedMap) Add(e element.Element) (bool, error) {
	switch e.Kind() {
	case element.KindUndefined:
		return m.addSimple(simpleUndefined), nil
	case element.KindNull:
		return m.addSimple(simpleNull), nil
	case element.KindBoolean:
		if e.Bool() {
			return m.addSimple(simpleTrue), nil
		}
		return m.addSimple(simpleFalse), nil
	case element.KindNumber:
		return insert(m.numbers, math.Float64bits(normalizeZero(e.Number()))), nil
	case element.KindString:
		return m.addString(e), nil
	case element.KindArray:
		if e.Len() == 0 {
			return m.addSimple(simpleEmptyArray), nil
		}
		return insert(m.arrays, Hash(e)), nil
	case element.KindObject:
		if e.Len() == 0 {
			return m.addSimple(simpleEmptyObject), nil
		}
		return insert(m.objects, Hash(e)), nil
	default:
		return false, fmt.Errorf("%w: element kind %d", ErrInvalidArgument, e.Kind())
	}
}

// Continuation returns "" because unordered maps do not resume.
func (m *UnorderedMap) Continuation() string { return "" }

func (m *UnorderedMap) addSimple(bit uint8) bool {
	if m.simple&bit != 0 {
		return false
	}
	m.simple |= bit
	return true
}

// addString keeps strings of up to 24 UTF-8 bytes exactly, zero padded
// into the smallest bucket that fits. Strings ending in a zero byte would
// collide with their unpadded prefix, so they are hashed instead.
func (m *UnorderedMap) addString(e element.Element) bool {
	s := e.Str()
	n := len(s)
	if n == 0 {
		return m.addSimple(simpleEmptyString)
	}
	if n > 24 || s[n-1] == 0 {
		return insert(m.strings, Hash(e))
	}

	var buf [24]byte
	copy(buf[:], s)
	switch {
	case n <= 4:
		return insert(m.strings4, binary.LittleEndian.Uint32(buf[:4]))
	case n <= 8:
		return insert(m.strings8, binary.LittleEndian.Uint64(buf[:8]))
	case n <= 16:
		v, _ := wide.Uint128FromBytes(buf[:16])
		return insert(m.strings16, v)
	default:
		v, _ := wide.Uint192FromBytes(buf[:])
		return insert(m.strings24, v)
	}
}

func insert[K comparable](set map[K]struct{}, key K) bool {
	if _, ok := set[key]; ok {
		return false
	}
	set[key] = struct{}{}
	return true
}

func knownKind(e element.Element) bool {
	switch e.Kind() {
	case element.KindUndefined, element.KindNull, element.KindBoolean, element.KindNumber,
		element.KindString, element.KindArray, element.KindObject:
		return true
	}
	return false
}
