// Package distinct hashes whole JSON-like values for duplicate elimination
// and keeps compact sets of values already seen.
package distinct

import (
	"fmt"

	"github.com/epkroute/epkroute-go/element"
	"github.com/epkroute/epkroute-go/hash"
	"github.com/epkroute/epkroute-go/wide"
)

// Seeds are Murmur128("distinct/<kind>", 0). They are part of the
// continuation contract and must not change.
var (
	RootSeed = wide.New128(0xcf7cb96c253b3f3f, 0x61d80eaed1d70acd)

	nullSeed         = wide.New128(0xd3e72908a9b17690, 0x2e0c149bd171b688)
	falseSeed        = wide.New128(0x6257ee234009d7b6, 0x7e509044f44b214c)
	trueSeed         = wide.New128(0xaf36eec21013b707, 0x7c1d73c96e80f978)
	numberSeed       = wide.New128(0x671a81c13c8b26b6, 0x65203664b9a11d83)
	stringSeed       = wide.New128(0xcb106879978f3d87, 0x5a3e3bd0cbe57334)
	arraySeed        = wide.New128(0x44142c7579df2015, 0x9d9e33e258ae7d45)
	objectSeed       = wide.New128(0x5625f9987d7521a8, 0x88afb17408f95bee)
	arrayIndexSeed   = wide.New128(0x76e0962c083cab5e, 0x7db141b0346f0b91)
	propertyNameSeed = wide.New128(0x515f428a51948328, 0x6302fee1e63edf34)
)

// Hash returns the distinct hash of e under RootSeed.
func Hash(e element.Element) wide.Uint128 {
	return HashWithSeed(e, RootSeed)
}

// HashWithSeed hashes e structurally. Array element order matters and
// object property order does not. Undefined returns seed unchanged.
func HashWithSeed(e element.Element, seed wide.Uint128) wide.Uint128 {
	switch e.Kind() {
	case element.KindUndefined:
		return seed
	case element.KindNull:
		return hash.Murmur128Uint128(nullSeed, seed)
	case element.KindBoolean:
		if e.Bool() {
			return hash.Murmur128Uint128(trueSeed, seed)
		}
		return hash.Murmur128Uint128(falseSeed, seed)
	case element.KindNumber:
		return hash.Murmur128Float64(normalizeZero(e.Number()), hash.Murmur128Uint128(numberSeed, seed))
	case element.KindString:
		return hash.Murmur128String(e.Str(), hash.Murmur128Uint128(stringSeed, seed))
	case element.KindArray:
		return hashArray(e, seed)
	case element.KindObject:
		return hashObject(e, seed)
	default:
		panic(fmt.Sprintf("distinct: unknown element kind %d", e.Kind()))
	}
}

func hashArray(e element.Element, seed wide.Uint128) wide.Uint128 {
	h := hash.Murmur128Uint128(arraySeed, seed)
	for i, item := range e.Items() {
		itemHash := HashWithSeed(item, arrayIndexSeed.Add64(uint64(i)))
		h = hash.Murmur128Uint128(itemHash, h)
	}
	return h
}

// hashObject XORs the per-property hashes so that order cancels out. Each
// property is seeded by its name, so equal values under different names
// do not cancel.
func hashObject(e element.Element, seed wide.Uint128) wide.Uint128 {
	h := hash.Murmur128Uint128(objectSeed, seed)
	var acc wide.Uint128
	for _, p := range e.Properties() {
		nameSeed := hash.Murmur128String(p.Name, propertyNameSeed)
		acc = acc.Xor(HashWithSeed(p.Value, nameSeed))
	}
	if !acc.IsZero() {
		h = hash.Murmur128Uint128(acc, h)
	}
	return h
}

// normalizeZero maps -0 to +0 so that equal numbers hash equally.
func normalizeZero(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}
