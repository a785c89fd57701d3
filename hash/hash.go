// Package hash provides the hash functions used for partition key routing
// and distinct-value deduplication.
//
// CRITICAL: These hash functions must produce identical results to the
// server's implementation. The server computes effective partition keys
// independently, so any deviation routes documents to the wrong partition.
//
//   - Murmur128: MurmurHash3 x64 128-bit with a full 128-bit seed
//   - Murmur32: MurmurHash3 x86 32-bit (legacy V1 partition keys)
//
// Input bytes are always read as little-endian words regardless of the host
// byte order.
package hash

import (
	"encoding/binary"
	"math"

	"github.com/twmb/murmur3"

	"github.com/epkroute/epkroute-go/wide"
)

// Murmur128 computes MurmurHash3 x64-128 of data.
//
// The low seed limb initializes h1 and the high limb initializes h2. With a
// zero seed the output matches the reference implementation.
//
// Example:
//
//	h := Murmur128([]byte("afdgdd"), wide.Zero128)
func Murmur128(data []byte, seed wide.Uint128) wide.Uint128 {
	h1, h2 := murmur3.SeedSum128(seed.Lo, seed.Hi, data)
	return wide.New128(h1, h2)
}

// Murmur128String hashes the UTF-8 bytes of s.
func Murmur128String(s string, seed wide.Uint128) wide.Uint128 {
	return Murmur128([]byte(s), seed)
}

// Murmur128Bool hashes a single byte, 1 for true and 0 for false.
func Murmur128Bool(b bool, seed wide.Uint128) wide.Uint128 {
	var v [1]byte
	if b {
		v[0] = 1
	}
	return Murmur128(v[:], seed)
}

// Murmur128Float64 hashes the little-endian IEEE-754 bit pattern of f.
func Murmur128Float64(f float64, seed wide.Uint128) wide.Uint128 {
	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], math.Float64bits(f))
	return Murmur128(v[:], seed)
}

// Murmur128Uint64 hashes the little-endian bytes of v.
func Murmur128Uint64(v uint64, seed wide.Uint128) wide.Uint128 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return Murmur128(b[:], seed)
}

// Murmur128Uint128 hashes the 16-byte little-endian layout of v.
func Murmur128Uint128(v wide.Uint128, seed wide.Uint128) wide.Uint128 {
	b := v.Bytes()
	return Murmur128(b[:], seed)
}

// Murmur32 computes MurmurHash3 x86-32 of data.
//
// This is the legacy V1 partition key hash and MUST use seed 0 to match the
// server.
func Murmur32(data []byte, seed uint32) uint32 {
	return murmur3.SeedSum32(seed, data)
}
