package hash

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/epkroute/epkroute-go/wide"
)

func TestMurmur128Consistency(t *testing.T) {
	t.Run("hash bytes consistently", func(t *testing.T) {
		seed := wide.New128(7, 9)
		h1 := Murmur128([]byte("hello"), seed)
		h2 := Murmur128([]byte("hello"), seed)
		assert.Equal(t, h1, h2)
	})

	t.Run("different inputs produce different hashes", func(t *testing.T) {
		assert.NotEqual(t, Murmur128([]byte("hello"), wide.Zero128), Murmur128([]byte("world"), wide.Zero128))
	})

	t.Run("seed halves are independent", func(t *testing.T) {
		data := []byte("seeded")
		assert.NotEqual(t, Murmur128(data, wide.New128(1, 0)), Murmur128(data, wide.New128(0, 1)))
	})

	t.Run("empty input with zero seed is zero", func(t *testing.T) {
		assert.Equal(t, wide.Zero128, Murmur128(nil, wide.Zero128))
	})
}

// TestServerCompatibility pins outputs that the server computes independently.
// CRITICAL: These test vectors must match exactly or routing will fail.
func TestServerCompatibility(t *testing.T) {
	t.Run("known 128-bit values", func(t *testing.T) {
		var f374 [8]byte
		binary.LittleEndian.PutUint64(f374[:], math.Float64bits(374.0))

		testVectors := []struct {
			name string
			data []byte
			seed wide.Uint128
			want wide.Uint128
		}{
			{"afdgdd", []byte("afdgdd"), wide.Zero128, wide.New128(0x26c1a9131d9f2920, 0xd1223b182faa5655)},
			{"374.0", f374[:], wide.Zero128, wide.New128(0xe6c5b08060700497, 0x002e051dc663ea56)},
			{"hello", []byte("hello"), wide.Zero128, wide.New128(0xcbd8a7b341bd9b02, 0x5b1e906a48ae1d19)},
			{"hello wide seed", []byte("hello"), wide.New128(1, 2), wide.New128(0x34431b79a44e6720, 0x11f8469c8337f8f3)},
			{"15 bytes", sequence(15), wide.Zero128, wide.New128(0x47231598fd4925e9, 0xcd846dee88c67de9)},
			{"16 bytes", sequence(16), wide.Zero128, wide.New128(0x444924b591903f30, 0xab906456762fe845)},
			{"17 bytes", sequence(17), wide.Zero128, wide.New128(0x5c76f40f9fe7c20e, 0xc15f026b9edaa824)},
			{"31 bytes", sequence(31), wide.Zero128, wide.New128(0x053dd3e1a32cd094, 0x9ee59aefb4005490)},
			{"32 bytes", sequence(32), wide.Zero128, wide.New128(0xc66d9022b62f500f, 0x1c050a6e34c31151)},
			{"33 bytes", sequence(33), wide.Zero128, wide.New128(0x7d41281bfaba4612, 0x55ac8073a7d6a30b)},
		}

		for _, tv := range testVectors {
			got := Murmur128(tv.data, tv.seed)
			if got != tv.want {
				t.Errorf("Murmur128 mismatch for %s: expected %#x/%#x, got %#x/%#x",
					tv.name, tv.want.Lo, tv.want.Hi, got.Lo, got.Hi)
			}
		}
	})

	t.Run("known 32-bit values", func(t *testing.T) {
		var f374 [8]byte
		binary.LittleEndian.PutUint64(f374[:], math.Float64bits(374.0))

		assert.Equal(t, uint32(1099701186), Murmur32([]byte("afdgdd"), 0))
		assert.Equal(t, uint32(3717946798), Murmur32(f374[:], 0))
	})

	t.Run("every tail length hashes distinctly", func(t *testing.T) {
		seen := make(map[wide.Uint128]int)
		for n := 0; n <= 64; n++ {
			h := Murmur128(sequence(n), wide.Zero128)
			prev, dup := seen[h]
			assert.False(t, dup, "length %d collides with length %d", n, prev)
			seen[h] = n
		}
	})
}

func TestConcurrentHashing(t *testing.T) {
	// Run with -race: hashing must not trip pointer checks or share state.
	want128 := Murmur128([]byte("afdgdd"), wide.Zero128)
	want32 := Murmur32([]byte("afdgdd"), 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				data := sequence(j % 40)
				Murmur128(data, wide.New128(uint64(j), 1))
				Murmur32(data, uint32(j))
				if got := Murmur128([]byte("afdgdd"), wide.Zero128); got != want128 {
					t.Errorf("Murmur128 = %v, want %v", got, want128)
					return
				}
				if got := Murmur32([]byte("afdgdd"), 0); got != want32 {
					t.Errorf("Murmur32 = %d, want %d", got, want32)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestTypedOverloads(t *testing.T) {
	seed := wide.New128(0xAB, 0xCD)

	t.Run("string hashes its UTF-8 bytes", func(t *testing.T) {
		s := "Hello 世界 🌍"
		assert.Equal(t, Murmur128([]byte(s), seed), Murmur128String(s, seed))
	})

	t.Run("bool hashes a single byte", func(t *testing.T) {
		assert.Equal(t, Murmur128([]byte{1}, seed), Murmur128Bool(true, seed))
		assert.Equal(t, Murmur128([]byte{0}, seed), Murmur128Bool(false, seed))
	})

	t.Run("float64 hashes its bit pattern", func(t *testing.T) {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(374.0))
		assert.Equal(t, Murmur128(b[:], seed), Murmur128Float64(374.0, seed))
	})

	t.Run("uint64 and uint128 hash their layouts", func(t *testing.T) {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], 42)
		assert.Equal(t, Murmur128(b[:], seed), Murmur128Uint64(42, seed))

		v := wide.New128(1, 2)
		vb := v.Bytes()
		assert.Equal(t, Murmur128(vb[:], seed), Murmur128Uint128(v, seed))
	})
}

func sequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// BenchmarkMurmur128 benchmarks the 128-bit hash on a short key.
func BenchmarkMurmur128(b *testing.B) {
	key := []byte("test-partition-key")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Murmur128(key, wide.Zero128)
	}
}

// BenchmarkMurmur32 benchmarks the legacy 32-bit hash.
func BenchmarkMurmur32(b *testing.B) {
	key := []byte("test-partition-key")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Murmur32(key, 0)
	}
}
