package pkhash

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epkroute/epkroute-go/element"
)

// TestEffectivePartitionKeyServerCompatibility pins keys the server derives.
// CRITICAL: These test vectors must match exactly or routing will fail.
func TestEffectivePartitionKeyServerCompatibility(t *testing.T) {
	testVectors := []struct {
		name       string
		components []element.Element
		v1         string
		v2         string
		rng        string
	}{
		{
			"number", []element.Element{element.Number(5)},
			"05C1D9C1C5517C05C014", "19C08621B135968252FB34B4CF66F811", "05C014",
		},
		{
			"string", []element.Element{element.String("hello")},
			"05C1EFF74961FE0869666D6D7000", "0A8B5792B7BA3C7C47B0D1305A3C6F8A", "0869666D6D7000",
		},
		{
			"true", []element.Element{element.Bool(true)},
			"05C1D7C5A903D803", "0E711127C5B5A8E4726AC6DD306A3E59", "03",
		},
		{
			"null", []element.Element{element.Null()},
			"05C1ED45D7475601", "378867E4430E67857ACE5C908374FE16", "01",
		},
		{
			"undefined", []element.Element{element.Undefined()},
			"05C1D529E345DC00", "11622DAA78F835834610ABE56EFF5CB5", "00",
		},
		{
			"empty string", []element.Element{element.String("")},
			"05C1CF33970FF80800", "32E9366E637A71B4E710384B2F4970A0", "0800",
		},
		{
			"compound", []element.Element{element.String("hello"), element.Number(5)},
			"05C1EBEB09D5660869666D6D700005C014", "225B16CB3F30EC51ED3D1C55CBAD2201", "0869666D6D700005C014",
		},
		{
			"long string",
			[]element.Element{element.String(strings.Repeat("a", 150))},
			"05C1EB5921F70608" + strings.Repeat("62", 100) + "00",
			"319C4E8C8F7247700B7F8E38B72390B6",
			"08" + strings.Repeat("62", 101),
		},
	}

	for _, tv := range testVectors {
		t.Run(tv.name, func(t *testing.T) {
			got, err := EffectivePartitionKey(KindHash, V1, tv.components...)
			require.NoError(t, err)
			assert.Equal(t, tv.v1, got, "V1")

			got, err = EffectivePartitionKey(KindHash, V2, tv.components...)
			require.NoError(t, err)
			assert.Equal(t, tv.v2, got, "V2")

			got, err = EffectivePartitionKey(KindRange, V1, tv.components...)
			require.NoError(t, err)
			assert.Equal(t, tv.rng, got, "Range")
		})
	}

	t.Run("multi hash concatenates per component keys", func(t *testing.T) {
		got, err := EffectivePartitionKey(KindMultiHash, V2, element.String("hello"), element.Number(5))
		require.NoError(t, err)
		assert.Equal(t, "0A8B5792B7BA3C7C47B0D1305A3C6F8A19C08621B135968252FB34B4CF66F811", got)
	})
}

func TestEffectivePartitionKeyBounds(t *testing.T) {
	t.Run("no components is the minimum key", func(t *testing.T) {
		got, err := EffectivePartitionKey(KindHash, V2)
		require.NoError(t, err)
		assert.Equal(t, MinInclusiveEffectivePartitionKey, got)
	})

	t.Run("V2 keys sort below the maximum", func(t *testing.T) {
		for _, e := range []element.Element{element.Null(), element.Bool(false), element.Number(-1), element.String("zzz")} {
			got, err := EffectivePartitionKey(KindHash, V2, e)
			require.NoError(t, err)
			assert.Less(t, got, MaxExclusiveEffectivePartitionKey)
			assert.Len(t, got, 32)
		}
	})
}

func TestEffectivePartitionKeyErrors(t *testing.T) {
	t.Run("rejects non scalar components", func(t *testing.T) {
		_, err := EffectivePartitionKey(KindHash, V2, element.Array(element.Int(1)))
		assert.True(t, errors.Is(err, ErrInvalidComponent))
	})

	t.Run("rejects oversized strings for V2", func(t *testing.T) {
		long := element.String(strings.Repeat("a", MaxV2StringBytes+1))
		_, err := EffectivePartitionKey(KindHash, V2, long)
		assert.True(t, errors.Is(err, ErrOutOfRange))
		_, err = EffectivePartitionKey(KindMultiHash, V2, long)
		assert.True(t, errors.Is(err, ErrOutOfRange))

		_, err = EffectivePartitionKey(KindHash, V1, long)
		assert.NoError(t, err)
	})

	t.Run("rejects unknown versions and kinds", func(t *testing.T) {
		_, err := EffectivePartitionKey(KindHash, Version(9), element.Null())
		assert.True(t, errors.Is(err, ErrUnsupportedVersion))
		_, err = EffectivePartitionKey(Kind("Spatial"), V1, element.Null())
		assert.Error(t, err)
	})
}

func TestNumberEncoding(t *testing.T) {
	tests := []struct {
		in   float64
		want []byte
	}{
		{5, []byte{0x05, 0xC0, 0x14}},
		{-1, []byte{0x05, 0x40, 0x10}},
		{0, []byte{0x05, 0x80, 0x00}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, appendNumber(nil, tt.in), "encoding %v", tt.in)
	}

	t.Run("encoding preserves order", func(t *testing.T) {
		values := []float64{-1e10, -2.5, -1, 0, 0.5, 1, 5, 374, 1e10}
		for i := 1; i < len(values); i++ {
			prev := string(appendNumber(nil, values[i-1]))
			cur := string(appendNumber(nil, values[i]))
			assert.Less(t, prev, cur, "%v < %v", values[i-1], values[i])
		}
	})
}
