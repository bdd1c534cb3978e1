package runes

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<64 - 1}
	for _, v := range values {
		var n uint256.Int
		n.SetUint64(v)

		encoded := putVarint(nil, n)
		decoded, consumed, ok := takeVarint(encoded)
		require.True(t, ok)
		require.Equal(t, len(encoded), consumed)
		require.Equal(t, v, decoded.Uint64())
	}
}

func TestTakeVarintTruncated(t *testing.T) {
	_, _, ok := takeVarint([]byte{0x80, 0x80})
	require.False(t, ok)
}

func TestTakeIntegersSequence(t *testing.T) {
	var buf []byte
	buf = putVarintUint64(buf, 1)
	buf = putVarintUint64(buf, 300)
	buf = putVarintUint64(buf, 70000)

	values, ok := takeIntegers(buf)
	require.True(t, ok)
	require.Len(t, values, 3)
	require.Equal(t, uint64(1), values[0].Uint64())
	require.Equal(t, uint64(300), values[1].Uint64())
	require.Equal(t, uint64(70000), values[2].Uint64())
}

func TestTakeIntegersRejectsTrailingPartial(t *testing.T) {
	buf := putVarintUint64(nil, 1)
	buf = append(buf, 0x80)
	_, ok := takeIntegers(buf)
	require.False(t, ok)
}

func TestFitsUint64(t *testing.T) {
	var small uint256.Int
	small.SetUint64(42)
	v, ok := fitsUint64(small)
	require.True(t, ok)
	require.Equal(t, uint64(42), v)

	var big uint256.Int
	big.SetAllOne()
	_, ok = fitsUint64(big)
	require.False(t, ok)
}
