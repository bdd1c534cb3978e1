package runes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAmountAddOverflow(t *testing.T) {
	_, ok := MaxAmount().Add(NewAmount(1))
	require.False(t, ok)

	sum, ok := NewAmount(1).Add(NewAmount(2))
	require.True(t, ok)
	require.Equal(t, "3", sum.String())
}

func TestAmountSubUnderflow(t *testing.T) {
	_, ok := NewAmount(1).Sub(NewAmount(2))
	require.False(t, ok)

	diff, ok := NewAmount(5).Sub(NewAmount(2))
	require.True(t, ok)
	require.Equal(t, "3", diff.String())
}

func TestAmountMulOverflow(t *testing.T) {
	_, ok := MaxAmount().Mul(NewAmount(2))
	require.False(t, ok)

	prod, ok := NewAmount(4).Mul(NewAmount(5))
	require.True(t, ok)
	require.Equal(t, "20", prod.String())
}

func TestAmountDiv(t *testing.T) {
	q, ok := NewAmount(10).div(3)
	require.True(t, ok)
	require.Equal(t, "3", q.String())

	_, ok = NewAmount(10).div(0)
	require.False(t, ok)
}

func TestAmountBytes16RoundTrip(t *testing.T) {
	a := NewAmount(123456789)
	require.Equal(t, a.String(), AmountFromBytes16(a.Bytes16()).String())
}

func TestAmountDecimalRoundTrip(t *testing.T) {
	a, err := AmountFromDecimal("340282366920938463463374607431768211455")
	require.NoError(t, err)
	require.Equal(t, MaxAmount().String(), a.String())

	_, err = AmountFromDecimal("340282366920938463463374607431768211456")
	require.Error(t, err)
}

func TestAmountJSONRoundTrip(t *testing.T) {
	a := NewAmount(42)
	raw, err := json.Marshal(a)
	require.NoError(t, err)
	require.Equal(t, `"42"`, string(raw))

	var got Amount
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, a.String(), got.String())
}
