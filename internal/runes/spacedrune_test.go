package runes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNameFromValueBijective(t *testing.T) {
	cases := map[uint64]Name{
		0:  "A",
		1:  "B",
		25: "Z",
		26: "AA",
		27: "AB",
		51: "AZ",
		52: "BA",
	}
	for value, want := range cases {
		require.Equal(t, want, nameFromValue(value))
	}
}

func TestValueFromNameInvertsNameFromValue(t *testing.T) {
	for value := uint64(0); value < 1000; value++ {
		name := nameFromValue(value)
		got, ok := valueFromName(name)
		require.True(t, ok)
		require.Equal(t, value, got)
	}
}

func TestValueFromNameRejectsInvalid(t *testing.T) {
	_, ok := valueFromName("")
	require.False(t, ok)

	_, ok = valueFromName("hello")
	require.False(t, ok)

	_, ok = valueFromName("HELLO1")
	require.False(t, ok)
}

func TestSpacedRuneString(t *testing.T) {
	s := SpacedRune{Rune: "HELLOWORLD", Spacers: 1 << 4}
	require.Equal(t, "HELLO•WORLD", s.String())
}

func TestParseSpacedRuneRoundTrip(t *testing.T) {
	s, ok := ParseSpacedRune("HELLO•WORLD")
	require.True(t, ok)
	require.Equal(t, Name("HELLOWORLD"), s.Rune)
	require.Equal(t, "HELLO•WORLD", s.String())
}

func TestParseSpacedRuneRejectsEmpty(t *testing.T) {
	_, ok := ParseSpacedRune("")
	require.False(t, ok)
}
