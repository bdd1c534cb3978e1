package runes

import (
	"strings"
)

// Name is a rune's bare letter sequence (A-Z), the bijective base-26
// encoding the protocol uses so every positive integer maps to exactly one
// name and vice versa (mirrors the ordinals crate's Rune <-> string
// mapping, referenced from types/src/spaced_rune.rs).
type Name string

// nameFromValue renders the bijective base-26 encoding of n: 0 -> "A",
// 1 -> "B", ..., 25 -> "Z", 26 -> "AA", 27 -> "AB", and so on.
func nameFromValue(n uint64) Name {
	if n == ^uint64(0) {
		// Reserved for the largest representable name; avoid the
		// n+1 wraparound in the loop below.
		n--
	}
	var b []byte
	n++
	for n > 0 {
		n--
		b = append(b, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return Name(b)
}

// valueFromName inverts nameFromValue; it returns false if s is not a valid
// bijective base-26 name (empty, or contains bytes outside A-Z).
func valueFromName(s Name) (uint64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'A' || c > 'Z' {
			return 0, false
		}
		n = n*26 + uint64(c-'A') + 1
	}
	return n - 1, true
}

// SpacedRune pairs a rune Name with a bitmask of "spacer" positions between
// letters, used only for display (e.g. HELLO + spacer-after-index-4 renders
// as "HELLO•WORLD" once concatenated with a following name). Spacer bit i
// set means a separator is rendered after the i-th letter.
type SpacedRune struct {
	Rune    Name
	Spacers uint32
}

// String renders the human-readable spaced form, inserting "•" at the bit
// positions recorded in Spacers.
func (s SpacedRune) String() string {
	var b strings.Builder
	for i := 0; i < len(s.Rune); i++ {
		b.WriteByte(s.Rune[i])
		if i < len(s.Rune)-1 && s.Spacers&(1<<uint(i)) != 0 {
			b.WriteString("•")
		}
	}
	return b.String()
}

// ParseSpacedRune parses the display form (letters plus '.' or '•'
// separators, the two separator characters the protocol accepts) back into
// a SpacedRune.
func ParseSpacedRune(s string) (SpacedRune, bool) {
	var letters strings.Builder
	var spacers uint32
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			letters.WriteRune(r)
		case r == '.' || r == '•':
			if letters.Len() == 0 {
				return SpacedRune{}, false
			}
			bit := letters.Len() - 1
			if bit >= 32 {
				return SpacedRune{}, false
			}
			spacers |= 1 << uint(bit)
		default:
			return SpacedRune{}, false
		}
	}
	if letters.Len() == 0 {
		return SpacedRune{}, false
	}
	return SpacedRune{Rune: Name(letters.String()), Spacers: spacers}, true
}

// MinimumNameLengthAtHeight returns the minimum permitted letter count for
// a newly etched rune name at the given block height, per the chain's
// activation schedule (see internal/chainparams). Names exhausted at a
// shorter length become available again once the schedule steps down the
// minimum.
func MinimumNameLengthAtHeight(height uint64, schedule []ActivationStep) int {
	minLen := schedule[0].MinNameLength
	for _, step := range schedule {
		if height >= step.Height {
			minLen = step.MinNameLength
		}
	}
	return minLen
}

// ActivationStep is one entry of a chain's minimum-etching-name-length
// schedule: from Height onward, MinNameLength is the floor.
type ActivationStep struct {
	Height        uint64
	MinNameLength int
}
