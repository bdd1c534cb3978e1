package runes

// Field tags used in the Runestone integer payload. Even tags must be
// understood by a decoder; an unrecognized even tag makes the artifact a
// Cenotaph. Odd tags may be skipped by decoders that don't recognize them
// (reserved for forward-compatible extensions), mirroring the "even tags
// are for fields that must be understood" rule documented across the
// public Runes protocol write-ups the ordinals crate implements.
const (
	tagBody         uint64 = 0
	tagFlags        uint64 = 2
	tagRune         uint64 = 4
	tagPremine      uint64 = 6
	tagCap          uint64 = 8
	tagAmount       uint64 = 10
	tagHeightStart  uint64 = 12
	tagHeightEnd    uint64 = 14
	tagOffsetStart  uint64 = 16
	tagOffsetEnd    uint64 = 18
	tagMint         uint64 = 20
	tagPointer      uint64 = 22
	tagDivisibility uint64 = 1
	tagSpacers      uint64 = 3
	tagSymbol       uint64 = 5
	tagNop          uint64 = 127
)

const (
	flagEtching uint64 = 1 << 0
	flagTerms   uint64 = 1 << 1
	flagTurbo   uint64 = 1 << 2
	// Any flag bit beyond the ones this decoder recognizes forces a
	// Cenotaph, same as an unrecognized even tag.
	flagsKnownMask uint64 = flagEtching | flagTerms | flagTurbo
)

// isEvenTag reports whether a tag must be understood by the decoder.
func isEvenTag(tag uint64) bool { return tag%2 == 0 }

func isKnownTag(tag uint64) bool {
	switch tag {
	case tagBody, tagFlags, tagRune, tagPremine, tagCap, tagAmount,
		tagHeightStart, tagHeightEnd, tagOffsetStart, tagOffsetEnd,
		tagMint, tagPointer, tagDivisibility, tagSpacers, tagSymbol, tagNop:
		return true
	default:
		return false
	}
}

// runestonePayloadMagic is the OP_13 ("magic number 13") push-number opcode
// that must immediately follow OP_RETURN for an output to carry a
// Runestone payload.
const runestonePayloadMagic = 0x5d // OP_13
