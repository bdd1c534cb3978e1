package runes

import "github.com/holiman/uint256"

// putVarint appends n encoded as a LEB128 variable-length integer (7 data
// bits per byte, high bit set on every byte but the last), the integer
// encoding the Runestone payload uses for every tag and value so a 128-bit
// amount and a one-byte divisibility cost proportional space.
func putVarint(dst []byte, n uint256.Int) []byte {
	for {
		b := byte(n.Uint64() & 0x7f)
		n.Rsh(&n, 7)
		if n.IsZero() {
			dst = append(dst, b)
			return dst
		}
		dst = append(dst, b|0x80)
	}
}

func putVarintUint64(dst []byte, n uint64) []byte {
	var v uint256.Int
	v.SetUint64(n)
	return putVarint(dst, v)
}

// takeVarint decodes one LEB128 integer from the front of buf, returning the
// value, the number of bytes consumed, and false if buf ends mid-integer or
// the value would overflow 128 bits (the protocol's field width).
func takeVarint(buf []byte) (uint256.Int, int, bool) {
	var out uint256.Int
	var shift uint
	for i, b := range buf {
		if shift >= 128 {
			return uint256.Int{}, 0, false
		}
		var chunk uint256.Int
		chunk.SetUint64(uint64(b & 0x7f))
		chunk.Lsh(&chunk, shift)
		out.Or(&out, &chunk)
		if out.BitLen() > 128 {
			return uint256.Int{}, 0, false
		}
		if b&0x80 == 0 {
			return out, i + 1, true
		}
		shift += 7
	}
	return uint256.Int{}, 0, false
}

// takeIntegers decodes every varint in buf in sequence. It returns false if
// a trailing partial integer is found, mirroring the protocol rule that a
// truncated payload makes the artifact a Cenotaph.
func takeIntegers(buf []byte) ([]uint256.Int, bool) {
	var out []uint256.Int
	for len(buf) > 0 {
		v, n, ok := takeVarint(buf)
		if !ok {
			return nil, false
		}
		out = append(out, v)
		buf = buf[n:]
	}
	return out, true
}

// fitsUint64 reports whether v is representable as a uint64, used for
// fields (heights, offsets, divisibility, pointer, output index) that are
// logically narrower than the 128-bit amount field.
func fitsUint64(v uint256.Int) (uint64, bool) {
	if v.BitLen() > 64 {
		return 0, false
	}
	return v.Uint64(), true
}

func amountFromUint256(v uint256.Int) (Amount, bool) {
	if v.BitLen() > 128 {
		return Amount{}, false
	}
	return Amount{v: v}, true
}
