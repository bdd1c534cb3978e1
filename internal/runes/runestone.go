package runes

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/holiman/uint256"
)

// Etching is the set of fields present when a transaction's Runestone
// creates a new rune.
type Etching struct {
	Rune         *SpacedRune
	Divisibility uint8
	Symbol       rune
	Premine      Amount
	Terms        *Terms
	Turbo        bool
}

// Artifact is whatever a transaction's OP_RETURN payload deciphers to: a
// well-formed Runestone, or a Cenotaph when the payload is malformed or
// uses a feature this decoder doesn't recognize. Exactly one of the two
// concrete types is ever returned by Decipher.
type Artifact interface {
	isArtifact()
}

// Runestone is a transaction's well-formed rune instruction set.
type Runestone struct {
	Edicts  []Edict
	Etching *Etching
	Mint    *Id
	Pointer *uint32
}

func (*Runestone) isArtifact() {}

// Cenotaph is a malformed or forward-incompatible Runestone. Per protocol,
// a Cenotaph burns every rune held by the transaction's inputs and etches
// no new rune, even if an Etching field was present in the payload.
type Cenotaph struct {
	// EtchedRune is set when the payload named a rune to etch; the
	// etching is voided but the name is still permanently reserved so it
	// can never be etched again.
	EtchedRune *SpacedRune
}

func (*Cenotaph) isArtifact() {}

// Decipher scans tx's outputs for an OP_RETURN carrying OP_13 followed by a
// Runestone payload, decodes it, and returns the resulting Artifact. It
// returns (nil, nil) when the transaction carries no Runestone at all.
func Decipher(tx *wire.MsgTx) (Artifact, error) {
	payload, found, malformed := findPayload(tx)
	if !found {
		return nil, nil
	}
	if malformed {
		return &Cenotaph{}, nil
	}
	ints, ok := takeIntegers(payload)
	if !ok {
		return &Cenotaph{}, nil
	}
	return decodePayload(tx, ints), nil
}

// findPayload locates the first output matching OP_RETURN OP_13 <data...>
// and returns the concatenation of every subsequent data push. malformed is
// set when the script was found but its trailing bytes don't parse as
// pushes, which also forces a Cenotaph.
func findPayload(tx *wire.MsgTx) (payload []byte, found, malformed bool) {
	for _, out := range tx.TxOut {
		script := out.PkScript
		tok := txscript.MakeScriptTokenizer(0, script)
		if !tok.Next() || tok.Opcode() != txscript.OP_RETURN {
			continue
		}
		if !tok.Next() || tok.Opcode() != runestonePayloadMagic {
			continue
		}
		for tok.Next() {
			payload = append(payload, tok.Data()...)
		}
		return payload, true, tok.Err() != nil
	}
	return nil, false, false
}

// decodePayload interprets the payload's integer stream as tag/value pairs
// followed by a Body-tagged edict run, per the field tags in tags.go.
func decodePayload(tx *wire.MsgTx, ints []uint256.Int) Artifact {
	fields := map[uint64][]uint256.Int{}
	var edictInts []uint256.Int
	cenotaph := false

	i := 0
	for i < len(ints) {
		tagV := ints[i]
		if tagV.BitLen() > 64 {
			cenotaph = true
			i++
			continue
		}
		tag := tagV.Uint64()
		i++
		if tag == tagBody {
			edictInts = append(edictInts, ints[i:]...)
			i = len(ints)
			break
		}
		if i >= len(ints) {
			cenotaph = true
			break
		}
		if !isKnownTag(tag) {
			if isEvenTag(tag) {
				cenotaph = true
			}
			i++ // odd unknown tags are skipped along with their single value
			continue
		}
		fields[tag] = append(fields[tag], ints[i])
		i++
	}

	edicts, ok := decodeEdicts(edictInts)
	if !ok {
		cenotaph = true
	}

	flags := firstUint64(fields[tagFlags])
	if flags&^flagsKnownMask != 0 {
		cenotaph = true
	}

	var etching *Etching
	var etchedName *SpacedRune
	if flags&flagEtching != 0 {
		e, name, ok := decodeEtching(fields, flags)
		etchedName = name
		if !ok {
			cenotaph = true
		} else {
			etching = e
		}
	}

	var mint *Id
	if vals := fields[tagMint]; len(vals) > 0 {
		packed, ok := fitsUint64(vals[0])
		if !ok {
			cenotaph = true
		} else {
			id := Id{Block: packed >> 32, Tx: uint32(packed)}
			mint = &id
		}
	}

	var pointer *uint32
	if vals := fields[tagPointer]; len(vals) > 0 {
		v, ok := fitsUint64(vals[0])
		if !ok || v > uint64(len(tx.TxOut)) {
			cenotaph = true
		} else {
			p := uint32(v)
			pointer = &p
		}
	}

	if cenotaph {
		return &Cenotaph{EtchedRune: etchedName}
	}

	return &Runestone{Edicts: edicts, Etching: etching, Mint: mint, Pointer: pointer}
}

func firstUint64(vals []uint256.Int) uint64 {
	if len(vals) == 0 {
		return 0
	}
	v, ok := fitsUint64(vals[0])
	if !ok {
		return ^uint64(0) // forces flagsKnownMask check below to trip Cenotaph
	}
	return v
}

func decodeEtching(fields map[uint64][]uint256.Int, flags uint64) (*Etching, *SpacedRune, bool) {
	e := &Etching{Turbo: flags&flagTurbo != 0}

	var name *SpacedRune
	if vals := fields[tagRune]; len(vals) > 0 {
		v, ok := fitsUint64(vals[0])
		if !ok {
			return nil, nil, false
		}
		spacers := uint32(0)
		if sv := fields[tagSpacers]; len(sv) > 0 {
			s, ok := fitsUint64(sv[0])
			if !ok {
				return nil, nil, false
			}
			spacers = uint32(s)
		}
		sr := SpacedRune{Rune: nameFromValue(v), Spacers: spacers}
		e.Rune = &sr
		name = &sr
	}

	if vals := fields[tagDivisibility]; len(vals) > 0 {
		v, ok := fitsUint64(vals[0])
		if !ok || v > 38 {
			return nil, name, false
		}
		e.Divisibility = uint8(v)
	}

	if vals := fields[tagSymbol]; len(vals) > 0 {
		v, ok := fitsUint64(vals[0])
		if !ok {
			return nil, name, false
		}
		e.Symbol = rune(v)
	} else {
		e.Symbol = '¤'
	}

	if vals := fields[tagPremine]; len(vals) > 0 {
		amt, ok := amountFromUint256(vals[0])
		if !ok {
			return nil, name, false
		}
		e.Premine = amt
	}

	if flags&flagTerms != 0 {
		terms := &Terms{}
		if vals := fields[tagAmount]; len(vals) > 0 {
			amt, ok := amountFromUint256(vals[0])
			if !ok {
				return nil, name, false
			}
			terms.Amount = amt
		}
		if vals := fields[tagCap]; len(vals) > 0 {
			v, ok := fitsUint64(vals[0])
			if !ok {
				return nil, name, false
			}
			terms.Cap = &v
		}
		terms.HeightStart = optionalUint64(fields[tagHeightStart])
		terms.HeightEnd = optionalUint64(fields[tagHeightEnd])
		terms.OffsetStart = optionalUint64(fields[tagOffsetStart])
		terms.OffsetEnd = optionalUint64(fields[tagOffsetEnd])
		e.Terms = terms
	}

	return e, name, true
}

func optionalUint64(vals []uint256.Int) *uint64 {
	if len(vals) == 0 {
		return nil
	}
	v, ok := fitsUint64(vals[0])
	if !ok {
		return nil
	}
	return &v
}

// Encode renders r back into an OP_RETURN payload script, the inverse of
// Decipher's payload parsing. Used by tests and by anything that needs to
// construct a synthetic Runestone transaction.
func (r *Runestone) Encode() []byte {
	var ints []byte
	push := func(tag uint64, n uint64) {
		ints = putVarintUint64(ints, tag)
		ints = putVarintUint64(ints, n)
	}

	if r.Etching != nil {
		flags := flagEtching
		if r.Etching.Terms != nil {
			flags |= flagTerms
		}
		if r.Etching.Turbo {
			flags |= flagTurbo
		}
		push(tagFlags, flags)
		if r.Etching.Rune != nil {
			v, _ := valueFromName(r.Etching.Rune.Rune)
			push(tagRune, v)
			if r.Etching.Rune.Spacers != 0 {
				push(tagSpacers, uint64(r.Etching.Rune.Spacers))
			}
		}
		if r.Etching.Divisibility != 0 {
			push(tagDivisibility, uint64(r.Etching.Divisibility))
		}
		if r.Etching.Symbol != 0 {
			push(tagSymbol, uint64(r.Etching.Symbol))
		}
		if !r.Etching.Premine.IsZero() {
			ints = putVarintUint64(ints, tagPremine)
			ints = putVarint(ints, r.Etching.Premine.v)
		}
		if t := r.Etching.Terms; t != nil {
			ints = putVarintUint64(ints, tagAmount)
			ints = putVarint(ints, t.Amount.v)
			if t.Cap != nil {
				push(tagCap, *t.Cap)
			}
			if t.HeightStart != nil {
				push(tagHeightStart, *t.HeightStart)
			}
			if t.HeightEnd != nil {
				push(tagHeightEnd, *t.HeightEnd)
			}
			if t.OffsetStart != nil {
				push(tagOffsetStart, *t.OffsetStart)
			}
			if t.OffsetEnd != nil {
				push(tagOffsetEnd, *t.OffsetEnd)
			}
		}
	}

	if r.Mint != nil {
		push(tagMint, r.Mint.Block<<32|uint64(r.Mint.Tx))
	}
	if r.Pointer != nil {
		push(tagPointer, uint64(*r.Pointer))
	}

	if len(r.Edicts) > 0 {
		ints = putVarintUint64(ints, tagBody)
		cursor := Id{}
		for _, e := range r.Edicts {
			blockDelta, txDelta, ok := cursor.Delta(e.ID)
			if !ok {
				continue
			}
			cursor = e.ID
			ints = putVarintUint64(ints, blockDelta)
			ints = putVarintUint64(ints, txDelta)
			ints = putVarint(ints, e.Amount.v)
			ints = putVarintUint64(ints, uint64(e.Output))
		}
	}

	script := []byte{txscript.OP_RETURN, runestonePayloadMagic}
	for len(ints) > 0 {
		n := len(ints)
		if n > txscript.MaxScriptElementSize {
			n = txscript.MaxScriptElementSize
		}
		chunk := ints[:n]
		ints = ints[n:]
		b, err := txscript.NewScriptBuilder().AddData(chunk).Script()
		if err != nil {
			continue
		}
		script = append(script, b...)
	}
	return script
}
