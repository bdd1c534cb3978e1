package runes

import "github.com/holiman/uint256"

// Edict allocates Amount of rune ID to output Output within the
// transaction carrying the Runestone. Output may equal the transaction's
// output count as a sentinel meaning "split across every non-OP_RETURN
// output"; Amount may be zero meaning "everything left in the pool for
// this rune", rather than a literal zero transfer.
type Edict struct {
	ID     Id
	Amount Amount
	Output uint32
}

// decodeEdicts consumes ints (the integers trailing the Body tag) four at a
// time: block delta, tx delta, amount, output. Rune IDs delta-decode off a
// running cursor that starts at the zero Id, so edicts referencing the same
// rune repeatedly only pay for a (0, 0) delta after the first. An edict
// count that isn't a multiple of four, or a delta/overflow failure,
// invalidates the whole payload.
func decodeEdicts(ints []uint256.Int) ([]Edict, bool) {
	if len(ints)%4 != 0 {
		return nil, false
	}
	var edicts []Edict
	cursor := Id{}
	for i := 0; i < len(ints); i += 4 {
		blockDelta, ok := fitsUint64(ints[i])
		if !ok {
			return nil, false
		}
		txDelta, ok := fitsUint64(ints[i+1])
		if !ok {
			return nil, false
		}
		id, ok := cursor.Next(blockDelta, txDelta)
		if !ok {
			return nil, false
		}
		cursor = id
		amount, ok := amountFromUint256(ints[i+2])
		if !ok {
			return nil, false
		}
		output, ok := fitsUint64(ints[i+3])
		if !ok || output > uint64(^uint32(0)) {
			return nil, false
		}
		edicts = append(edicts, Edict{ID: id, Amount: amount, Output: uint32(output)})
	}
	return edicts, true
}
