// Package runes implements the data model and parsing rules of the Runes
// fungible-token protocol: rune identifiers, etching terms, the Runestone
// wire format, and the pure state-change parser (component C).
package runes

import (
	"fmt"
	"strconv"
	"strings"
)

// Id identifies an etched rune by the block and transaction index of its
// etching transaction. It sorts numerically on (Block, Tx), matching the
// on-disk 8-byte-block/4-byte-tx key encoding in internal/kv.
type Id struct {
	Block uint64
	Tx    uint32
}

// Bitcoin is the reserved RuneId for the protocol's native BTC pseudo-rune.
var Bitcoin = Id{Block: 0, Tx: 0}

// String renders the canonical "block:tx" textual form used on the wire and
// in the /rune/:id HTTP path.
func (id Id) String() string {
	return fmt.Sprintf("%d:%d", id.Block, id.Tx)
}

// MarshalText and UnmarshalText let Id serve as a JSON object key (used by
// TransactionStateChange.Burned, keyed by rune id).
func (id Id) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *Id) UnmarshalText(text []byte) error {
	parsed, err := ParseId(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Less reports whether id sorts before other under numeric (block, tx) order.
func (id Id) Less(other Id) bool {
	if id.Block != other.Block {
		return id.Block < other.Block
	}
	return id.Tx < other.Tx
}

// ParseId parses the canonical "block:tx" textual form.
func ParseId(s string) (Id, error) {
	block, tx, found := strings.Cut(s, ":")
	if !found {
		return Id{}, fmt.Errorf("rune id %q: expected \"block:tx\"", s)
	}
	b, err := strconv.ParseUint(block, 10, 64)
	if err != nil {
		return Id{}, fmt.Errorf("rune id %q: invalid block: %w", s, err)
	}
	t, err := strconv.ParseUint(tx, 10, 32)
	if err != nil {
		return Id{}, fmt.Errorf("rune id %q: invalid tx: %w", s, err)
	}
	return Id{Block: b, Tx: uint32(t)}, nil
}

// Delta computes the (block, tx) deltas used by edicts that reference a
// rune relative to the previous edict's rune id, mirroring the ordinals
// "delta encoding" rule: a zero block delta carries the tx delta forward,
// a non-zero block delta resets tx to an absolute value.
func (id Id) Delta(next Id) (blockDelta, txDelta uint64, ok bool) {
	if next.Block < id.Block {
		return 0, 0, false
	}
	blockDelta = next.Block - id.Block
	if blockDelta == 0 {
		if next.Tx < id.Tx {
			return 0, 0, false
		}
		txDelta = uint64(next.Tx - id.Tx)
	} else {
		txDelta = uint64(next.Tx)
	}
	return blockDelta, txDelta, true
}

// Next applies deltas produced by Delta to reconstruct the next RuneId.
func (id Id) Next(blockDelta, txDelta uint64) (Id, bool) {
	block := id.Block + blockDelta
	if block < id.Block {
		return Id{}, false // overflow
	}
	var tx uint64
	if blockDelta == 0 {
		tx = uint64(id.Tx) + txDelta
	} else {
		tx = txDelta
	}
	if tx > ^uint32(0) {
		return Id{}, false
	}
	return Id{Block: block, Tx: uint32(tx)}, true
}
