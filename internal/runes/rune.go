package runes

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Terms is an etching's minting ruleset. Height is an absolute block-height
// window; Offset is relative to the etching height. Either bound of either
// window may be unset (nil), meaning unbounded on that side.
type Terms struct {
	Amount      Amount
	Cap         *uint64
	HeightStart *uint64
	HeightEnd   *uint64
	OffsetStart *uint64
	OffsetEnd   *uint64
}

// MintableAt reports whether a mint at the given block height falls inside
// both the absolute Height window and the etching-relative Offset window.
func (t *Terms) MintableAt(etchingHeight, height uint64) bool {
	if t == nil {
		return false
	}
	if t.HeightStart != nil && height < *t.HeightStart {
		return false
	}
	if t.HeightEnd != nil && height >= *t.HeightEnd {
		return false
	}
	if t.OffsetStart != nil && height < etchingHeight+*t.OffsetStart {
		return false
	}
	if t.OffsetEnd != nil && height >= etchingHeight+*t.OffsetEnd {
		return false
	}
	return true
}

// Entry is the persistent record for one etched rune (§3's "Rune entry").
type Entry struct {
	RuneId       Id
	Etching      chainhash.Hash
	Number       uint64
	SpacedRune   SpacedRune
	Divisibility uint8
	Symbol       rune
	Terms        *Terms
	Premine      Amount
	Turbo        bool
	Timestamp    uint64

	Mints        uint64
	Burned       Amount
	PendingMints uint64
	PendingBurns Amount
}

// MintsRemaining reports the number of mints still permitted under Cap, and
// whether Cap is set at all.
func (e *Entry) MintsRemaining() (remaining uint64, capped bool) {
	if e.Terms == nil || e.Terms.Cap == nil {
		return 0, false
	}
	if e.Mints >= *e.Terms.Cap {
		return 0, true
	}
	return *e.Terms.Cap - e.Mints, true
}
