package kv

import (
	"encoding/json"

	"github.com/btcsuite/btcd/wire"
	"github.com/runestoned/indexer/internal/runes"
)

// GetOutpointBalances returns the rune balances created at op, or nil if
// op holds none (including if op is unknown or already spent — the
// distinction between those two is made by the caller via Txs/Outpoints
// membership, not by this accessor).
func (s *Store) GetOutpointBalances(op wire.OutPoint) ([]runes.RuneAmount, error) {
	raw, err := s.Get(FamilyOutpoints, EncodeOutPoint(op))
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	var balances []runes.RuneAmount
	if err := json.Unmarshal(raw, &balances); err != nil {
		return nil, classify("decode_balances", EncodeOutPoint(op), err)
	}
	return balances, nil
}

// PutOutpointBalances stages op's created rune balances for writing.
func (b *Batch) PutOutpointBalances(op wire.OutPoint, balances []runes.RuneAmount) error {
	raw, err := json.Marshal(balances)
	if err != nil {
		return classify("encode_balances", EncodeOutPoint(op), err)
	}
	b.Put(FamilyOutpoints, EncodeOutPoint(op), raw)
	return nil
}

// DeleteOutpointBalances removes op's balance record entirely, used once
// op has been consumed and purged past the reorg-recoverable window.
func (b *Batch) DeleteOutpointBalances(op wire.OutPoint) {
	b.Delete(FamilyOutpoints, EncodeOutPoint(op))
}

// MarkTxConfirmed records the height at which txid was confirmed, the
// membership check the Rollback Engine (H) uses to tell "never seen" apart
// from "confirmed, needs unwinding".
func (b *Batch) MarkTxConfirmed(txid [32]byte, height uint64) {
	b.Put(FamilyTxs, txid[:], EncodeHeight(height))
}

func (s *Store) TxConfirmedHeight(txid [32]byte) (uint64, bool, error) {
	raw, err := s.Get(FamilyTxs, txid[:])
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	h, ok := DecodeHeight(raw)
	return h, ok, nil
}

func (b *Batch) DeleteTxConfirmed(txid [32]byte) {
	b.Delete(FamilyTxs, txid[:])
}
