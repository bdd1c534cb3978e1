package kv

import (
	"encoding/json"

	"github.com/runestoned/indexer/internal/runes"
)

// PutTxStateChange persists the change a confirmed transaction produced,
// keyed by txid, so the Rollback Engine (H) can invert it without
// re-parsing the transaction during a reorg.
func (b *Batch) PutTxStateChange(txid [32]byte, change *runes.TransactionStateChange) error {
	raw, err := json.Marshal(change)
	if err != nil {
		return classify("encode_state_change", txid[:], err)
	}
	b.Put(FamilyTxStateChanges, txid[:], raw)
	return nil
}

// GetTxStateChange returns the persisted change for txid, or nil if txid
// was never confirmed (or was purged past the recoverable window).
func (s *Store) GetTxStateChange(txid [32]byte) (*runes.TransactionStateChange, error) {
	raw, err := s.Get(FamilyTxStateChanges, txid[:])
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	var change runes.TransactionStateChange
	if err := json.Unmarshal(raw, &change); err != nil {
		return nil, classify("decode_state_change", txid[:], err)
	}
	return &change, nil
}

func (b *Batch) DeleteTxStateChange(txid [32]byte) {
	b.Delete(FamilyTxStateChanges, txid[:])
}
