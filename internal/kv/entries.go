package kv

import (
	"encoding/json"

	"github.com/runestoned/indexer/internal/runes"
)

// GetRuneEntry reads the persisted Entry for id, or nil if id is unknown.
func (s *Store) GetRuneEntry(id runes.Id) (*runes.Entry, error) {
	raw, err := s.Get(FamilyRunes, EncodeRuneId(id))
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	var e runes.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, classify("decode_rune_entry", EncodeRuneId(id), err)
	}
	return &e, nil
}

// DeleteRuneEntry stages id's Entry for removal, used by the Rollback
// Engine to undo an etching a reorged-away transaction created.
func (b *Batch) DeleteRuneEntry(id runes.Id) {
	b.Delete(FamilyRunes, EncodeRuneId(id))
}

// PutRuneEntry stages id's Entry for writing within batch b.
func (b *Batch) PutRuneEntry(id runes.Id, e *runes.Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return classify("encode_rune_entry", EncodeRuneId(id), err)
	}
	b.Put(FamilyRunes, EncodeRuneId(id), raw)
	return nil
}

// ReserveRuneName records that name has been claimed by id — by a real
// etching, or voided permanently by a Cenotaph. Once reserved, a name can
// never be etched again.
func (b *Batch) ReserveRuneName(name runes.SpacedRune, id runes.Id) {
	b.Put(FamilyRuneIds, []byte(name.Rune), EncodeRuneId(id))
	b.Put(FamilyRuneNames, EncodeRuneId(id), []byte(name.String()))
}

// ReleaseRuneName undoes ReserveRuneName, used by the Rollback Engine when
// the etching transaction that reserved name is undone by a reorg.
func (b *Batch) ReleaseRuneName(name runes.SpacedRune, id runes.Id) {
	b.Delete(FamilyRuneIds, []byte(name.Rune))
	b.Delete(FamilyRuneNames, EncodeRuneId(id))
}

// LookupRuneName reports whether name has already been reserved.
func (s *Store) LookupRuneName(name runes.SpacedRune) (runes.Id, bool, error) {
	raw, err := s.Get(FamilyRuneIds, []byte(name.Rune))
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return runes.Id{}, false, nil
		}
		return runes.Id{}, false, err
	}
	id, ok := DecodeRuneId(raw)
	return id, ok, nil
}

// PutRuneNumber records the etching order (the N-th rune ever etched) so
// /runes listings can page in etching order without a full table scan.
func (b *Batch) PutRuneNumber(number uint64, id runes.Id) {
	b.Put(FamilyRuneNumbers, EncodeHeight(number), EncodeRuneId(id))
}

// RuneTransactions returns every txid recorded against id so far.
func (s *Store) RuneTransactions(id runes.Id) ([][32]byte, error) {
	raw, err := s.Get(FamilyRuneTransactions, EncodeRuneId(id))
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	var txids [][32]byte
	if err := json.Unmarshal(raw, &txids); err != nil {
		return nil, classify("decode_rune_txs", EncodeRuneId(id), err)
	}
	return txids, nil
}

// PutRuneTransactions overwrites id's recorded transaction-history list.
// Callers read-modify-write through the cache layer (component B), which
// is responsible for appending to the existing list before calling this.
func (b *Batch) PutRuneTransactions(id runes.Id, txids [][32]byte) error {
	raw, err := json.Marshal(txids)
	if err != nil {
		return classify("encode_rune_txs", EncodeRuneId(id), err)
	}
	b.Put(FamilyRuneTransactions, EncodeRuneId(id), raw)
	return nil
}
