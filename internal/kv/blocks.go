package kv

import (
	"encoding/json"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockRecord is what FamilyBlocks stores per height: the block's hash,
// for the reorg walk-back comparison, and its transaction ids, which the
// cache's purge pass needs to find the inputs/outputs a purged block's
// transactions touched.
type BlockRecord struct {
	Hash  chainhash.Hash
	TxIds [][32]byte
}

func (b *Batch) PutBlock(height uint64, rec BlockRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return classify("encode_block", EncodeHeight(height), err)
	}
	b.Put(FamilyBlocks, EncodeHeight(height), raw)
	return nil
}

func (s *Store) Block(height uint64) (*BlockRecord, bool, error) {
	raw, err := s.Get(FamilyBlocks, EncodeHeight(height))
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	var rec BlockRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, classify("decode_block", EncodeHeight(height), err)
	}
	return &rec, true, nil
}

func (s *Store) BlockHash(height uint64) (chainhash.Hash, bool, error) {
	rec, ok, err := s.Block(height)
	if err != nil || !ok {
		return chainhash.Hash{}, ok, err
	}
	return rec.Hash, true, nil
}

func (b *Batch) DeleteBlock(height uint64) {
	b.Delete(FamilyBlocks, EncodeHeight(height))
}
