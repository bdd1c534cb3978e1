package kv

// PutMempoolTxids overwrites the stored "last-seen mempool" snapshot,
// whole, used by the Mempool Pipeline (G) to diff the node's current
// mempool against what was indexed on the previous tick.
func (b *Batch) PutMempoolTxids(txids [][32]byte) error {
	raw := make([]byte, 0, len(txids)*32)
	for _, id := range txids {
		raw = append(raw, id[:]...)
	}
	b.Put(FamilyMeta, metaKeyMempoolSnapshot, raw)
	return nil
}

func (s *Store) MempoolTxids() ([][32]byte, error) {
	raw, err := s.Get(FamilyMeta, metaKeyMempoolSnapshot)
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	if len(raw)%32 != 0 {
		return nil, classify("decode_mempool_snapshot", metaKeyMempoolSnapshot, errMalformedMempoolSnapshot)
	}
	out := make([][32]byte, len(raw)/32)
	for i := range out {
		copy(out[i][:], raw[i*32:(i+1)*32])
	}
	return out, nil
}
