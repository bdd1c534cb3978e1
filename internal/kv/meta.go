package kv

import (
	"encoding/binary"
	"errors"
)

var (
	metaKeyTipHeight        = []byte("tip_height")
	metaKeyMempoolSnapshot  = []byte("mempool_snapshot")
	metaKeyPurgedThrough    = []byte("purged_through")
	metaKeyRuneCount        = []byte("rune_count")
	metaKeySchemaVersion    = []byte("schema_version")
	errMalformedMempoolSnapshot = errors.New("kv: mempool snapshot length is not a multiple of 32")
)

// schemaVersion is bumped whenever a Family's value encoding changes
// incompatibly. cmd/runestoned refuses to open a store whose stamped
// version doesn't match.
const schemaVersion = 1

func (b *Batch) PutTipHeight(height uint64) {
	b.Put(FamilyMeta, metaKeyTipHeight, EncodeHeight(height))
}

func (s *Store) TipHeight() (uint64, bool, error) {
	raw, err := s.Get(FamilyMeta, metaKeyTipHeight)
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	h, ok := DecodeHeight(raw)
	return h, ok, nil
}

func (b *Batch) PutPurgedThrough(height uint64) {
	b.Put(FamilyMeta, metaKeyPurgedThrough, EncodeHeight(height))
}

func (s *Store) PurgedThrough() (uint64, bool, error) {
	raw, err := s.Get(FamilyMeta, metaKeyPurgedThrough)
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	h, ok := DecodeHeight(raw)
	return h, ok, nil
}

func (b *Batch) PutRuneCount(count uint64) {
	b.Put(FamilyMeta, metaKeyRuneCount, EncodeHeight(count))
}

func (s *Store) RuneCount() (uint64, error) {
	raw, err := s.Get(FamilyMeta, metaKeyRuneCount)
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return 0, nil
		}
		return 0, err
	}
	n, _ := DecodeHeight(raw)
	return n, nil
}

// EnsureSchemaVersion stamps schemaVersion on first open, or returns an
// error if a previously-stamped version doesn't match.
func (s *Store) EnsureSchemaVersion() error {
	raw, err := s.Get(FamilyMeta, metaKeySchemaVersion)
	if err != nil {
		if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
			return s.Put(FamilyMeta, metaKeySchemaVersion, binary.BigEndian.AppendUint32(nil, schemaVersion))
		}
		return err
	}
	if len(raw) != 4 || binary.BigEndian.Uint32(raw) != schemaVersion {
		return &Error{Kind: KindCorruption, Op: "schema_check", Err: errSchemaMismatch}
	}
	return nil
}

var errSchemaMismatch = errors.New("kv: on-disk schema version does not match this binary")
