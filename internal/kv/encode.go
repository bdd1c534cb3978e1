package kv

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/runestoned/indexer/internal/runes"
)

// EncodeRuneId renders a RuneId as an 8-byte block ‖ 4-byte tx big-endian
// key. Big-endian, not the "little-endian where possible" default the
// contract's key-schema note suggests, because the contract also requires
// the encoded form to sort in numeric (block, tx) order, and only
// big-endian bytes satisfy that for a multi-byte integer.
func EncodeRuneId(id runes.Id) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint64(key[0:8], id.Block)
	binary.BigEndian.PutUint32(key[8:12], id.Tx)
	return key
}

func DecodeRuneId(key []byte) (runes.Id, bool) {
	if len(key) != 12 {
		return runes.Id{}, false
	}
	return runes.Id{
		Block: binary.BigEndian.Uint64(key[0:8]),
		Tx:    binary.BigEndian.Uint32(key[8:12]),
	}, true
}

// EncodeOutPoint renders a wire.OutPoint as 32-byte txid ‖ 4-byte vout.
func EncodeOutPoint(op wire.OutPoint) []byte {
	key := make([]byte, chainhash.HashSize+4)
	copy(key, op.Hash[:])
	binary.BigEndian.PutUint32(key[chainhash.HashSize:], op.Index)
	return key
}

func DecodeOutPoint(key []byte) (wire.OutPoint, bool) {
	if len(key) != chainhash.HashSize+4 {
		return wire.OutPoint{}, false
	}
	var op wire.OutPoint
	copy(op.Hash[:], key[:chainhash.HashSize])
	op.Index = binary.BigEndian.Uint32(key[chainhash.HashSize:])
	return op, true
}

// EncodeHeight renders a block height as an 8-byte big-endian key, used by
// FamilyBlocks and FamilyRuneNumbers.
func EncodeHeight(height uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, height)
	return key
}

func DecodeHeight(key []byte) (uint64, bool) {
	if len(key) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key), true
}
