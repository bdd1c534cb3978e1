package rpcnode

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Mock is an in-memory Client backed by maps, for pipeline tests that
// script a sequence of blocks and mempool states without a live node.
type Mock struct {
	Height  uint64
	Hashes  map[uint64]chainhash.Hash
	Blocks  map[chainhash.Hash]*wire.MsgBlock
	Mempool []chainhash.Hash
	Txs     map[chainhash.Hash]*wire.MsgTx
}

func NewMock() *Mock {
	return &Mock{
		Hashes: map[uint64]chainhash.Hash{},
		Blocks: map[chainhash.Hash]*wire.MsgBlock{},
		Txs:    map[chainhash.Hash]*wire.MsgTx{},
	}
}

func (m *Mock) BlockCount(context.Context) (uint64, error) { return m.Height, nil }

func (m *Mock) BlockHash(_ context.Context, height uint64) (chainhash.Hash, error) {
	hash, ok := m.Hashes[height]
	if !ok {
		return chainhash.Hash{}, fmt.Errorf("rpcnode mock: no hash at height %d", height)
	}
	return hash, nil
}

func (m *Mock) Block(_ context.Context, hash chainhash.Hash) (*wire.MsgBlock, error) {
	block, ok := m.Blocks[hash]
	if !ok {
		return nil, fmt.Errorf("rpcnode mock: no block %s", hash)
	}
	return block, nil
}

func (m *Mock) RawMempool(context.Context) ([]chainhash.Hash, error) {
	return m.Mempool, nil
}

func (m *Mock) RawTransaction(_ context.Context, txid chainhash.Hash) (*wire.MsgTx, error) {
	tx, ok := m.Txs[txid]
	if !ok {
		return nil, fmt.Errorf("rpcnode mock: no tx %s", txid)
	}
	return tx, nil
}
