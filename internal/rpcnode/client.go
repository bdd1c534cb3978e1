// Package rpcnode talks to a Bitcoin Core node's JSON-RPC interface: the
// block and mempool queries the Block and Mempool Pipelines need, encoded
// the same way the teacher's utils/rpc package talks to a node — one HTTP
// POST per call, gorilla/rpc's JSON-RPC codec on the wire, adapted here to
// Bitcoin Core's positional params instead of Ethereum's named ones.
package rpcnode

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	rpc "github.com/gorilla/rpc/v2/json2"
)

// Client is everything the Block and Mempool Pipelines need from a node,
// narrow enough that a test double can satisfy it without a live bitcoind.
type Client interface {
	BlockCount(ctx context.Context) (uint64, error)
	BlockHash(ctx context.Context, height uint64) (chainhash.Hash, error)
	Block(ctx context.Context, hash chainhash.Hash) (*wire.MsgBlock, error)
	RawMempool(ctx context.Context) ([]chainhash.Hash, error)
	RawTransaction(ctx context.Context, txid chainhash.Hash) (*wire.MsgTx, error)
}

// HTTPClient is Client over Bitcoin Core's HTTP JSON-RPC endpoint.
type HTTPClient struct {
	endpoint   string
	user, pass string
	http       *http.Client
}

func NewHTTPClient(endpoint, user, pass string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		user:     user,
		pass:     pass,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, reply interface{}) error {
	body, err := rpc.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("rpcnode: encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rpcnode: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rpcnode: %s request: %w", method, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("rpcnode: %s: status %d", method, resp.StatusCode)
	}
	if err := rpc.DecodeClientResponse(resp.Body, reply); err != nil {
		return fmt.Errorf("rpcnode: decode %s response: %w", method, err)
	}
	return nil
}

// drainAndClose drains body before closing it so the underlying
// connection can be reused instead of forcing a new TCP handshake per call.
func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

func (c *HTTPClient) BlockCount(ctx context.Context) (uint64, error) {
	var height uint64
	if err := c.call(ctx, "getblockcount", nil, &height); err != nil {
		return 0, err
	}
	return height, nil
}

func (c *HTTPClient) BlockHash(ctx context.Context, height uint64) (chainhash.Hash, error) {
	var hashHex string
	if err := c.call(ctx, "getblockhash", []interface{}{height}, &hashHex); err != nil {
		return chainhash.Hash{}, err
	}
	hash, err := chainhash.NewHashFromStr(hashHex)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("rpcnode: parse block hash: %w", err)
	}
	return *hash, nil
}

func (c *HTTPClient) Block(ctx context.Context, hash chainhash.Hash) (*wire.MsgBlock, error) {
	var rawHex string
	// Verbosity 0 asks Core for the raw serialized block as hex.
	if err := c.call(ctx, "getblock", []interface{}{hash.String(), 0}, &rawHex); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("rpcnode: decode block hex: %w", err)
	}
	block := &wire.MsgBlock{}
	if err := block.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("rpcnode: deserialize block: %w", err)
	}
	return block, nil
}

func (c *HTTPClient) RawMempool(ctx context.Context) ([]chainhash.Hash, error) {
	var hexIds []string
	if err := c.call(ctx, "getrawmempool", []interface{}{false}, &hexIds); err != nil {
		return nil, err
	}
	out := make([]chainhash.Hash, 0, len(hexIds))
	for _, h := range hexIds {
		hash, err := chainhash.NewHashFromStr(h)
		if err != nil {
			return nil, fmt.Errorf("rpcnode: parse mempool txid: %w", err)
		}
		out = append(out, *hash)
	}
	return out, nil
}

func (c *HTTPClient) RawTransaction(ctx context.Context, txid chainhash.Hash) (*wire.MsgTx, error) {
	var rawHex string
	if err := c.call(ctx, "getrawtransaction", []interface{}{txid.String(), false}, &rawHex); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("rpcnode: decode tx hex: %w", err)
	}
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("rpcnode: deserialize tx: %w", err)
	}
	return tx, nil
}
