// Package events implements the domain event types the pipeline emits and
// the Event Dispatcher (component J) fans out to subscribers.
package events

import (
	"encoding/json"

	"github.com/runestoned/indexer/internal/runes"
)

// Type is one of the nine domain event kinds the TCP subscription
// protocol's handshake names.
type Type string

const (
	TypeNewBlock             Type = "NewBlock"
	TypeReorg                Type = "Reorg"
	TypeRuneEtched           Type = "RuneEtched"
	TypeRuneMinted           Type = "RuneMinted"
	TypeRuneBurned           Type = "RuneBurned"
	TypeRuneTransferred      Type = "RuneTransferred"
	TypeAddressModified      Type = "AddressModified"
	TypeTransactionsAdded    Type = "TransactionsAdded"
	TypeTransactionsReplaced Type = "TransactionsReplaced"
)

// Location says whether an event concerns confirmed chain state at a
// given height, or the mempool.
type Location struct {
	Mempool bool   `json:"mempool"`
	Height  uint64 `json:"height,omitempty"`
}

func BlockLocation(height uint64) Location { return Location{Height: height} }
func MempoolLocation() Location            { return Location{Mempool: true} }

// Event is the wire representation of one domain event: Type fixes which
// of the payload fields are meaningful, mirroring a tagged union without
// needing a Go union type.
type Event struct {
	Type     Type     `json:"type"`
	Location Location `json:"location"`

	BlockHeight uint64        `json:"block_height,omitempty"`
	BlockHash   string        `json:"block_hash,omitempty"`
	RuneId      *runes.Id     `json:"rune_id,omitempty"`
	Rune        string        `json:"rune,omitempty"`
	Amount      *runes.Amount `json:"amount,omitempty"`
	Address     string        `json:"address,omitempty"`
	TxIds       []string      `json:"txids,omitempty"`
}

// Marshal renders e as the compact single-line JSON the TCP protocol
// streams, one Event per line.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
