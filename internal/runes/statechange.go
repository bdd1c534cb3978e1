package runes

import "github.com/btcsuite/btcd/wire"

// InputConsumption records the rune balances one consumed input carried,
// so the cache layer can credit them back on rollback without re-reading
// the spending transaction.
type InputConsumption struct {
	OutPoint wire.OutPoint
	Balances []RuneAmount
}

// EtchedRune is the freshly constructed entry for a rune etched by this
// transaction, ready for the updater to persist.
type EtchedRune struct {
	RuneId Id
	Entry  Entry
}

// TransactionStateChange is the pure, side-effect-free result of parsing
// one transaction's Runestone against its inputs' prior balances. It names
// every balance movement the transaction causes; internal/updater is the
// only place that turns it into persisted state and dispatched events.
type TransactionStateChange struct {
	TxIndex uint32
	Inputs  []InputConsumption
	// Outputs[i] holds the rune balances credited to tx.TxOut[i], indexed
	// the same way as the transaction's own output list.
	Outputs [][]RuneAmount
	Etched  *EtchedRune
	Minted  *RuneAmount
	Burned  map[Id]Amount
	// Cenotaph is true when the transaction's Runestone was malformed or
	// used an unrecognized feature; all input balances were burned and no
	// etching or mint took effect.
	Cenotaph bool
	// CenotaphEtchedName is set when a Cenotaph payload still named a rune
	// to etch; the name must be permanently reserved even though the
	// etching itself never happened.
	CenotaphEtchedName *SpacedRune
}

func (c *TransactionStateChange) addBurn(id Id, amount Amount) {
	if amount.IsZero() {
		return
	}
	if c.Burned == nil {
		c.Burned = map[Id]Amount{}
	}
	if existing, ok := c.Burned[id]; ok {
		sum, ok := existing.Add(amount)
		if ok {
			c.Burned[id] = sum
			return
		}
	}
	c.Burned[id] = amount
}
