package runes

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Ledger is the read-only view of prior chain state the parser needs. It is
// satisfied by internal/updater's adapter over the cache layer (component
// B) when indexing a real block or mempool transaction; IndexRunes itself never
// touches a store or cache directly, keeping the parser pure.
type Ledger interface {
	// InputBalances returns the rune balances carried by the named
	// outpoint, or nil if it carries none.
	InputBalances(op wire.OutPoint) []RuneAmount
	// LookupRuneName reports whether name has already been etched on any
	// block (including as a voided Cenotaph etching), which permanently
	// reserves it.
	LookupRuneName(name SpacedRune) bool
	// LookupEntry returns the persisted entry for id, if any.
	LookupEntry(id Id) (*Entry, bool)
}

// Params bundles the chain-specific knobs IndexRunes needs beyond the
// transaction itself.
type Params struct {
	NameLengthSchedule []ActivationStep
}

// IndexRunes parses tx (the txIndex-th transaction of the block at height,
// or a mempool transaction when height is the provisional next height) and
// returns the rune balance movements it causes. It never mutates ledger;
// all writes are the caller's responsibility.
func IndexRunes(height uint64, txIndex uint32, tx *wire.MsgTx, txid chainhash.Hash, ledger Ledger, params Params) *TransactionStateChange {
	change := &TransactionStateChange{
		TxIndex: txIndex,
		Outputs: make([][]RuneAmount, len(tx.TxOut)),
	}

	pool := map[Id]Amount{}
	for _, in := range tx.TxIn {
		balances := ledger.InputBalances(in.PreviousOutPoint)
		if len(balances) == 0 {
			continue
		}
		change.Inputs = append(change.Inputs, InputConsumption{OutPoint: in.PreviousOutPoint, Balances: balances})
		for _, b := range balances {
			addToPool(pool, b.RuneId, b.Amount)
		}
	}

	artifact, err := Decipher(tx)
	if err != nil || artifact == nil {
		// No Runestone: every input balance passes through unallocated,
		// which protocol defines as burned (it can never be spent again).
		for id, amt := range pool {
			change.addBurn(id, amt)
		}
		return change
	}

	cenotaph, isCenotaph := artifact.(*Cenotaph)
	if isCenotaph {
		change.Cenotaph = true
		for id, amt := range pool {
			change.addBurn(id, amt)
		}
		change.CenotaphEtchedName = cenotaph.EtchedRune
		return change
	}

	stone := artifact.(*Runestone)
	thisTxId := Id{Block: height, Tx: txIndex}

	if stone.Etching != nil {
		if entry, ok := buildEtching(height, txid, thisTxId, stone.Etching, ledger, params); ok {
			change.Etched = &EtchedRune{RuneId: thisTxId, Entry: entry}
			if !entry.Premine.IsZero() {
				addToPool(pool, thisTxId, entry.Premine)
			}
		}
	}

	if stone.Mint != nil {
		mintID := resolveSelfReference(*stone.Mint, change.Etched)
		if amount, ok := tryMint(height, mintID, change.Etched, ledger); ok {
			addToPool(pool, mintID, amount)
			change.Minted = &RuneAmount{RuneId: mintID, Amount: amount}
		}
	}

	opReturn := make([]bool, len(tx.TxOut))
	for i, out := range tx.TxOut {
		opReturn[i] = isOpReturn(out.PkScript)
	}

	allocateEdicts(pool, stone.Edicts, change, opReturn, change.Etched)

	defaultOutput := defaultAllocationTarget(stone.Pointer, opReturn)
	for id, remaining := range pool {
		if remaining.IsZero() {
			continue
		}
		if defaultOutput < 0 {
			change.addBurn(id, remaining)
			continue
		}
		creditOutput(change, defaultOutput, id, remaining)
	}

	return change
}

func addToPool(pool map[Id]Amount, id Id, amount Amount) {
	if amount.IsZero() {
		return
	}
	if existing, ok := pool[id]; ok {
		if sum, ok := existing.Add(amount); ok {
			pool[id] = sum
			return
		}
	}
	pool[id] = amount
}

func creditOutput(change *TransactionStateChange, vout int, id Id, amount Amount) {
	change.Outputs[vout] = append(change.Outputs[vout], RuneAmount{RuneId: id, Amount: amount})
}

func isOpReturn(script []byte) bool {
	tok := txscript.MakeScriptTokenizer(0, script)
	return tok.Next() && tok.Opcode() == txscript.OP_RETURN
}

// resolveSelfReference substitutes the zero Id with the rune this same
// transaction just etched, the protocol's shorthand for minting a rune in
// its own etching transaction.
func resolveSelfReference(id Id, etched *EtchedRune) Id {
	if id == (Id{}) && etched != nil {
		return etched.RuneId
	}
	return id
}

func tryMint(height uint64, id Id, etched *EtchedRune, ledger Ledger) (Amount, bool) {
	var entry *Entry
	if etched != nil && etched.RuneId == id {
		entry = &etched.Entry
	} else if e, ok := ledger.LookupEntry(id); ok {
		entry = e
	} else {
		return Amount{}, false
	}
	if entry.Terms == nil {
		return Amount{}, false
	}
	if remaining, capped := entry.MintsRemaining(); capped && remaining == 0 {
		return Amount{}, false
	}
	if !entry.Terms.MintableAt(entry.RuneId.Block, height) {
		return Amount{}, false
	}
	return entry.Terms.Amount, true
}

func buildEtching(height uint64, txid chainhash.Hash, id Id, e *Etching, ledger Ledger, params Params) (Entry, bool) {
	spaced := SpacedRune{}
	if e.Rune != nil {
		spaced = *e.Rune
	}
	minLen := MinimumNameLengthAtHeight(height, params.NameLengthSchedule)
	if len(spaced.Rune) < minLen {
		return Entry{}, false
	}
	if ledger.LookupRuneName(spaced) {
		return Entry{}, false
	}
	return Entry{
		RuneId:       id,
		Etching:      txid,
		SpacedRune:   spaced,
		Divisibility: e.Divisibility,
		Symbol:       e.Symbol,
		Terms:        e.Terms,
		Premine:      e.Premine,
		Turbo:        e.Turbo,
		Timestamp:    height,
	}, true
}

// defaultAllocationTarget returns the vout index leftover pool balances
// should be credited to, or -1 if they must be burned. Pointer, when set
// and not itself an OP_RETURN output, wins; otherwise the first
// non-OP_RETURN output is used.
func defaultAllocationTarget(pointer *uint32, opReturn []bool) int {
	if pointer != nil {
		v := int(*pointer)
		if v < len(opReturn) && !opReturn[v] {
			return v
		}
	}
	for i, isOR := range opReturn {
		if !isOR {
			return i
		}
	}
	return -1
}

// allocateEdicts applies edicts in order against pool, crediting
// change.Outputs (or burning, for allocations directed at an OP_RETURN
// output) and draining pool as it goes.
func allocateEdicts(pool map[Id]Amount, edicts []Edict, change *TransactionStateChange, opReturn []bool, etched *EtchedRune) {
	sentinel := uint32(len(opReturn))
	for _, e := range edicts {
		id := resolveSelfReference(e.ID, etched)
		available, ok := pool[id]
		if !ok || available.IsZero() {
			continue
		}

		if e.Output == sentinel {
			targets := eligibleOutputs(opReturn)
			if len(targets) == 0 {
				change.addBurn(id, available)
				delete(pool, id)
				continue
			}
			per := available
			remainder := Amount{}
			if !e.Amount.IsZero() {
				per = e.Amount
			} else {
				per, _ = available.div(uint64(len(targets)))
				if distributed, ok := per.Mul(NewAmount(uint64(len(targets)))); ok {
					remainder, _ = available.Sub(distributed)
				}
			}
			one := NewAmount(1)
			for _, vout := range targets {
				take := per
				if !remainder.IsZero() {
					if bumped, ok := take.Add(one); ok {
						take = bumped
						remainder, _ = remainder.Sub(one)
					}
				}
				if take.GreaterThan(available) {
					take = available
				}
				if take.IsZero() {
					continue
				}
				creditOutput(change, vout, id, take)
				available, _ = available.Sub(take)
			}
			if available.IsZero() {
				delete(pool, id)
			} else {
				pool[id] = available
			}
			continue
		}

		if int(e.Output) >= len(opReturn) {
			continue // out-of-range output index: ignore this edict
		}

		amount := e.Amount
		if amount.IsZero() || amount.GreaterThan(available) {
			amount = available
		}
		if amount.IsZero() {
			continue
		}
		if opReturn[e.Output] {
			change.addBurn(id, amount)
		} else {
			creditOutput(change, int(e.Output), id, amount)
		}
		remaining, _ := available.Sub(amount)
		if remaining.IsZero() {
			delete(pool, id)
		} else {
			pool[id] = remaining
		}
	}
}

func eligibleOutputs(opReturn []bool) []int {
	var out []int
	for i, isOR := range opReturn {
		if !isOR {
			out = append(out, i)
		}
	}
	return out
}
