// Package updater implements the Transaction Updater (component D): it
// drives IndexRunes over a transaction, then folds the resulting
// TransactionStateChange into the Batched Updater Cache and the event
// queue the cache carries for the dispatcher to drain once a flush
// succeeds.
package updater

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/runestoned/indexer/internal/cache"
	"github.com/runestoned/indexer/internal/runes"
)

// ledgerAdapter satisfies runes.Ledger over a *cache.Cache. The parser
// interface returns plain values with no error channel — IndexRunes is a
// pure function of its inputs — so any store error hit while resolving a
// lookup is captured here instead of silently surfacing as "not found";
// Apply checks err() once IndexRunes returns and aborts the transaction
// rather than indexing it against a lookup that came back empty for the
// wrong reason.
type ledgerAdapter struct {
	cache *cache.Cache
	err   error
}

func newLedgerAdapter(c *cache.Cache) *ledgerAdapter {
	return &ledgerAdapter{cache: c}
}

func (l *ledgerAdapter) InputBalances(op wire.OutPoint) []runes.RuneAmount {
	balances, err := l.cache.GetOutpointBalances(op)
	if err != nil {
		l.recordErr(err)
		return nil
	}
	return balances
}

func (l *ledgerAdapter) LookupRuneName(name runes.SpacedRune) bool {
	_, ok, err := l.cache.LookupRuneName(name)
	if err != nil {
		l.recordErr(err)
		return false
	}
	return ok
}

func (l *ledgerAdapter) LookupEntry(id runes.Id) (*runes.Entry, bool) {
	entry, err := l.cache.GetRuneEntry(id)
	if err != nil {
		l.recordErr(err)
		return nil, false
	}
	return entry, entry != nil
}

func (l *ledgerAdapter) recordErr(err error) {
	if l.err == nil {
		l.err = err
	}
}
