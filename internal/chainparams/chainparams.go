// Package chainparams supplies, per Bitcoin network, the runes protocol
// activation height and the minimum-etching-name-length schedule the
// runes parser consults through runes.Params.
package chainparams

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/runestoned/indexer/internal/runes"
)

// Chain identifies one of the four networks the indexer can run
// against.
type Chain string

const (
	Mainnet Chain = "mainnet"
	Testnet Chain = "testnet"
	Signet  Chain = "signet"
	Regtest Chain = "regtest"
)

// subsidyHalvingInterval is Bitcoin's block reward halving period; the
// runes protocol phases in at the fourth halving and its minimum-name-
// length floor steps down every interval/12 blocks thereafter.
const subsidyHalvingInterval = 210_000

// firstRuneHeight is the block height runes etching activates at on
// mainnet (the fourth halving).
const firstRuneHeight = subsidyHalvingInterval * 4

// Params bundles a Chain's btcd network parameters with the runes
// activation schedule the parser needs.
type Params struct {
	Chain       Chain
	BTCD        *chaincfg.Params
	Runes       runes.Params
	FirstHeight uint64
}

// For returns the Params for chain, or an error if chain is not one of
// the four recognized values.
func For(chain Chain) (Params, error) {
	switch chain {
	case Mainnet:
		return Params{
			Chain:       Mainnet,
			BTCD:        &chaincfg.MainNetParams,
			Runes:       runes.Params{NameLengthSchedule: mainnetNameLengthSchedule()},
			FirstHeight: firstRuneHeight,
		}, nil
	case Testnet:
		return Params{
			Chain:       Testnet,
			BTCD:        &chaincfg.TestNet3Params,
			Runes:       runes.Params{NameLengthSchedule: flatNameLengthSchedule()},
			FirstHeight: 0,
		}, nil
	case Signet:
		return Params{
			Chain:       Signet,
			BTCD:        &chaincfg.SigNetParams,
			Runes:       runes.Params{NameLengthSchedule: flatNameLengthSchedule()},
			FirstHeight: 0,
		}, nil
	case Regtest:
		return Params{
			Chain:       Regtest,
			BTCD:        &chaincfg.RegressionNetParams,
			Runes:       runes.Params{NameLengthSchedule: flatNameLengthSchedule()},
			FirstHeight: 0,
		}, nil
	default:
		return Params{}, fmt.Errorf("chainparams: unknown chain %q", chain)
	}
}

// mainnetNameLengthSchedule reproduces the rollout: names must be at
// least 13 letters at activation, stepping down by one every
// subsidyHalvingInterval/12 blocks until reaching a floor of 1.
func mainnetNameLengthSchedule() []runes.ActivationStep {
	const steps = 12
	schedule := make([]runes.ActivationStep, 0, steps+1)
	for i := 0; i <= steps; i++ {
		schedule = append(schedule, runes.ActivationStep{
			Height:        firstRuneHeight + uint64(i)*(subsidyHalvingInterval/steps),
			MinNameLength: 13 - i,
		})
	}
	return schedule
}

// flatNameLengthSchedule is used on test networks, where name exhaustion
// is not a concern: every name length is valid from genesis.
func flatNameLengthSchedule() []runes.ActivationStep {
	return []runes.ActivationStep{{Height: 0, MinNameLength: 1}}
}
