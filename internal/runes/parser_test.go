package runes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateEdictsSentinelSplitCreditsRemainderToFirstTargets(t *testing.T) {
	id := Id{Block: 840000, Tx: 1}
	pool := map[Id]Amount{id: NewAmount(10)}
	// 10 split across 3 non-OP_RETURN outputs: floor(10/3)=3, remainder=1.
	// Canonical behavior credits the remainder to the first eligible output.
	edicts := []Edict{{ID: id, Output: 3}}
	opReturn := []bool{false, false, false}
	change := &TransactionStateChange{Outputs: make([][]RuneAmount, len(opReturn))}

	allocateEdicts(pool, edicts, change, opReturn, nil)

	require.Len(t, change.Outputs[0], 1)
	require.Equal(t, NewAmount(4), change.Outputs[0][0].Amount)
	require.Len(t, change.Outputs[1], 1)
	require.Equal(t, NewAmount(3), change.Outputs[1][0].Amount)
	require.Len(t, change.Outputs[2], 1)
	require.Equal(t, NewAmount(3), change.Outputs[2][0].Amount)
	_, stillPooled := pool[id]
	require.False(t, stillPooled, "entire pool amount must be distributed, none left for the default-output sweep")
}

func TestAllocateEdictsSentinelSplitWithNoRemainderDividesEvenly(t *testing.T) {
	id := Id{Block: 840000, Tx: 2}
	pool := map[Id]Amount{id: NewAmount(9)}
	edicts := []Edict{{ID: id, Output: 3}}
	opReturn := []bool{false, false, false}
	change := &TransactionStateChange{Outputs: make([][]RuneAmount, len(opReturn))}

	allocateEdicts(pool, edicts, change, opReturn, nil)

	for i := 0; i < 3; i++ {
		require.Len(t, change.Outputs[i], 1)
		require.Equal(t, NewAmount(3), change.Outputs[i][0].Amount)
	}
	_, stillPooled := pool[id]
	require.False(t, stillPooled)
}

func TestAllocateEdictsSentinelSplitSkipsOpReturnOutputs(t *testing.T) {
	id := Id{Block: 840000, Tx: 3}
	pool := map[Id]Amount{id: NewAmount(7)}
	edicts := []Edict{{ID: id, Output: 3}}
	// vout 0 is an OP_RETURN and must not receive an allocation.
	opReturn := []bool{true, false, false}
	change := &TransactionStateChange{Outputs: make([][]RuneAmount, len(opReturn))}

	allocateEdicts(pool, edicts, change, opReturn, nil)

	require.Empty(t, change.Outputs[0])
	require.Len(t, change.Outputs[1], 1)
	require.Equal(t, NewAmount(4), change.Outputs[1][0].Amount)
	require.Len(t, change.Outputs[2], 1)
	require.Equal(t, NewAmount(3), change.Outputs[2][0].Amount)
}

func TestAllocateEdictsExplicitOutputDoesNotTriggerRemainderLogic(t *testing.T) {
	id := Id{Block: 840000, Tx: 4}
	pool := map[Id]Amount{id: NewAmount(10)}
	edicts := []Edict{{ID: id, Output: 1, Amount: NewAmount(4)}}
	opReturn := []bool{false, false}
	change := &TransactionStateChange{Outputs: make([][]RuneAmount, len(opReturn))}

	allocateEdicts(pool, edicts, change, opReturn, nil)

	require.Len(t, change.Outputs[1], 1)
	require.Equal(t, NewAmount(4), change.Outputs[1][0].Amount)
	require.Equal(t, NewAmount(6), pool[id], "the unallocated balance stays pooled for the default-output sweep")
}
