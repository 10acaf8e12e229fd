// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ledger-engine/internal/money"
)

func amount(t *testing.T, s string) money.Monetary {
	t.Helper()
	m, err := money.Parse(s)
	require.NoError(t, err)
	return m
}

func TestBasicDepositWithdraw(t *testing.T) {
	state := NewSnapshot()
	var out Outcome

	state, out = Apply(state, Transaction{Kind: Deposit, Client: 1, Tx: 1, Amount: amount(t, "10.0")})
	require.True(t, out.Applied)

	state, out = Apply(state, Transaction{Kind: Withdrawal, Client: 1, Tx: 2, Amount: amount(t, "4.5")})
	require.True(t, out.Applied)

	require.Equal(t, "5.5000", state.Available.String())
	require.Equal(t, "0.0000", state.Held.String())
	require.False(t, state.Locked)
	total, err := state.Total()
	require.NoError(t, err)
	require.Equal(t, "5.5000", total.String())
}

func TestInsufficientFunds(t *testing.T) {
	state := NewSnapshot()
	state, out := Apply(state, Transaction{Kind: Deposit, Client: 2, Tx: 3, Amount: amount(t, "1.0")})
	require.True(t, out.Applied)

	state, out = Apply(state, Transaction{Kind: Withdrawal, Client: 2, Tx: 4, Amount: amount(t, "5.0")})
	require.False(t, out.Applied)
	require.Equal(t, ReasonInsufficientFunds, out.Reason)
	require.Equal(t, "1.0000", state.Available.String())
}

func TestDisputeThenResolve(t *testing.T) {
	state := NewSnapshot()
	state, _ = Apply(state, Transaction{Kind: Deposit, Client: 3, Tx: 5, Amount: amount(t, "10.0")})

	state, out := Apply(state, Transaction{Kind: Dispute, Client: 3, Tx: 5})
	require.True(t, out.Applied)
	require.Equal(t, "0.0000", state.Available.String())
	require.Equal(t, "10.0000", state.Held.String())

	state, out = Apply(state, Transaction{Kind: Resolve, Client: 3, Tx: 5})
	require.True(t, out.Applied)
	require.Equal(t, "10.0000", state.Available.String())
	require.Equal(t, "0.0000", state.Held.String())
	require.False(t, state.Locked)
}

func TestDisputeThenChargebackLocks(t *testing.T) {
	state := NewSnapshot()
	state, _ = Apply(state, Transaction{Kind: Deposit, Client: 4, Tx: 6, Amount: amount(t, "10.0")})
	state, _ = Apply(state, Transaction{Kind: Dispute, Client: 4, Tx: 6})

	state, out := Apply(state, Transaction{Kind: Chargeback, Client: 4, Tx: 6})
	require.True(t, out.Applied)
	require.True(t, state.Locked)
	require.Equal(t, "0.0000", state.Available.String())
	require.Equal(t, "0.0000", state.Held.String())

	state, out = Apply(state, Transaction{Kind: Deposit, Client: 4, Tx: 7, Amount: amount(t, "5.0")})
	require.False(t, out.Applied)
	require.Equal(t, ReasonLocked, out.Reason)
	require.Equal(t, "0.0000", state.Available.String())
}

func TestDuplicateTxIgnored(t *testing.T) {
	state := NewSnapshot()
	state, out := Apply(state, Transaction{Kind: Deposit, Client: 5, Tx: 8, Amount: amount(t, "3.0")})
	require.True(t, out.Applied)

	state, out = Apply(state, Transaction{Kind: Deposit, Client: 5, Tx: 8, Amount: amount(t, "9.0")})
	require.False(t, out.Applied)
	require.Equal(t, ReasonDuplicateTx, out.Reason)
	require.Equal(t, "3.0000", state.Available.String())
}

func TestWithdrawalDisputeHoldsWithoutTouchingAvailable(t *testing.T) {
	state := NewSnapshot()
	state, _ = Apply(state, Transaction{Kind: Deposit, Client: 9, Tx: 1, Amount: amount(t, "20.0")})
	state, _ = Apply(state, Transaction{Kind: Withdrawal, Client: 9, Tx: 2, Amount: amount(t, "5.0")})
	require.Equal(t, "15.0000", state.Available.String())

	state, out := Apply(state, Transaction{Kind: Dispute, Client: 9, Tx: 2})
	require.True(t, out.Applied)
	require.Equal(t, "15.0000", state.Available.String())
	require.Equal(t, "5.0000", state.Held.String())

	state, out = Apply(state, Transaction{Kind: Chargeback, Client: 9, Tx: 2})
	require.True(t, out.Applied)
	require.True(t, state.Locked)
	require.Equal(t, "0.0000", state.Held.String())
	require.Equal(t, "10.0000", state.Available.String())
}

func TestUnknownOrWronglyStagedTxRejected(t *testing.T) {
	state := NewSnapshot()
	state, out := Apply(state, Transaction{Kind: Dispute, Client: 1, Tx: 99})
	require.False(t, out.Applied)
	require.Equal(t, ReasonUnknownTx, out.Reason)

	state, _ = Apply(state, Transaction{Kind: Deposit, Client: 1, Tx: 1, Amount: amount(t, "1.0")})
	state, out = Apply(state, Transaction{Kind: Resolve, Client: 1, Tx: 1})
	require.False(t, out.Applied)
	require.Equal(t, ReasonWrongDisputeState, out.Reason)

	state, out = Apply(state, Transaction{Kind: Chargeback, Client: 1, Tx: 1})
	require.False(t, out.Applied)
	require.Equal(t, ReasonWrongDisputeState, out.Reason)
}

func TestLockedAccountRejectsEverything(t *testing.T) {
	state := NewSnapshot()
	state, _ = Apply(state, Transaction{Kind: Deposit, Client: 1, Tx: 1, Amount: amount(t, "10.0")})
	state, _ = Apply(state, Transaction{Kind: Dispute, Client: 1, Tx: 1})
	state, _ = Apply(state, Transaction{Kind: Chargeback, Client: 1, Tx: 1})
	require.True(t, state.Locked)

	before := state
	for _, tx := range []Transaction{
		{Kind: Deposit, Client: 1, Tx: 2, Amount: amount(t, "1.0")},
		{Kind: Withdrawal, Client: 1, Tx: 3, Amount: amount(t, "1.0")},
		{Kind: Dispute, Client: 1, Tx: 1},
		{Kind: Resolve, Client: 1, Tx: 1},
		{Kind: Chargeback, Client: 1, Tx: 1},
	} {
		after, out := Apply(before, tx)
		require.False(t, out.Applied)
		require.Equal(t, ReasonLocked, out.Reason)
		require.Equal(t, before.Available, after.Available)
		require.Equal(t, before.Held, after.Held)
		require.True(t, after.Locked)
	}
}

func TestNonPositiveAmountRejected(t *testing.T) {
	state := NewSnapshot()
	for name, tx := range map[string]Transaction{
		"zero deposit":     {Kind: Deposit, Client: 1, Tx: 1, Amount: money.Zero},
		"zero withdrawal":  {Kind: Withdrawal, Client: 1, Tx: 2, Amount: money.Zero},
		"negative deposit": {Kind: Deposit, Client: 1, Tx: 3, Amount: amount(t, "-1.0")},
	} {
		t.Run(name, func(t *testing.T) {
			_, out := Apply(state, tx)
			require.False(t, out.Applied)
			require.Equal(t, ReasonNonPositiveAmount, out.Reason)
		})
	}
}

func TestPerClientOrderingIsSequentialApplication(t *testing.T) {
	s0 := NewSnapshot()
	t1 := Transaction{Kind: Deposit, Client: 1, Tx: 1, Amount: amount(t, "5.0")}
	t2 := Transaction{Kind: Withdrawal, Client: 1, Tx: 2, Amount: amount(t, "2.0")}

	s1, _ := Apply(s0, t1)
	s2, _ := Apply(s1, t2)

	// Applying t2 directly to the state produced by t1 must equal
	// applying the two in sequence from scratch.
	replay, _ := Apply(s1, t2)
	require.Equal(t, s2.Available, replay.Available)
	require.Equal(t, s2.Held, replay.Held)
}

func TestTotalInvariantHoldsAfterEveryAccepted(t *testing.T) {
	state := NewSnapshot()
	txs := []Transaction{
		{Kind: Deposit, Client: 1, Tx: 1, Amount: amount(t, "100.0")},
		{Kind: Withdrawal, Client: 1, Tx: 2, Amount: amount(t, "30.0")},
		{Kind: Dispute, Client: 1, Tx: 1},
		{Kind: Resolve, Client: 1, Tx: 1},
	}
	for _, tx := range txs {
		var out Outcome
		state, out = Apply(state, tx)
		require.True(t, out.Applied)
		total, err := state.Total()
		require.NoError(t, err)
		expect, err := money.CheckedAdd(state.Available, state.Held)
		require.NoError(t, err)
		require.Equal(t, expect, total)
	}
}

func TestRejectionLeavesStateUnchanged(t *testing.T) {
	state := NewSnapshot()
	state, _ = Apply(state, Transaction{Kind: Deposit, Client: 1, Tx: 1, Amount: amount(t, "10.0")})
	before := state

	after, out := Apply(state, Transaction{Kind: Withdrawal, Client: 1, Tx: 2, Amount: amount(t, "100.0")})
	require.False(t, out.Applied)
	require.Equal(t, before.Available, after.Available)
	require.Equal(t, before.Held, after.Held)
	require.Equal(t, len(before.History), len(after.History))
}
