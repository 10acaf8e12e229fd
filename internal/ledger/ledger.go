// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger implements the pure account state machine: it maps a
// (state, transaction) pair onto a (state', outcome) pair. It holds no
// goroutines, no I/O, and no locks — every exported function is a plain
// value transformation.
package ledger

import (
	"fmt"

	"github.com/luxfi/ledger-engine/internal/money"
)

// ClientID identifies an account. The input format's client column is an
// unsigned integer that comfortably fits 16 bits; nothing here depends on
// the width beyond total ordering, equality, and hashing.
type ClientID uint16

// TxID identifies a deposit or withdrawal across the whole input stream.
type TxID uint32

// Kind distinguishes the five transaction variants.
type Kind int

const (
	Deposit Kind = iota
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

func (k Kind) String() string {
	switch k {
	case Deposit:
		return "deposit"
	case Withdrawal:
		return "withdrawal"
	case Dispute:
		return "dispute"
	case Resolve:
		return "resolve"
	case Chargeback:
		return "chargeback"
	default:
		return "unknown"
	}
}

// Transaction is the tagged union of the five input events. Amount is
// only meaningful for Deposit and Withdrawal.
type Transaction struct {
	Kind   Kind
	Client ClientID
	Tx     TxID
	Amount money.Monetary
}

// direction records which side of the ledger a historical entry came
// from, needed to know how Dispute/Resolve/Chargeback move funds.
type direction int

const (
	directionDeposit direction = iota
	directionWithdrawal
)

// disputeState is the lifecycle of a historical transaction.
type disputeState int

const (
	stateNormal disputeState = iota
	stateDisputed
	stateResolved
	stateChargedBack
)

// historyEntry is the working-state record kept per TxID.
type historyEntry struct {
	Amount    money.Monetary
	Direction direction
	State     disputeState
}

// Snapshot is an account's persisted state plus its working transaction
// history. total = Available + Held is a derived invariant, never stored.
type Snapshot struct {
	Available money.Monetary
	Held      money.Monetary
	Locked    bool

	// History maps every deposit/withdrawal TxID this client has ever
	// accepted to its historical entry. It is part of working state and
	// travels with the snapshot across passivation.
	History map[TxID]historyEntry
}

// NewSnapshot returns a fresh, empty account snapshot.
func NewSnapshot() Snapshot {
	return Snapshot{History: make(map[TxID]historyEntry)}
}

// Total returns Available + Held. It is computed, never stored, so it
// can never itself be a source of drift from the other two fields.
func (s Snapshot) Total() (money.Monetary, error) {
	return money.CheckedAdd(s.Available, s.Held)
}

// clone returns a snapshot with its own History map, so a rejected
// transaction can never be observed to have mutated the caller's copy.
func (s Snapshot) clone() Snapshot {
	h := make(map[TxID]historyEntry, len(s.History))
	for k, v := range s.History {
		h[k] = v
	}
	return Snapshot{Available: s.Available, Held: s.Held, Locked: s.Locked, History: h}
}

// Reason enumerates every way a transaction can be rejected. The state
// machine never panics or returns a generic error: every rejection is
// one of these values, reported through the Outcome.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonLocked
	ReasonNonPositiveAmount
	ReasonDuplicateTx
	ReasonOverflow
	ReasonInsufficientFunds
	ReasonUnknownTx
	ReasonWrongDisputeState
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonLocked:
		return "account locked"
	case ReasonNonPositiveAmount:
		return "non-positive amount"
	case ReasonDuplicateTx:
		return "duplicate tx"
	case ReasonOverflow:
		return "overflow"
	case ReasonInsufficientFunds:
		return "insufficient funds"
	case ReasonUnknownTx:
		return "unknown tx"
	case ReasonWrongDisputeState:
		return "wrong dispute state"
	default:
		return "unknown reason"
	}
}

// Outcome reports whether a transaction was applied or rejected, and why.
type Outcome struct {
	Applied bool
	Reason  Reason
}

func applied() Outcome          { return Outcome{Applied: true} }
func rejected(r Reason) Outcome { return Outcome{Reason: r} }
func (o Outcome) Error() string { return fmt.Sprintf("rejected: %s", o.Reason) }

// Apply is the state machine's single entry point: it maps (state, tx)
// to (state', outcome). On rejection the returned state is a copy of the
// input, unmodified — the caller's state is never observed to change.
func Apply(state Snapshot, tx Transaction) (Snapshot, Outcome) {
	switch tx.Kind {
	case Deposit:
		return applyDeposit(state, tx)
	case Withdrawal:
		return applyWithdrawal(state, tx)
	case Dispute:
		return applyDispute(state, tx)
	case Resolve:
		return applyResolve(state, tx)
	case Chargeback:
		return applyChargeback(state, tx)
	default:
		return state, rejected(ReasonUnknownTx)
	}
}

func applyDeposit(state Snapshot, tx Transaction) (Snapshot, Outcome) {
	if state.Locked {
		return state, rejected(ReasonLocked)
	}
	if !tx.Amount.IsPositive() {
		return state, rejected(ReasonNonPositiveAmount)
	}
	if _, exists := state.History[tx.Tx]; exists {
		return state, rejected(ReasonDuplicateTx)
	}
	available, err := money.CheckedAdd(state.Available, tx.Amount)
	if err != nil {
		return state, rejected(ReasonOverflow)
	}

	next := state.clone()
	next.Available = available
	next.History[tx.Tx] = historyEntry{Amount: tx.Amount, Direction: directionDeposit, State: stateNormal}
	return next, applied()
}

func applyWithdrawal(state Snapshot, tx Transaction) (Snapshot, Outcome) {
	if state.Locked {
		return state, rejected(ReasonLocked)
	}
	if !tx.Amount.IsPositive() {
		return state, rejected(ReasonNonPositiveAmount)
	}
	if _, exists := state.History[tx.Tx]; exists {
		return state, rejected(ReasonDuplicateTx)
	}
	if state.Available.Less(tx.Amount) {
		return state, rejected(ReasonInsufficientFunds)
	}
	available, err := money.CheckedSub(state.Available, tx.Amount)
	if err != nil {
		return state, rejected(ReasonOverflow)
	}

	next := state.clone()
	next.Available = available
	next.History[tx.Tx] = historyEntry{Amount: tx.Amount, Direction: directionWithdrawal, State: stateNormal}
	return next, applied()
}

func applyDispute(state Snapshot, tx Transaction) (Snapshot, Outcome) {
	if state.Locked {
		return state, rejected(ReasonLocked)
	}
	entry, exists := state.History[tx.Tx]
	if !exists {
		return state, rejected(ReasonUnknownTx)
	}
	if entry.State != stateNormal {
		return state, rejected(ReasonWrongDisputeState)
	}

	next := state.clone()
	switch entry.Direction {
	case directionDeposit:
		available, err := money.CheckedSub(next.Available, entry.Amount)
		if err != nil {
			return state, rejected(ReasonOverflow)
		}
		held, err := money.CheckedAdd(next.Held, entry.Amount)
		if err != nil {
			return state, rejected(ReasonOverflow)
		}
		next.Available, next.Held = available, held
	case directionWithdrawal:
		held, err := money.CheckedAdd(next.Held, entry.Amount)
		if err != nil {
			return state, rejected(ReasonOverflow)
		}
		next.Held = held
	}
	entry.State = stateDisputed
	next.History[tx.Tx] = entry
	return next, applied()
}

func applyResolve(state Snapshot, tx Transaction) (Snapshot, Outcome) {
	if state.Locked {
		return state, rejected(ReasonLocked)
	}
	entry, exists := state.History[tx.Tx]
	if !exists {
		return state, rejected(ReasonUnknownTx)
	}
	if entry.State != stateDisputed {
		return state, rejected(ReasonWrongDisputeState)
	}

	next := state.clone()
	held, err := money.CheckedSub(next.Held, entry.Amount)
	if err != nil {
		return state, rejected(ReasonOverflow)
	}
	next.Held = held
	if entry.Direction == directionDeposit {
		available, err := money.CheckedAdd(next.Available, entry.Amount)
		if err != nil {
			return state, rejected(ReasonOverflow)
		}
		next.Available = available
	}
	entry.State = stateResolved
	next.History[tx.Tx] = entry
	return next, applied()
}

func applyChargeback(state Snapshot, tx Transaction) (Snapshot, Outcome) {
	if state.Locked {
		return state, rejected(ReasonLocked)
	}
	entry, exists := state.History[tx.Tx]
	if !exists {
		return state, rejected(ReasonUnknownTx)
	}
	if entry.State != stateDisputed {
		return state, rejected(ReasonWrongDisputeState)
	}

	next := state.clone()
	held, err := money.CheckedSub(next.Held, entry.Amount)
	if err != nil {
		return state, rejected(ReasonOverflow)
	}
	next.Held = held
	if entry.Direction == directionWithdrawal {
		// Releasing held funds above only undoes the dispute hold; the
		// withdrawal itself already left the account, so a chargeback on
		// a disputed withdrawal must also debit available a second time.
		available, err := money.CheckedSub(next.Available, entry.Amount)
		if err != nil {
			return state, rejected(ReasonOverflow)
		}
		next.Available = available
	}
	next.Locked = true
	entry.State = stateChargedBack
	next.History[tx.Tx] = entry
	return next, applied()
}
