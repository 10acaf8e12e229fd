// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store defines the account store contract and its in-memory
// binding. A durable binding (e.g. backed by one of the keyed stores in
// the wider luxfi/database family) would satisfy the same Store
// interface without requiring any change to the worker or registry
// packages above it.
package store

import (
	"sync"

	"github.com/luxfi/ledger-engine/internal/ledger"
)

// Store is a keyed, concurrency-safe persistence layer for account
// snapshots. Save is an idempotent overwrite. Concurrent calls on
// distinct clients are safe; the single-worker-per-client invariant
// upheld by the registry is what makes calls on the same client
// effectively serialized, not the store itself.
type Store interface {
	Load(client ledger.ClientID) (ledger.Snapshot, bool)
	Save(client ledger.ClientID, snapshot ledger.Snapshot) error
}

// Memory is the default Store binding: an in-memory concurrent map. It
// satisfies Store for this engine's single-process use case.
type Memory struct {
	mu       sync.RWMutex
	accounts map[ledger.ClientID]ledger.Snapshot
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory account store.
func NewMemory() *Memory {
	return &Memory{accounts: make(map[ledger.ClientID]ledger.Snapshot)}
}

// Load returns the client's last saved snapshot, or (zero-value, false)
// if the client has never been saved.
func (m *Memory) Load(client ledger.ClientID) (ledger.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.accounts[client]
	return snap, ok
}

// Save overwrites the client's snapshot.
func (m *Memory) Save(client ledger.ClientID, snapshot ledger.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[client] = snapshot
	return nil
}

// Each calls fn once for every client that has ever been saved. Iteration
// order is unspecified. fn must not call back into the store.
func (m *Memory) Each(fn func(client ledger.ClientID, snapshot ledger.Snapshot)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for client, snap := range m.accounts {
		fn(client, snap)
	}
}

// Len returns the number of clients ever saved.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}
