// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package worker implements the per-client serialized consumer: one
// goroutine per active client, owning that client's account snapshot and
// applying transactions strictly in delivery order.
package worker

import (
	"sync"

	"github.com/luxfi/ledger-engine/internal/ledger"
	"github.com/luxfi/ledger-engine/internal/store"
	"github.com/luxfi/ledger-engine/internal/telemetry"
	"github.com/luxfi/ledger-engine/internal/xlog"
)

// job is a transaction delivered to a Worker's inbox.
type job struct {
	tx   ledger.Transaction
	done chan<- ledger.Outcome // optional: nil for fire-and-forget delivery
}

// Worker owns one client's account state and a bounded inbox. It is
// never shared: all access to its snapshot happens on the single
// goroutine run by Start.
type Worker struct {
	client ledger.ClientID
	store  store.Store
	log    xlog.Logger
	met    *telemetry.Metrics

	inbox chan job
	done  chan struct{} // closed once the run loop has returned

	closeOnce sync.Once
}

// New constructs a worker for client, with the given bounded inbox
// capacity. The snapshot is not loaded until Start runs, so construction
// never blocks on the store.
func New(client ledger.ClientID, s store.Store, inboxCapacity int, log xlog.Logger, met *telemetry.Metrics) *Worker {
	if inboxCapacity < 1 {
		inboxCapacity = 1
	}
	return &Worker{
		client: client,
		store:  s,
		log:    log.New("client", client),
		met:    met,
		inbox:  make(chan job, inboxCapacity),
		done:   make(chan struct{}),
	}
}

// Start launches the worker's run loop. It must be called exactly once.
func (w *Worker) Start() {
	go w.run()
}

// Send delivers tx to the worker, blocking if the inbox is full. This is
// dispatch's backpressure suspension point. Send must not be called after
// Close.
func (w *Worker) Send(tx ledger.Transaction) {
	w.inbox <- job{tx: tx}
}

// Apply delivers tx and blocks until the worker has processed it,
// returning the resulting outcome. Used where the caller needs to
// observe rejection synchronously (e.g. tests); the streaming pipeline
// uses the fire-and-forget Send.
func (w *Worker) Apply(tx ledger.Transaction) ledger.Outcome {
	reply := make(chan ledger.Outcome, 1)
	w.inbox <- job{tx: tx, done: reply}
	return <-reply
}

// Close signals the worker to drain its inbox, persist its final
// snapshot, and terminate. It blocks until the worker has fully stopped.
// Close is idempotent.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.inbox)
	})
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)

	state, existed := w.store.Load(w.client)
	if !existed {
		state = ledger.NewSnapshot()
	} else if w.met != nil {
		w.met.StoreLoaded()
		w.met.WorkerRehydrated()
	}

	for j := range w.inbox {
		next, outcome := ledger.Apply(state, j.tx)
		state = next
		if outcome.Applied {
			w.log.Debug("applied transaction", "kind", j.tx.Kind, "tx", j.tx.Tx)
			if w.met != nil {
				w.met.TxApplied(j.tx.Kind.String())
			}
		} else {
			w.log.Debug("rejected transaction", "kind", j.tx.Kind, "tx", j.tx.Tx, "reason", outcome.Reason)
			if w.met != nil {
				w.met.TxRejected(j.tx.Kind.String(), outcome.Reason.String())
			}
		}
		if j.done != nil {
			j.done <- outcome
		}
	}

	if err := w.store.Save(w.client, state); err != nil {
		w.log.Error("failed to persist account snapshot", "error", err)
		return
	}
	if w.met != nil {
		w.met.StoreSaved()
	}
}

