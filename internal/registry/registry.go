// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry implements the worker registry / passivation cache: a
// capacity- and idle-bounded keyed cache of live per-client workers. It
// builds on utils.LRUOrder for recency tracking, adding idle-time
// tracking and an asynchronous eviction protocol appropriate for values
// that are goroutines rather than plain data.
package registry

import (
	"time"

	"github.com/luxfi/ledger-engine/internal/ledger"
	"github.com/luxfi/ledger-engine/internal/store"
	"github.com/luxfi/ledger-engine/internal/telemetry"
	"github.com/luxfi/ledger-engine/internal/worker"
	"github.com/luxfi/ledger-engine/internal/xlog"
	"github.com/luxfi/ledger-engine/iface"
	"github.com/luxfi/ledger-engine/utils"
)

const (
	DefaultMaxCapacity   = 5000
	DefaultIdleTimeout   = 5 * time.Minute
	DefaultInboxCapacity = 32
)

// Config holds the registry's recognized configuration options.
type Config struct {
	MaxCapacity   int
	IdleTimeout   time.Duration
	InboxCapacity int
}

// WithDefaults fills any zero-valued field with its default.
func (c Config) WithDefaults() Config {
	if c.MaxCapacity <= 0 {
		c.MaxCapacity = DefaultMaxCapacity
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.InboxCapacity <= 0 {
		c.InboxCapacity = DefaultInboxCapacity
	}
	return c
}

// entry is the registry's bookkeeping for one live worker.
type entry struct {
	worker     *worker.Worker
	lastUsed   time.Time
	inFlight   int           // count of Dispatch calls currently holding a reference to worker
	drained    chan struct{} // set by evict while sends are in flight; closed by the Dispatch call that brings inFlight to 0, so eviction may proceed
	evicting   chan struct{} // non-nil once eviction has started; closed once the entry is fully gone
}

// Registry is a keyed cache of live Worker handles, bounded by capacity
// and idle time, guarding the single-worker-per-client invariant the
// rest of the pipeline depends on for ordering.
type Registry struct {
	cfg   Config
	store store.Store
	log   xlog.Logger
	met   *telemetry.Metrics
	clock iface.MockableTimer

	mu       chan struct{} // 1-buffered mutex; see lock/unlock below
	entries  map[ledger.ClientID]*entry
	order    *utils.LRUOrder[ledger.ClientID]

	stopSweep chan struct{}
	sweepDone chan struct{}
}

// New constructs a registry. clock defaults to the system clock when nil.
func New(cfg Config, s store.Store, log xlog.Logger, met *telemetry.Metrics, clock iface.MockableTimer) *Registry {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	r := &Registry{
		cfg:     cfg.WithDefaults(),
		store:   s,
		log:     log,
		met:     met,
		clock:   clock,
		mu:      make(chan struct{}, 1),
		entries: make(map[ledger.ClientID]*entry),
		order:   utils.NewLRUOrder[ledger.ClientID](),
	}
	r.mu <- struct{}{}
	return r
}

func (r *Registry) lock()   { <-r.mu }
func (r *Registry) unlock() { r.mu <- struct{}{} }

// Dispatch delivers tx to the worker for client, creating (and, if the
// client was previously evicted, rehydrating) one if absent. It blocks
// if the target worker's inbox is full, propagating backpressure to the
// caller.
func (r *Registry) Dispatch(client ledger.ClientID, tx ledger.Transaction) {
	for {
		r.lock()
		e, ok := r.entries[client]
		switch {
		case ok && e.evicting == nil:
			e.inFlight++
			e.lastUsed = r.clock.Time()
			r.order.Touch(client)
			r.unlock()

			e.worker.Send(tx)

			r.lock()
			e.inFlight--
			if e.inFlight == 0 && e.drained != nil {
				close(e.drained)
				e.drained = nil
			}
			r.unlock()
			return

		case ok && e.evicting != nil:
			ch := e.evicting
			r.unlock()
			<-ch
			// Loop: the entry is gone now, so the next iteration takes
			// the "not present" branch and rehydrates a fresh worker.
			continue

		default:
			w := worker.New(client, r.store, r.cfg.InboxCapacity, r.log, r.met)
			newEntry := &entry{worker: w, lastUsed: r.clock.Time()}
			r.entries[client] = newEntry
			r.order.Touch(client)
			r.unlock()

			w.Start()
			if r.met != nil {
				r.met.WorkerCreated()
			}
			r.evictOverCapacity()
			continue
		}
	}
}

// evictOverCapacity passivates least-recently-used workers, asynchronously,
// until the live set is within MaxCapacity. Called with no lock held.
func (r *Registry) evictOverCapacity() {
	r.lock()
	over := len(r.entries) - r.cfg.MaxCapacity
	victims := make([]ledger.ClientID, 0, over)
	for i := 0; i < over; i++ {
		key, ok := r.order.Oldest()
		if !ok {
			break
		}
		// Oldest() only looks at the order list; remove it here so the
		// next iteration finds the next-oldest instead of repeating.
		r.order.Remove(key)
		victims = append(victims, key)
	}
	r.unlock()

	for _, v := range victims {
		go r.evict(v)
	}
}

// evict runs the passivation protocol for client: stop accepting new
// sends, await in-flight sends, persist, and remove the handle. It never
// reorders transactions for client — a concurrent Dispatch either wins
// the fast path before evicting is set, or waits on the entry's evicting
// channel and rehydrates only after this function's Close() has persisted.
// If an eviction of client is already under way, evict waits for it to
// finish instead of starting another.
func (r *Registry) evict(client ledger.ClientID) {
	r.lock()
	e, ok := r.entries[client]
	if !ok {
		r.unlock()
		return
	}
	if e.evicting != nil {
		ch := e.evicting
		r.unlock()
		<-ch
		return
	}
	evicting := make(chan struct{})
	e.evicting = evicting
	r.order.Remove(client)

	var wait chan struct{}
	if e.inFlight > 0 {
		wait = make(chan struct{})
		e.drained = wait
	}
	r.unlock()

	if wait != nil {
		<-wait
	}

	e.worker.Close()

	r.lock()
	delete(r.entries, client)
	r.unlock()

	if r.met != nil {
		r.met.WorkerEvicted()
	}
	r.log.Debug("passivated worker", "client", client)
	close(evicting)
}

// Sweep passivates every worker idle at least IdleTimeout as of the
// registry's clock. Safe to call periodically from a background ticker
// or, in tests, directly after advancing a ManualClock.
func (r *Registry) Sweep() {
	now := r.clock.Time()
	r.lock()
	var idle []ledger.ClientID
	for client, e := range r.entries {
		if e.evicting == nil && now.Sub(e.lastUsed) >= r.cfg.IdleTimeout {
			idle = append(idle, client)
		}
	}
	r.unlock()

	for _, client := range idle {
		r.evict(client)
	}
}

// StartSweeper launches a background goroutine that calls Sweep every
// interval until Shutdown is called. Not needed in tests driving a
// ManualClock, which call Sweep directly.
func (r *Registry) StartSweeper(interval time.Duration) {
	r.stopSweep = make(chan struct{})
	r.sweepDone = make(chan struct{})
	go func() {
		defer close(r.sweepDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.stopSweep:
				return
			}
		}
	}()
}

// Shutdown evicts every remaining worker, causing each to persist, and
// stops the background sweeper if one was started. It blocks until every
// worker has terminated.
func (r *Registry) Shutdown() {
	if r.stopSweep != nil {
		close(r.stopSweep)
		<-r.sweepDone
	}

	r.lock()
	clients := make([]ledger.ClientID, 0, len(r.entries))
	for client := range r.entries {
		clients = append(clients, client)
	}
	r.unlock()

	for _, client := range clients {
		r.evict(client)
	}
}

// Len returns the number of currently live workers.
func (r *Registry) Len() int {
	r.lock()
	defer r.unlock()
	return len(r.entries)
}
