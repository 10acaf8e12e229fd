// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package telemetry wraps github.com/luxfi/metric around the pipeline and
// registry: a handful of named gauges and counters that observability can
// scrape, with processing correctness never depending on any of them.
package telemetry

import (
	"github.com/luxfi/metric"
)

// Metrics holds every counter/gauge the pipeline and registry report.
// A nil *Metrics is valid everywhere it is accepted and simply discards
// observations — callers that don't care about telemetry (most tests)
// can pass nil instead of constructing a namespace nobody scrapes.
type Metrics struct {
	txIngested    metric.Counter
	txApplied     metric.Counter
	txRejected    metric.Counter
	rowsMalformed metric.Counter

	activeWorkers metric.Gauge
	evictions     metric.Counter
	rehydrations  metric.Counter

	storeSaves metric.Counter
	storeLoads metric.Counter
}

// New registers a fresh set of metrics under namespace. Pass "" to get a
// Metrics that still works but registers nothing.
func New(namespace string) *Metrics {
	if namespace == "" {
		return nil
	}
	return &Metrics{
		txIngested:    metric.NewCounter(metric.CounterOpts{Name: namespace + "/tx_ingested", Help: "transactions read from the input source"}),
		txApplied:     metric.NewCounter(metric.CounterOpts{Name: namespace + "/tx_applied", Help: "transactions applied to account state, all kinds in one count"}),
		txRejected:    metric.NewCounter(metric.CounterOpts{Name: namespace + "/tx_rejected", Help: "transactions rejected by the state machine, all kinds and reasons in one count"}),
		rowsMalformed: metric.NewCounter(metric.CounterOpts{Name: namespace + "/rows_malformed", Help: "input rows dropped for being malformed or of unknown type"}),
		activeWorkers: metric.NewGauge(metric.GaugeOpts{Name: namespace + "/active_workers", Help: "live per-client workers held by the registry"}),
		evictions:     metric.NewCounter(metric.CounterOpts{Name: namespace + "/evictions", Help: "workers passivated by the registry"}),
		rehydrations:  metric.NewCounter(metric.CounterOpts{Name: namespace + "/rehydrations", Help: "workers constructed from a prior snapshot after eviction"}),
		storeSaves:    metric.NewCounter(metric.CounterOpts{Name: namespace + "/store_saves", Help: "account snapshots persisted"}),
		storeLoads:    metric.NewCounter(metric.CounterOpts{Name: namespace + "/store_loads", Help: "account snapshots loaded"}),
	}
}

func (m *Metrics) TxIngested() {
	if m != nil {
		m.txIngested.Inc()
	}
}

func (m *Metrics) RowMalformed() {
	if m != nil {
		m.rowsMalformed.Inc()
	}
}

func (m *Metrics) TxApplied(kind string) {
	if m != nil {
		m.txApplied.Inc()
	}
}

func (m *Metrics) TxRejected(kind, reason string) {
	if m != nil {
		m.txRejected.Inc()
	}
}

func (m *Metrics) WorkerCreated() {
	if m != nil {
		m.activeWorkers.Inc()
	}
}

func (m *Metrics) WorkerEvicted() {
	if m != nil {
		m.activeWorkers.Dec()
		m.evictions.Inc()
	}
}

func (m *Metrics) WorkerRehydrated() {
	if m != nil {
		m.rehydrations.Inc()
	}
}

func (m *Metrics) StoreSaved() {
	if m != nil {
		m.storeSaves.Inc()
	}
}

func (m *Metrics) StoreLoaded() {
	if m != nil {
		m.storeLoads.Inc()
	}
}
