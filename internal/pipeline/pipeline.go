// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pipeline implements the orchestrator: it owns the ingestion
// task, dispatches records into the worker registry, drains on
// end-of-input, and streams snapshots to the output sink.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/ledger-engine/internal/ledger"
	"github.com/luxfi/ledger-engine/internal/record"
	"github.com/luxfi/ledger-engine/internal/registry"
	"github.com/luxfi/ledger-engine/internal/store"
	"github.com/luxfi/ledger-engine/internal/telemetry"
	"github.com/luxfi/ledger-engine/internal/xlog"
)

// Config bundles the orchestrator's resource-sizing knobs.
type Config struct {
	Registry registry.Config
	// ChannelCapacity bounds the ingestion-to-dispatcher channel, sized
	// relative to a worker's inbox capacity times the expected number of
	// concurrently active clients.
	ChannelCapacity int
}

const defaultChannelCapacity = 1024

// WithDefaults fills any zero-valued field with its default.
func (c Config) WithDefaults() Config {
	if c.ChannelCapacity <= 0 {
		c.ChannelCapacity = defaultChannelCapacity
	}
	c.Registry = c.Registry.WithDefaults()
	return c
}

// Run executes one full pipeline pass: read every transaction from src,
// apply it through the registry, then write every client's final
// snapshot to dst. It returns the first fatal error encountered — an
// input or output I/O failure — or nil on full consumption. A failed
// store save is logged by the worker that attempted it and is neither
// retried nor returned here. Malformed input rows never cause a non-nil
// return; they are dropped with a warning by the record.Reader itself.
func Run(ctx context.Context, cfg Config, src io.Reader, dst io.Writer, log xlog.Logger, met *telemetry.Metrics) error {
	cfg = cfg.WithDefaults()

	st := store.NewMemory()
	reg := registry.New(cfg.Registry, st, log, met, nil)

	reader := record.NewReader(src, log, met)
	if _, err := reader.ReadHeader(); err != nil {
		return fmt.Errorf("reading input header: %w", err)
	}

	txCh := make(chan ledger.Transaction, cfg.ChannelCapacity)

	g, gctx := errgroup.WithContext(ctx)

	// Ingestion task: reads records from the source, pushing them into
	// the bounded channel. It is the pipeline's only producer.
	g.Go(func() error {
		defer close(txCh)
		for {
			tx, err := reader.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			select {
			case txCh <- tx:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	// Dispatcher task: the single consumer of txCh, preserving the
	// global receipt order per-client ordering depends on.
	g.Go(func() error {
		for {
			select {
			case tx, ok := <-txCh:
				if !ok {
					return nil
				}
				reg.Dispatch(tx.Client, tx)
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	if err := g.Wait(); err != nil {
		reg.Shutdown()
		return err
	}

	// End of input: evict every remaining worker, causing each to
	// persist, then stream snapshots to the sink.
	reg.Shutdown()

	writer, err := record.NewWriter(dst)
	if err != nil {
		return fmt.Errorf("writing output header: %w", err)
	}

	var writeErr error
	st.Each(func(client ledger.ClientID, snap ledger.Snapshot) {
		if writeErr != nil {
			return
		}
		writeErr = writer.WriteSnapshot(client, snap)
	})
	if writeErr != nil {
		return fmt.Errorf("writing output: %w", writeErr)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}
