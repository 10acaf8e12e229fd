// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"sync"
	"time"

	"github.com/luxfi/ledger-engine/iface"
)

// SystemClock implements iface.MockableTimer by deferring to the real
// wall clock; Set and Advance are no-ops since production code never
// needs to rewind time, only the registry's idle-timeout tests do.
type SystemClock struct{}

func (SystemClock) Time() time.Time       { return time.Now() }
func (SystemClock) Set(time.Time)         {}
func (SystemClock) Advance(time.Duration) {}

// ManualClock implements iface.MockableTimer with a time value the
// caller controls, so idle-timeout-driven eviction can be tested without
// a real sleep.
type ManualClock struct {
	mu   sync.RWMutex
	time time.Time
}

var (
	_ iface.MockableTimer = (*ManualClock)(nil)
	_ iface.MockableTimer = SystemClock{}
)

// NewManualClock returns a clock initialized to the current time.
func NewManualClock() *ManualClock {
	return &ManualClock{time: time.Now()}
}

func (c *ManualClock) Time() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.time
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time = t
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time = c.time.Add(d)
}
