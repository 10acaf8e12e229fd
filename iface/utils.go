// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package iface

import "time"

// MockableTimer is an interface for a mockable clock, used to make
// idle-timeout-driven eviction deterministic under test.
type MockableTimer interface {
	Time() time.Time
	Set(time time.Time)
	Advance(duration time.Duration)
}