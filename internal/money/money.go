// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package money implements a fixed-point monetary scalar with four
// fractional decimal digits. Binary floating point is deliberately not
// used: every arithmetic result is either exact or the operation fails,
// which a float cannot guarantee.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// scale is the number of representable fractional decimal digits.
const scale = 10000

var (
	// ErrOverflow is returned by CheckedAdd/CheckedSub when the exact
	// mathematical result does not fit in a Monetary.
	ErrOverflow = errors.New("money: overflow")

	// ErrParse is returned by Parse for any input that is not
	// [+-]?digits(.digits{0,4})?.
	ErrParse = errors.New("money: invalid amount")
)

// Monetary is a signed amount with exactly four fractional decimal
// digits, stored as units of 1/10000.
type Monetary struct {
	units int64
}

var (
	Zero = Monetary{}
	Min  = Monetary{units: math.MinInt64}
	Max  = Monetary{units: math.MaxInt64}
)

// Parse accepts an optional leading sign, digits, and up to four
// fractional digits: [+-]?digits(.digits{0,4})?. Any other shape,
// including an empty string or more than four fractional digits, is
// rejected with ErrParse.
func Parse(text string) (Monetary, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Zero, fmt.Errorf("%w: empty input", ErrParse)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return Zero, fmt.Errorf("%w: %q", ErrParse, text)
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" || !isDigits(intPart) {
		return Zero, fmt.Errorf("%w: %q", ErrParse, text)
	}
	if hasFrac {
		if len(fracPart) == 0 || len(fracPart) > 4 || !isDigits(fracPart) {
			return Zero, fmt.Errorf("%w: %q", ErrParse, text)
		}
	}
	fracPart = fracPart + strings.Repeat("0", 4-len(fracPart))

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrParse, text)
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrParse, text)
	}

	if whole > (math.MaxInt64-frac)/scale {
		return Zero, fmt.Errorf("%w: %q", ErrOverflow, text)
	}
	units := whole*scale + frac
	if neg {
		units = -units
	}
	return Monetary{units: units}, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String formats m with exactly four fractional digits and a leading
// sign only when negative.
func (m Monetary) String() string {
	units := uint64(m.units)
	sign := ""
	if m.units < 0 {
		sign = "-"
		units = uint64(-m.units)
	}
	return fmt.Sprintf("%s%d.%04d", sign, units/scale, units%scale)
}

// Sign reports -1, 0, or 1 for negative, zero, or positive m.
func (m Monetary) Sign() int {
	switch {
	case m.units < 0:
		return -1
	case m.units > 0:
		return 1
	default:
		return 0
	}
}

// IsPositive reports whether m is strictly greater than zero.
func (m Monetary) IsPositive() bool { return m.units > 0 }

// Less reports whether m < other.
func (m Monetary) Less(other Monetary) bool { return m.units < other.units }

// CheckedAdd returns a+b, or ErrOverflow if the exact result does not
// fit in a Monetary.
func CheckedAdd(a, b Monetary) (Monetary, error) {
	sum := a.units + b.units
	if (b.units > 0 && sum < a.units) || (b.units < 0 && sum > a.units) {
		return Zero, ErrOverflow
	}
	return Monetary{units: sum}, nil
}

// CheckedSub returns a-b, or ErrOverflow if the exact result does not
// fit in a Monetary.
func CheckedSub(a, b Monetary) (Monetary, error) {
	diff := a.units - b.units
	if (b.units < 0 && diff < a.units) || (b.units > 0 && diff > a.units) {
		return Zero, ErrOverflow
	}
	return Monetary{units: diff}, nil
}
