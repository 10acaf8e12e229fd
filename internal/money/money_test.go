// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"whole":              {"10", "10.0000"},
		"four fractional":    {"10.1234", "10.1234"},
		"pads short frac":    {"10.5", "10.5000"},
		"negative":           {"-4.5", "-4.5000"},
		"explicit plus sign": {"+4.5", "4.5000"},
		"zero":               {"0", "0.0000"},

	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := Parse(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, m.String())
		})
	}
}

func TestParseRejects(t *testing.T) {
	for name, in := range map[string]string{
		"empty":              "",
		"non numeric":        "abc",
		"five fractional":    "1.23456",
		"bare sign":          "-",
		"bare dot":           ".",
		"trailing dot empty": "1.",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
		})
	}
}

func TestCheckedAddOverflow(t *testing.T) {
	_, err := CheckedAdd(Max, Monetary{units: 1})
	require.ErrorIs(t, err, ErrOverflow)

	sum, err := CheckedAdd(Zero, Max)
	require.NoError(t, err)
	require.Equal(t, Max, sum)
}

func TestCheckedSubOverflow(t *testing.T) {
	_, err := CheckedSub(Min, Monetary{units: 1})
	require.ErrorIs(t, err, ErrOverflow)
}

func TestCheckedAddExactlyAtBounds(t *testing.T) {
	one := Monetary{units: 1}
	almostMax := Monetary{units: math.MaxInt64 - 1}
	sum, err := CheckedAdd(almostMax, one)
	require.NoError(t, err)
	require.Equal(t, Max, sum)
}
