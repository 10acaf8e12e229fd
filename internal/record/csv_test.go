// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package record

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ledger-engine/internal/ledger"
	"github.com/luxfi/ledger-engine/internal/money"
)

func TestReaderParsesAllKinds(t *testing.T) {
	in := strings.NewReader(`type,client,tx,amount
deposit,1,1,10.0
withdrawal,1,2,4.5
dispute,1,1,
resolve,1,1,
chargeback,1,1,
`)
	r := NewReader(in, nil, nil)
	_, err := r.ReadHeader()
	require.NoError(t, err)

	var got []ledger.Transaction
	for {
		tx, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, tx)
	}
	require.Len(t, got, 5)
	require.Equal(t, ledger.Deposit, got[0].Kind)
	require.Equal(t, ledger.Withdrawal, got[1].Kind)
	require.Equal(t, ledger.Dispute, got[2].Kind)
	require.Equal(t, ledger.Resolve, got[3].Kind)
	require.Equal(t, ledger.Chargeback, got[4].Kind)
}

func TestReaderSkipsMalformedRows(t *testing.T) {
	in := strings.NewReader(`type,client,tx,amount
deposit,1,1,10.0
bogus,1,2,1.0
deposit,1,3,
deposit,notanumber,4,1.0
deposit,1,5,1.2345678
withdrawal,1,6,2.0
`)
	r := NewReader(in, nil, nil)
	_, err := r.ReadHeader()
	require.NoError(t, err)

	var got []ledger.Transaction
	for {
		tx, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, tx)
	}
	require.Len(t, got, 2)
	require.Equal(t, ledger.TxID(1), got[0].Tx)
	require.Equal(t, ledger.TxID(6), got[1].Tx)
}

func TestReaderTrimsWhitespace(t *testing.T) {
	in := strings.NewReader("type,client,tx,amount\n deposit , 1 , 1 , 10.0 \n")
	r := NewReader(in, nil, nil)
	_, err := r.ReadHeader()
	require.NoError(t, err)

	tx, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, ledger.Deposit, tx.Kind)
	require.Equal(t, ledger.ClientID(1), tx.Client)
}

func TestWriterFormatsOutputRow(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	amt, err := money.Parse("5.5")
	require.NoError(t, err)

	snap := ledger.NewSnapshot()
	snap.Available = amt
	require.NoError(t, w.WriteSnapshot(1, snap))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, "client,available,held,total,locked", lines[0])
	require.Equal(t, "1,5.5000,0.0000,5.5000,false", lines[1])
}
