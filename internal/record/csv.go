// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package record implements the CSV input and output formats: a tolerant
// type,client,tx,amount reader and a client,available,held,total,locked
// writer. Malformed rows are skipped with a warning, never aborting the
// read.
package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/luxfi/ledger-engine/internal/ledger"
	"github.com/luxfi/ledger-engine/internal/money"
	"github.com/luxfi/ledger-engine/internal/telemetry"
	"github.com/luxfi/ledger-engine/internal/xlog"
)

// inputHeader is the expected header row of an input stream.
var inputHeader = []string{"type", "client", "tx", "amount"}

// outputHeader is the header row written for every output stream.
var outputHeader = []string{"client", "available", "held", "total", "locked"}

// Reader decodes the type,client,tx,amount input format into
// ledger.Transaction values, skipping malformed or unknown-type rows.
type Reader struct {
	csv *csv.Reader
	log xlog.Logger
	met *telemetry.Metrics
}

// NewReader wraps r as a tolerant CSV transaction source.
func NewReader(r io.Reader, log xlog.Logger, met *telemetry.Metrics) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // amount is absent for dispute/resolve/chargeback rows
	cr.TrimLeadingSpace = true
	return &Reader{csv: cr, log: log, met: met}
}

// ReadHeader consumes the header row and returns its fields with
// surrounding whitespace trimmed. It does not compare them against
// inputHeader; callers that care about strict validation can compare the
// returned fields themselves.
func (r *Reader) ReadHeader() ([]string, error) {
	fields, err := r.csv.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}

// Next returns the next well-formed transaction, skipping and logging
// any number of malformed rows first. It returns io.EOF once the
// underlying stream is exhausted, and returns any read error other than a
// CSV parse error unchanged.
func (r *Reader) Next() (ledger.Transaction, error) {
	for {
		fields, err := r.csv.Read()
		if err == io.EOF {
			return ledger.Transaction{}, io.EOF
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return ledger.Transaction{}, err
			}
			r.warn("malformed row", err)
			continue
		}
		tx, ok := r.parseRow(fields)
		if !ok {
			continue
		}
		if r.met != nil {
			r.met.TxIngested()
		}
		return tx, nil
	}
}

func (r *Reader) parseRow(fields []string) (ledger.Transaction, bool) {
	if len(fields) < 3 {
		r.warn("row has too few fields", fmt.Errorf("%v", fields))
		return ledger.Transaction{}, false
	}
	kindText := strings.ToLower(strings.TrimSpace(fields[0]))
	kind, ok := parseKind(kindText)
	if !ok {
		r.warn("unknown transaction type", fmt.Errorf("%q", kindText))
		return ledger.Transaction{}, false
	}

	client, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 16)
	if err != nil {
		r.warn("invalid client id", err)
		return ledger.Transaction{}, false
	}
	tx, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
	if err != nil {
		r.warn("invalid tx id", err)
		return ledger.Transaction{}, false
	}

	result := ledger.Transaction{
		Kind:   kind,
		Client: ledger.ClientID(client),
		Tx:     ledger.TxID(tx),
	}

	if kind == ledger.Deposit || kind == ledger.Withdrawal {
		if len(fields) < 4 || strings.TrimSpace(fields[3]) == "" {
			r.warn("missing amount", fmt.Errorf("row: %v", fields))
			return ledger.Transaction{}, false
		}
		amt, err := money.Parse(strings.TrimSpace(fields[3]))
		if err != nil {
			r.warn("invalid amount", err)
			return ledger.Transaction{}, false
		}
		result.Amount = amt
	}
	return result, true
}

func (r *Reader) warn(msg string, err error) {
	if r.met != nil {
		r.met.RowMalformed()
	}
	if r.log != nil {
		r.log.Warn(msg, "error", err)
	}
}

func parseKind(s string) (ledger.Kind, bool) {
	switch s {
	case "deposit":
		return ledger.Deposit, true
	case "withdrawal":
		return ledger.Withdrawal, true
	case "dispute":
		return ledger.Dispute, true
	case "resolve":
		return ledger.Resolve, true
	case "chargeback":
		return ledger.Chargeback, true
	default:
		return 0, false
	}
}

// Writer encodes account snapshots into the client,available,held,
// total,locked output format.
type Writer struct {
	csv *csv.Writer
}

// NewWriter wraps w as a snapshot sink and writes the output header.
func NewWriter(w io.Writer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(outputHeader); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &Writer{csv: cw}, nil
}

// WriteSnapshot appends one output row for client.
func (w *Writer) WriteSnapshot(client ledger.ClientID, snap ledger.Snapshot) error {
	total, err := snap.Total()
	if err != nil {
		return fmt.Errorf("client %d: %w", client, err)
	}
	row := []string{
		strconv.FormatUint(uint64(client), 10),
		snap.Available.String(),
		snap.Held.String(),
		total.String(),
		strconv.FormatBool(snap.Locked),
	}
	return w.csv.Write(row)
}

// Flush flushes any buffered output and reports the first write error
// encountered, if any.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}
