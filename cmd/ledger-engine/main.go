// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// ledger-engine reads a stream of client transactions from a CSV file
// and writes the resulting per-client account snapshots to stdout.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/luxfi/ledger-engine/internal/pipeline"
	"github.com/luxfi/ledger-engine/internal/telemetry"
	"github.com/luxfi/ledger-engine/internal/xlog"
)

const clientIdentifier = "ledger-engine"

var log xlog.Logger

var app = &cli.App{
	Name:      clientIdentifier,
	Usage:     "process a CSV transaction stream into per-client account snapshots",
	Version:   "1.0.0",
	ArgsUsage: "<input-path> [log-level]",
}

func init() {
	app.Action = run
	app.Before = func(ctx *cli.Context) error {
		level, err := xlog.ParseLevel(ctx.Args().Get(1))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", ctx.Args().Get(1), err)
		}
		root := xlog.NewTerminalLogger(os.Stderr, level)
		xlog.SetDefault(root)
		log = root
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	inputPath := ctx.Args().Get(0)
	if inputPath == "" {
		return cli.Exit("usage: ledger-engine <input-path> [log-level]", 1)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return cli.Exit(fmt.Errorf("opening input: %w", err), 1)
	}
	defer in.Close()

	met := telemetry.New(clientIdentifier)

	if err := pipeline.Run(context.Background(), pipeline.Config{}, in, os.Stdout, log, met); err != nil {
		return cli.Exit(fmt.Errorf("processing transactions: %w", err), 1)
	}
	return nil
}
