// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/powerlaunch/cmd/powerlaunch/cli"
	"github.com/bureau-foundation/powerlaunch/cmd/powerlaunch/commands"
	"github.com/bureau-foundation/powerlaunch/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that already reported their failure return an
		// ExitError; don't print a redundant "error:" line for those.
		var exitError *cli.ExitError
		if errors.As(err, &exitError) {
			os.Exit(exitError.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Default().Root().Execute(ctx, os.Args[1:])
}
