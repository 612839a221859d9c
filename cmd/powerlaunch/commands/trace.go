// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/powerlaunch/cmd/powerlaunch/cli"
	"github.com/bureau-foundation/powerlaunch/lib/powerlog"
)

func (l *Launcher) traceCommand() *cli.Command {
	var alertsOnly bool

	return &cli.Command{
		Name:    "trace",
		Summary: "Print a power trace recorded by 'run'",
		Description: `Decode a power trace (power_log.trace in the config) and print one
line per sample: milliseconds since the run started, progress, power,
and ALERT for samples above the threshold. A trace cut short by a
killed launcher prints the samples it holds and then the error.`,
		Usage: "powerlaunch trace [flags] <trace-file>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("trace", pflag.ContinueOnError)
			flagSet.BoolVar(&alertsOnly, "alerts", false, "print only samples that raised an alert")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: powerlaunch trace [flags] <trace-file>")
			}
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			header, samples, readErr := powerlog.ReadTrace(file)
			if header.Version != 0 {
				fmt.Fprintf(l.Stdout, "# %s", header.Executable)
				if header.Fingerprint != "" {
					fmt.Fprintf(l.Stdout, " blake3:%s", header.Fingerprint)
				}
				fmt.Fprintf(l.Stdout, " node %d, threshold %dW, started %s\n",
					header.Node, header.Threshold, time.UnixMilli(header.StartedAt).UTC().Format(time.RFC3339))
			}
			alerts := 0
			for _, sample := range samples {
				if sample.Alert {
					alerts++
				} else if alertsOnly {
					continue
				}
				marker := ""
				if sample.Alert {
					marker = " ALERT"
				}
				fmt.Fprintf(l.Stdout, "%8d %6.2f%% %5dW%s\n", sample.At-header.StartedAt, sample.Progress, sample.Power, marker)
			}
			fmt.Fprintf(l.Stdout, "# %d samples, %d alerts\n", len(samples), alerts)
			return readErr
		},
	}
}
