// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/powerlaunch/cmd/powerlaunch/cli"
	"github.com/bureau-foundation/powerlaunch/lib/runstate"
)

func (l *Launcher) statusCommand() *cli.Command {
	var options globalOptions
	var readPower bool

	return &cli.Command{
		Name:    "status",
		Summary: "Show whether a launcher holds this node",
		Description: `Report the run record: absent when the node is at its defaults,
active while a launcher runs, abandoned when a launcher died before
its end-of-run reset. An abandoned node is reset by the next
'powerlaunch run' or by 'powerlaunch reset'.

Exits 2 when the record is abandoned.`,
		Usage: "powerlaunch status [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			options.register(flagSet)
			flagSet.BoolVar(&readPower, "power", false, "also read node power once")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: powerlaunch status [flags]")
			}
			s, err := l.open(options)
			if err != nil {
				return err
			}
			defer s.close()

			recordPath := s.config.Paths.RunRecord()
			record, status, err := runstate.Check(recordPath)
			if err != nil {
				return err
			}

			table := tabwriter.NewWriter(l.Stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(table, "run record:\t%s\n", recordPath)
			fmt.Fprintf(table, "status:\t%s\n", status)
			if status != runstate.Absent {
				fmt.Fprintf(table, "pid:\t%d\n", record.PID)
				fmt.Fprintf(table, "phase:\t%s\n", record.Phase)
				fmt.Fprintf(table, "application:\t%s\n", record.Application)
				if record.Executable != "" {
					fmt.Fprintf(table, "executable:\t%s\n", record.Executable)
				}
				if record.Fingerprint != "" {
					fmt.Fprintf(table, "blake3:\t%s\n", record.Fingerprint)
				}
				fmt.Fprintf(table, "start state:\t%s\n", record.State)
				fmt.Fprintf(table, "started:\t%s (%s ago)\n",
					record.StartedAt.Format(time.RFC3339),
					l.Clock.Now().Sub(record.StartedAt).Round(time.Second))
			}

			if readPower {
				driver, release, err := l.openDriver(s)
				if err != nil {
					table.Flush()
					return err
				}
				defer release()
				watts, err := driver.ReadPower(ctx, s.config.Cluster.Node)
				if err != nil {
					table.Flush()
					return fmt.Errorf("reading power: %w", err)
				}
				fmt.Fprintf(table, "power:\t%dW (node %d)\n", watts, s.config.Cluster.Node)
			}
			if err := table.Flush(); err != nil {
				return err
			}
			if status == runstate.Abandoned {
				return &cli.ExitError{Code: 2}
			}
			return nil
		},
	}
}
