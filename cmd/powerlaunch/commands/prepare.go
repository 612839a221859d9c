// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/powerlaunch/cmd/powerlaunch/cli"
	"github.com/bureau-foundation/powerlaunch/lib/appdef"
	"github.com/bureau-foundation/powerlaunch/lib/prepare"
	"github.com/bureau-foundation/powerlaunch/lib/runstate"
	"github.com/bureau-foundation/powerlaunch/lib/tune"
)

func (l *Launcher) prepareCommand() *cli.Command {
	var options globalOptions
	var blowingTime int

	return &cli.Command{
		Name:    "prepare",
		Summary: "Purge heat and wait for stable power without launching",
		Description: `Run only the conditioning steps of 'powerlaunch run': the fan runs at
100% for the blowing time, the application's start_state is applied,
and the launcher waits until node power is stable. The hardware is
then returned to its defaults.

Useful for measuring how long a node takes to settle.`,
		Usage: "powerlaunch prepare [flags] <application.jsonc>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("prepare", pflag.ContinueOnError)
			options.register(flagSet)
			flagSet.IntVar(&blowingTime, "blowing-time", 0, "heat purge duration in milliseconds (overrides prepare.blowing_time, default 10000)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: powerlaunch prepare [flags] <application.jsonc>")
			}
			if blowingTime < 0 {
				return fmt.Errorf("--blowing-time must not be negative")
			}
			s, err := l.open(options)
			if err != nil {
				return err
			}
			defer s.close()

			application, err := appdef.ReadFile(args[0])
			if err != nil {
				return err
			}

			driver, release, err := l.openDriver(s)
			if err != nil {
				return err
			}
			defer release()

			logger := s.logger.With("application", args[0])
			manager := tune.NewManager(driver, application.StartState, l.Clock, logger)
			claim, err := claimNode(ctx, s.config.Paths.RunRecord(), runstate.Record{
				PID:         os.Getpid(),
				Application: args[0],
				State:       application.StartState.String(),
			}, driver, manager, l.Clock, logger)
			if err != nil {
				return err
			}
			defer claim.release(ctx)

			preparer := prepare.New(manager, driver, l.Clock, logger, preparerConfig(s.config, blowingTime))
			if err := preparer.FiercelyBlowing(ctx); err != nil {
				return err
			}
			stability, err := preparer.WaitForStability(ctx)
			if err != nil {
				return fmt.Errorf("waiting for stable power: %w", err)
			}
			fmt.Fprintf(l.Stdout, "stable after %s: %d samples within %dW (min %dW, max %dW)\n",
				stability.Elapsed, stability.Samples, stability.Spread(), stability.Min, stability.Max)
			return nil
		},
	}
}

func (l *Launcher) resetCommand() *cli.Command {
	var options globalOptions

	return &cli.Command{
		Name:    "reset",
		Summary: "Return CPU, GPU, and fan to their defaults",
		Description: `Reset the fan, GPU clock, and CPU clock to their driver defaults and
remove the run record of an abandoned run. Refuses while another
launcher holds the node.`,
		Usage: "powerlaunch reset [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("reset", pflag.ContinueOnError)
			options.register(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: powerlaunch reset [flags]")
			}
			s, err := l.open(options)
			if err != nil {
				return err
			}
			defer s.close()

			driver, release, err := l.openDriver(s)
			if err != nil {
				return err
			}
			defer release()

			recordPath := s.config.Paths.RunRecord()
			record, status, err := runstate.Check(recordPath)
			if err != nil {
				return fmt.Errorf("checking run record: %w", err)
			}
			if status == runstate.Active {
				return fmt.Errorf("node is held by powerlaunch pid %d (phase %s)", record.PID, record.Phase)
			}

			manager := tune.NewManager(driver, tune.State{}, l.Clock, s.logger)
			if err := manager.ResetDefaults(ctx); err != nil {
				return fmt.Errorf("resetting hardware: %w", err)
			}
			if status == runstate.Abandoned {
				s.logger.Info("cleared abandoned run record", "pid", record.PID, "phase", record.Phase)
				return runstate.Clear(recordPath)
			}
			return nil
		},
	}
}
