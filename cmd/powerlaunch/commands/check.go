// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/powerlaunch/cmd/powerlaunch/cli"
	"github.com/bureau-foundation/powerlaunch/lib/appdef"
	"github.com/bureau-foundation/powerlaunch/lib/config"
)

func (l *Launcher) checkCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "check",
		Summary: "Validate the config and an application file and print the settings",
		Description: `Load the launcher config and, if given, an application file, and
print the settings a run would use. Nothing touches the hardware.`,
		Usage: "powerlaunch check [flags] [application.jsonc]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "launcher config file (default $"+config.EnvironmentVariable+", then built-in defaults)")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("usage: powerlaunch check [flags] [application.jsonc]")
			}
			cfg, path, err := config.Resolve(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			var application *appdef.Application
			if len(args) == 1 {
				if application, err = appdef.ReadFile(args[0]); err != nil {
					return err
				}
			}
			printSettings(l.Stdout, cfg, path, args, application)
			return nil
		},
	}
}

func printSettings(w io.Writer, cfg *config.Config, configPath string, args []string, application *appdef.Application) {
	if configPath == "" {
		configPath = "(built-in defaults)"
	}
	table := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintf(table, "config:\t%s\n", configPath)
	fmt.Fprintf(table, "driver:\t%s (node %d)\n", cfg.Cluster.Driver, cfg.Cluster.Node)
	fmt.Fprintf(table, "blowing time:\t%s\n", cfg.Prepare.BlowingTime)
	fmt.Fprintf(table, "stability:\t%d samples within %dW\n", cfg.Prepare.Window, cfg.Prepare.Threshold)
	fmt.Fprintf(table, "power log:\t%s\n", cfg.PowerLog.Path)
	fmt.Fprintf(table, "power threshold:\t%dW\n", cfg.PowerLog.Threshold)
	fmt.Fprintf(table, "sampling:\t%s, then %s once progress is reported\n", cfg.PowerLog.InitialInterval, cfg.PowerLog.ActiveInterval)
	fmt.Fprintf(table, "run record:\t%s\n", cfg.Paths.RunRecord())
	if application != nil {
		fmt.Fprintf(table, "application:\t%s\n", args[0])
		fmt.Fprintf(table, "executable:\t%s\n", application.Executable)
		fmt.Fprintf(table, "args:\t%s\n", strings.Join(application.Args, " "))
		if application.Directory != "" {
			fmt.Fprintf(table, "directory:\t%s\n", application.Directory)
		}
		fmt.Fprintf(table, "start state:\t%s\n", application.StartState)
		fmt.Fprintf(table, "hint mode:\t%s\n", application.HintMode)
		fmt.Fprintf(table, "merge stderr:\t%t\n", application.MergeStderr)
	}
	table.Flush()

	if application == nil {
		return
	}
	fmt.Fprintf(w, "strategy (%d actions):\n", len(application.Strategy))
	for index, action := range application.Strategy {
		fmt.Fprintf(w, "  %d: %s\n", index, action)
	}
}
