// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the powerlaunch command tree.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/powerlaunch/cmd/powerlaunch/cli"
	"github.com/bureau-foundation/powerlaunch/lib/clock"
	"github.com/bureau-foundation/powerlaunch/lib/cluster"
	"github.com/bureau-foundation/powerlaunch/lib/cluster/sysfs"
	"github.com/bureau-foundation/powerlaunch/lib/config"
)

// DriverOpener builds the cluster driver described by the cluster
// config section. The returned function releases it.
type DriverOpener func(section config.ClusterConfig, logger *slog.Logger) (cluster.Driver, func() error, error)

// Launcher holds what the commands need from the outside world. Tests
// replace the driver and streams; Default wires the real ones.
type Launcher struct {
	OpenDriver DriverOpener
	Clock      clock.Clock

	// Stdout receives command output and the workload's own output.
	Stdout io.Writer

	// Stderr receives the launcher's log.
	Stderr io.Writer

	// ParentPID is the process signalled by --signal-parent.
	ParentPID func() int
}

// Default returns a Launcher using the sysfs driver, the real clock,
// and the process's standard streams.
func Default() *Launcher {
	return &Launcher{
		OpenDriver: OpenSysfs,
		Clock:      clock.Real(),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		ParentPID:  os.Getppid,
	}
}

// OpenSysfs is the DriverOpener for the local-node sysfs driver.
func OpenSysfs(section config.ClusterConfig, logger *slog.Logger) (cluster.Driver, func() error, error) {
	if section.Driver != "sysfs" {
		return nil, nil, fmt.Errorf("unknown cluster driver %q", section.Driver)
	}
	driver, err := sysfs.New(sysfs.Options{
		SysRoot:       section.SysRoot,
		DevRoot:       section.DevRoot,
		CPUs:          section.CPUs,
		GPUCards:      section.GPUCards,
		FanHwmon:      section.FanHwmon,
		BaselineWatts: section.BaselineWatts,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening sysfs driver: %w", err)
	}
	return driver, driver.Close, nil
}

// Root returns the top-level powerlaunch command.
func (l *Launcher) Root() *cli.Command {
	return &cli.Command{
		Name:    "powerlaunch",
		Summary: "Power-aware launcher for HPC workloads",
		Description: `powerlaunch brings a node to a stable power baseline, launches a
workload, and retunes CPU clock, GPU clock, and fan speed whenever the
workload prints one of the hint markers named in its application
file. While the workload runs, a daemon samples node power, appends
"<progress>% <watts>" lines to the power log, and raises an alert for
every sample above the threshold.

The launcher configuration (YAML) is read from --config or
$POWERLAUNCH_CONFIG; without either the built-in defaults apply.`,
		Output: l.Stderr,
		Subcommands: []*cli.Command{
			l.runCommand(),
			l.prepareCommand(),
			l.resetCommand(),
			l.checkCommand(),
			l.statusCommand(),
			l.traceCommand(),
			l.versionCommand(),
		},
	}
}

// globalOptions are the flags every hardware-facing command accepts.
type globalOptions struct {
	configPath string
	debug      bool
	logFile    string
}

func (g *globalOptions) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&g.configPath, "config", "", "launcher config file (default $"+config.EnvironmentVariable+", then built-in defaults)")
	flagSet.BoolVar(&g.debug, "debug", false, "log workload lines and stability samples")
	flagSet.StringVar(&g.logFile, "log-file", "", "also write the log as JSON to this file (overrides paths.log_file)")
}

// session is the loaded config and logger for one command invocation.
type session struct {
	config     *config.Config
	configPath string
	logger     *slog.Logger
	closeLog   func() error
}

func (l *Launcher) open(options globalOptions) (*session, error) {
	cfg, path, err := config.Resolve(options.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logFile := options.logFile
	if logFile == "" {
		logFile = cfg.Paths.LogFile
	}
	logger, closeLog, err := cli.NewLogger(cli.LoggerOptions{
		Debug:  options.debug,
		File:   logFile,
		Stderr: l.Stderr,
	})
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}
	return &session{config: cfg, configPath: path, logger: logger, closeLog: closeLog}, nil
}

func (s *session) close() {
	if err := s.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
	}
}

// openDriver opens the configured driver, logging instead of failing
// when it cannot be released later.
func (l *Launcher) openDriver(s *session) (cluster.Driver, func(), error) {
	driver, release, err := l.OpenDriver(s.config.Cluster, s.logger)
	if err != nil {
		return nil, nil, err
	}
	return driver, func() {
		if release == nil {
			return
		}
		if err := release(); err != nil {
			s.logger.Warn("releasing cluster driver failed", "error", err)
		}
	}, nil
}
