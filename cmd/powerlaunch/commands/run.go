// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/powerlaunch/cmd/powerlaunch/cli"
	"github.com/bureau-foundation/powerlaunch/lib/appdef"
	"github.com/bureau-foundation/powerlaunch/lib/binhash"
	"github.com/bureau-foundation/powerlaunch/lib/config"
	"github.com/bureau-foundation/powerlaunch/lib/gauge"
	"github.com/bureau-foundation/powerlaunch/lib/hint"
	"github.com/bureau-foundation/powerlaunch/lib/metrics"
	"github.com/bureau-foundation/powerlaunch/lib/prepare"
	"github.com/bureau-foundation/powerlaunch/lib/runstate"
	"github.com/bureau-foundation/powerlaunch/lib/tune"
)

type runOptions struct {
	globalOptions
	skipPrepare  bool
	skipPowerLog bool
	powerLog     string
	blowingTime  int
	signalParent bool
}

func (l *Launcher) runCommand() *cli.Command {
	var options runOptions

	return &cli.Command{
		Name:    "run",
		Summary: "Prepare the node, launch a workload, and tune it on its hints",
		Description: `Run the workload described by an application file.

The node is first purged of heat (fan at 100% for the blowing time),
set to the application's start_state, and held until node power is
stable. The workload is then started. Every line it prints is checked
for a progress marker ("Prog= 42.00%") and against the hint of the
next pending strategy action; a match applies that action's states in
order. Meanwhile the power daemon samples node power, appends
"<progress>% <watts>" lines to the power log once progress is
reported, and raises an alert for every sample above the threshold.

When the workload exits the hardware is returned to its defaults. The
launcher exits with the workload's exit status.`,
		Usage: "powerlaunch run [flags] <application.jsonc>",
		Examples: []cli.Example{
			{
				Description: "Run HPL with the site config",
				Command:     "powerlaunch run --config /etc/powerlaunch.yaml hpl.jsonc",
			},
			{
				Description: "Skip the heat purge and apply the start state directly",
				Command:     "powerlaunch run --skip-prepare hpl.jsonc",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			options.register(flagSet)
			flagSet.BoolVar(&options.skipPrepare, "skip-prepare", false, "skip the heat purge and stability wait; apply the start state directly")
			flagSet.BoolVar(&options.skipPowerLog, "skip-power-log", false, "do not run the power daemon")
			flagSet.StringVar(&options.powerLog, "power-log", "", "power log path (overrides power_log.path)")
			flagSet.IntVar(&options.blowingTime, "blowing-time", 0, "heat purge duration in milliseconds (overrides prepare.blowing_time, default 10000)")
			flagSet.BoolVar(&options.signalParent, "signal-parent", false, "send SIGUSR1 to the parent process on every power alert")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: powerlaunch run [flags] <application.jsonc>")
			}
			if options.blowingTime < 0 {
				return fmt.Errorf("--blowing-time must not be negative")
			}

			s, err := l.open(options.globalOptions)
			if err != nil {
				return err
			}
			defer s.close()

			application, err := appdef.ReadFile(args[0])
			if err != nil {
				return err
			}
			return l.launch(ctx, s, args[0], application, options)
		},
	}
}

// launch carries out one run of application, from the stale-record
// check to the end-of-run hardware reset.
func (l *Launcher) launch(ctx context.Context, s *session, applicationPath string, application *appdef.Application, options runOptions) error {
	cfg := s.config
	logger := s.logger.With("application", applicationPath)

	driver, release, err := l.openDriver(s)
	if err != nil {
		return err
	}
	defer release()

	registry := prom.NewRegistry()
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Textfile != "" {
		prometheusRecorder, err := metrics.NewPrometheusRecorder(registry)
		if err != nil {
			return err
		}
		recorder = prometheusRecorder
		defer func() {
			if err := metrics.WriteTextfile(cfg.Metrics.Textfile, registry); err != nil {
				logger.Warn("writing metrics textfile failed", "path", cfg.Metrics.Textfile, "error", err)
			}
		}()
	}

	executable := resolveExecutable(application.Executable, application.Directory)
	fingerprint := fingerprintExecutable(executable, logger)

	manager := tune.NewManager(driver, application.StartState, l.Clock, logger)
	claim, err := claimNode(ctx, cfg.Paths.RunRecord(), runstate.Record{
		PID:         os.Getpid(),
		Application: applicationPath,
		Executable:  executable,
		Fingerprint: fingerprint,
		State:       application.StartState.String(),
	}, driver, manager, l.Clock, logger)
	if err != nil {
		return err
	}
	defer claim.release(ctx)

	if options.skipPrepare {
		logger.Info("preparation skipped, applying start state", "state", application.StartState.String())
		if err := manager.Reset(ctx); err != nil {
			return fmt.Errorf("applying start state: %w", err)
		}
	} else {
		preparer := prepare.New(manager, driver, l.Clock, logger, preparerConfig(cfg, options.blowingTime))
		if err := preparer.FiercelyBlowing(ctx); err != nil {
			return err
		}
		stability, err := preparer.WaitForStability(ctx)
		if err != nil {
			return fmt.Errorf("waiting for stable power: %w", err)
		}
		recorder.ObserveStabilization(stability.Elapsed)
	}

	claim.advance(runstate.PhaseRunning)
	gauges := &gauge.Gauges{}

	var monitor *powerMonitor
	if !options.skipPowerLog {
		logPath := cfg.PowerLog.Path
		if options.powerLog != "" {
			logPath = options.powerLog
		}
		monitorSettings := monitorOptions{
			logPath:     logPath,
			executable:  executable,
			fingerprint: fingerprint,
		}
		if options.signalParent {
			monitorSettings.signalParent = l.ParentPID()
		}
		monitor, err = startPowerMonitor(ctx, driver, gauges, recorder, l.Clock, logger, cfg.PowerLog, cfg.Cluster.Node, monitorSettings)
		if err != nil {
			return err
		}
	}

	executorOptions := []hint.Option{
		hint.WithArgs(application.Args...),
		hint.WithOutput(l.Stdout),
		hint.WithStderr(l.Stderr),
	}
	if application.Directory != "" {
		executorOptions = append(executorOptions, hint.WithDirectory(application.Directory))
	}
	if application.MergeStderr {
		executorOptions = append(executorOptions, hint.WithMergedStderr())
	}

	started := l.Clock.Now()
	runErr := func() error {
		executor, err := hint.NewExecutor(application.Executable, application.Strategy, manager, gauges, logger, executorOptions...)
		if err != nil {
			return err
		}
		err = executor.Run(ctx)
		for range executor.Cursor() {
			recorder.IncActionFired()
		}
		logger.Info("run finished",
			"actions_fired", executor.Cursor(),
			"actions_remaining", executor.Remaining(),
			"partial_deltas", executor.PartialDeltas(),
			"progress", gauges.Progress(),
			"duration", l.Clock.Now().Sub(started).Round(time.Millisecond))
		return err
	}()

	if monitor != nil {
		if err := monitor.stop(); err != nil {
			logger.Warn("closing power log failed", "error", err)
		}
	}
	recorder.SetProgress(gauges.Progress())
	return runErr
}

func preparerConfig(cfg *config.Config, blowingTimeMilliseconds int) prepare.Config {
	blowingTime := cfg.Prepare.BlowingTime.Std()
	if blowingTimeMilliseconds > 0 {
		blowingTime = time.Duration(blowingTimeMilliseconds) * time.Millisecond
	}
	return prepare.Config{
		BlowingTime:  blowingTime,
		Window:       cfg.Prepare.Window,
		Threshold:    prepare.Watts(cfg.Prepare.Threshold),
		PollInterval: cfg.Prepare.PollInterval.Std(),
		Timeout:      cfg.Prepare.Timeout.Std(),
		Node:         cfg.Cluster.Node,
	}
}

// resolveExecutable returns the file exec will start for executable:
// a bare name is looked up in PATH, and a relative path is taken
// relative to the working directory the workload runs in.
func resolveExecutable(executable, directory string) string {
	if !strings.Contains(executable, "/") {
		if path, err := exec.LookPath(executable); err == nil {
			return path
		}
		return executable
	}
	if !filepath.IsAbs(executable) && directory != "" {
		return filepath.Join(directory, executable)
	}
	return executable
}

// fingerprintExecutable returns the hex BLAKE3 digest of path, or ""
// when it cannot be read. The executor reports a missing workload.
func fingerprintExecutable(path string, logger *slog.Logger) string {
	digest, err := binhash.HashFile(path)
	if err != nil {
		logger.Warn("cannot fingerprint workload", "executable", path, "error", err)
		return ""
	}
	fingerprint := binhash.FormatDigest(digest)
	logger.Info("workload fingerprint", "executable", path, "blake3", fingerprint)
	return fingerprint
}
