// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hint

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/bureau-foundation/powerlaunch/lib/gauge"
	"github.com/bureau-foundation/powerlaunch/lib/tune"
)

// Executor runs a workload and drives tune.Manager from its output.
// It is used by a single goroutine and runs once.
type Executor struct {
	executable string
	args       []string
	actions    []Action
	cursor     int

	manager *tune.Manager
	gauges  *gauge.Gauges
	logger  *slog.Logger

	output      io.Writer
	stderr      io.Writer
	mergeStderr bool
	directory   string

	partialDeltas int
}

// Option configures an Executor.
type Option func(*Executor)

// WithArgs passes args to the workload.
func WithArgs(args ...string) Option {
	return func(e *Executor) { e.args = append([]string(nil), args...) }
}

// WithOutput copies every workload line (without its newline) to w,
// one per line.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) { e.output = w }
}

// WithMergedStderr sends the workload's stderr into the same stream as
// its stdout, so hints printed on stderr are matched too.
func WithMergedStderr() Option {
	return func(e *Executor) { e.mergeStderr = true }
}

// WithStderr sets where unmerged workload stderr goes. Defaults to the
// launcher's own stderr.
func WithStderr(w io.Writer) Option {
	return func(e *Executor) { e.stderr = w }
}

// WithDirectory runs the workload in directory.
func WithDirectory(directory string) Option {
	return func(e *Executor) { e.directory = directory }
}

// NewExecutor returns an Executor for executable with the given
// actions. The actions slice is copied. A missing executable or an
// action without a hint is a *tune.ConfigError.
func NewExecutor(executable string, actions []Action, manager *tune.Manager, gauges *gauge.Gauges, logger *slog.Logger, options ...Option) (*Executor, error) {
	if executable == "" {
		return nil, &tune.ConfigError{Reason: "no executable to launch"}
	}
	for index, action := range actions {
		if action.Hint.pattern == "" {
			return nil, &tune.ConfigError{Reason: fmt.Sprintf("action %d has no hint", index)}
		}
	}
	executor := &Executor{
		executable: executable,
		actions:    append([]Action(nil), actions...),
		manager:    manager,
		gauges:     gauges,
		logger:     logger,
		stderr:     os.Stderr,
	}
	for _, option := range options {
		option(executor)
	}
	return executor, nil
}

// Cursor returns the index of the next action to be tested. It equals
// len(actions) once every action has fired.
func (e *Executor) Cursor() int { return e.cursor }

// Remaining returns how many actions have not fired.
func (e *Executor) Remaining() int { return len(e.actions) - e.cursor }

// PartialDeltas returns how many deltas were applied with at least one
// failed hardware command.
func (e *Executor) PartialDeltas() int { return e.partialDeltas }

// Run starts the workload and processes its output until the stream
// ends, then waits for the workload to exit.
//
// Returns a *SpawnError if the workload cannot be started, a
// *StreamReadError if reading its output fails, and an *ExitError if
// it exits with a non-zero status. After a read failure Run still
// waits for the workload to exit before returning the
// *StreamReadError; with the read end closed, a workload that keeps
// writing fails on the broken pipe. The workload is never killed:
// cancelling ctx stops further actions from firing and cuts short the
// current dwell, but the output is still drained to the end so the
// workload cannot block on a full pipe.
func (e *Executor) Run(ctx context.Context) error {
	reader, writer, err := os.Pipe()
	if err != nil {
		return &SpawnError{Executable: e.executable, Err: err}
	}

	command := exec.Command(e.executable, e.args...)
	command.Dir = e.directory
	command.Stdout = writer
	if e.mergeStderr {
		command.Stderr = writer
	} else {
		command.Stderr = e.stderr
	}

	if err := command.Start(); err != nil {
		reader.Close()
		writer.Close()
		e.logger.Error("cannot start workload", "executable", e.executable, "error", err)
		return &SpawnError{Executable: e.executable, Err: err}
	}
	// The child holds its own copy of the write end; closing ours lets
	// the read side see EOF when the child exits.
	writer.Close()
	e.logger.Info("workload running",
		"executable", e.executable,
		"pid", command.Process.Pid,
		"actions", len(e.actions))

	streamErr := e.pump(ctx, reader)
	reader.Close()

	waitErr := command.Wait()
	if streamErr != nil {
		return streamErr
	}
	if waitErr != nil {
		var exitError *exec.ExitError
		if errors.As(waitErr, &exitError) {
			e.logger.Warn("workload exited with failure", "executable", e.executable, "status", exitError.ExitCode())
			return &ExitError{Executable: e.executable, Code: exitError.ExitCode()}
		}
		return fmt.Errorf("waiting for %s: %w", e.executable, waitErr)
	}
	e.logger.Info("workload finished",
		"executable", e.executable,
		"actions_fired", e.cursor,
		"actions_remaining", e.Remaining())
	return nil
}

// pump reads newline-terminated lines from stream until EOF. A final
// line without a newline is still processed.
func (e *Executor) pump(ctx context.Context, stream io.Reader) error {
	buffered := bufio.NewReader(stream)
	for {
		line, err := buffered.ReadString('\n')
		if len(line) > 0 {
			e.handleLine(ctx, strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			e.logger.Error("reading workload output failed", "error", err)
			return &StreamReadError{Err: err}
		}
	}
}

// handleLine runs the three per-line steps: progress extraction,
// cursor hint test, raw line logging.
func (e *Executor) handleLine(ctx context.Context, line string) {
	if progress, ok := ExtractProgress(line); ok {
		e.gauges.SetProgress(progress)
		e.logger.Debug("progress", "percent", progress)
	}

	if e.cursor < len(e.actions) && ctx.Err() == nil {
		action := e.actions[e.cursor]
		if action.Hint.Match(line) {
			e.logger.Info("hint matched",
				"hint", action.Hint.String(),
				"index", e.cursor,
				"action", action.String())
			e.act(ctx, action)
			e.cursor++
		}
	}

	e.logger.Debug("workload line", "line", line)
	if e.output != nil {
		fmt.Fprintln(e.output, line)
	}
}

// act applies every state of action in order. Hardware failures were
// already logged by the manager; they only count here.
func (e *Executor) act(ctx context.Context, action Action) {
	for _, state := range action.States {
		if err := e.manager.ApplyDelta(ctx, state); err != nil {
			if ctx.Err() != nil {
				return
			}
			e.partialDeltas++
		}
	}
}
