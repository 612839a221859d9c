// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/powerlaunch/lib/clock"
	"github.com/bureau-foundation/powerlaunch/lib/cluster"
	"github.com/bureau-foundation/powerlaunch/lib/runstate"
	"github.com/bureau-foundation/powerlaunch/lib/tune"
)

// nodeClaim is the run record of a command that changes hardware
// settings. Release puts the hardware back to its defaults and removes
// the record.
type nodeClaim struct {
	path    string
	record  runstate.Record
	manager *tune.Manager
	clock   clock.Clock
	logger  *slog.Logger
}

// claimNode refuses to proceed while another launcher holds the node,
// resets the hardware left behind by an abandoned run, and then writes
// record in the preparing phase.
func claimNode(ctx context.Context, path string, record runstate.Record, driver cluster.Driver, manager *tune.Manager, clk clock.Clock, logger *slog.Logger) (*nodeClaim, error) {
	if err := recoverAbandoned(ctx, path, driver, clk, logger); err != nil {
		return nil, err
	}
	claim := &nodeClaim{path: path, record: record, manager: manager, clock: clk, logger: logger}
	claim.record.Phase = runstate.PhasePreparing
	claim.record.StartedAt = clk.Now()
	claim.record.UpdatedAt = claim.record.StartedAt
	if err := runstate.Write(path, claim.record); err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}
	return claim, nil
}

// recoverAbandoned checks the record at path. An Active record is an
// error; an Abandoned one has its hardware reset and is cleared.
func recoverAbandoned(ctx context.Context, path string, driver cluster.Driver, clk clock.Clock, logger *slog.Logger) error {
	record, status, err := runstate.Check(path)
	if err != nil {
		return fmt.Errorf("checking run record: %w", err)
	}
	switch status {
	case runstate.Active:
		return fmt.Errorf("node is held by powerlaunch pid %d (phase %s, application %s); see 'powerlaunch status'",
			record.PID, record.Phase, record.Application)
	case runstate.Abandoned:
		logger.Warn("previous run did not finish, resetting hardware to defaults",
			"pid", record.PID,
			"phase", record.Phase,
			"application", record.Application,
			"started_at", record.StartedAt)
		manager := tune.NewManager(driver, tune.State{}, clk, logger)
		if err := manager.ResetDefaults(ctx); err != nil {
			logger.Warn("resetting abandoned run was incomplete", "error", err)
		}
		return runstate.Clear(path)
	}
	return nil
}

// advance rewrites the record in phase. A failed write is logged: the
// record only matters if the launcher dies, and the previous phase is
// still on disk.
func (c *nodeClaim) advance(phase runstate.Phase) {
	c.record.Phase = phase
	c.record.UpdatedAt = c.clock.Now()
	if err := runstate.Write(c.path, c.record); err != nil {
		c.logger.Warn("updating run record failed", "phase", phase, "error", err)
	}
}

// release resets the hardware to driver defaults and clears the
// record. It ignores cancellation of ctx: an interrupted run must
// still leave the node at its defaults.
func (c *nodeClaim) release(ctx context.Context) {
	c.advance(runstate.PhaseResetting)
	if err := c.manager.ResetDefaults(context.WithoutCancel(ctx)); err != nil {
		c.logger.Warn("end-of-run hardware reset was incomplete", "error", err)
	}
	if err := runstate.Clear(c.path); err != nil {
		c.logger.Warn("clearing run record failed", "path", c.path, "error", err)
	}
}
