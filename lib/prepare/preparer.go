// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prepare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/powerlaunch/lib/clock"
	"github.com/bureau-foundation/powerlaunch/lib/cluster"
	"github.com/bureau-foundation/powerlaunch/lib/tune"
)

const (
	// DefaultBlowingTime is how long the fan runs at full speed when
	// Config.BlowingTime is zero.
	DefaultBlowingTime = 30 * time.Millisecond

	// DefaultWindow is the number of samples the stability test spans.
	DefaultWindow = 10

	// DefaultThreshold is the widest spread, in watts, that counts as
	// stable.
	DefaultThreshold = 30

	// RetryInterval is the shortest pause after a failed power read.
	// Successful reads follow PollInterval, which may be zero.
	RetryInterval = 100 * time.Millisecond
)

// ErrStabilityTimeout is returned by WaitForStability when
// Config.Timeout elapses before power settles.
var ErrStabilityTimeout = errors.New("power did not stabilize before the timeout")

// Config tunes the conditioning steps. Zero fields take the package
// defaults; a zero PollInterval polls without delay and a zero Timeout
// waits forever.
type Config struct {
	BlowingTime time.Duration
	Window      int

	// Threshold is the widest spread, in watts, that counts as stable.
	// Nil takes DefaultThreshold; zero requires a perfectly flat window.
	Threshold *int

	PollInterval time.Duration
	Timeout      time.Duration

	// Node is the cluster node whose power is sampled.
	Node int
}

func (c Config) withDefaults() Config {
	if c.BlowingTime <= 0 {
		c.BlowingTime = DefaultBlowingTime
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Threshold == nil || *c.Threshold < 0 {
		threshold := DefaultThreshold
		c.Threshold = &threshold
	}
	return c
}

// Watts returns a pointer to watts, for Config.Threshold.
func Watts(watts int) *int { return &watts }

// Stability summarises the window that satisfied the stability test,
// or the last window seen when the wait ended without it.
type Stability struct {
	Samples int
	Max     int
	Min     int
	Elapsed time.Duration
}

// Spread returns Max - Min.
func (s Stability) Spread() int { return s.Max - s.Min }

// Preparer runs the pre-launch conditioning steps. It shares the
// control goroutine's tune.Manager and is not safe for concurrent use.
type Preparer struct {
	manager *tune.Manager
	driver  cluster.Driver
	clock   clock.Clock
	logger  *slog.Logger
	config  Config
}

// New returns a Preparer that sets hardware through manager and reads
// power through driver.
func New(manager *tune.Manager, driver cluster.Driver, clk clock.Clock, logger *slog.Logger, config Config) *Preparer {
	return &Preparer{
		manager: manager,
		driver:  driver,
		clock:   clk,
		logger:  logger,
		config:  config.withDefaults(),
	}
}

// FiercelyBlowing runs the fan at 100% for the blowing time and then
// reapplies the recorded configuration. A fan failure is logged and
// the purge continues. The Reset error is returned as is, so an
// incomplete configuration surfaces as a *tune.IncompleteStateError.
func (p *Preparer) FiercelyBlowing(ctx context.Context) error {
	p.logger.Info("purging heat", "fan_percent", 100, "duration", p.config.BlowingTime)
	if err := p.manager.SetFanSpeed(ctx, 100); err != nil {
		p.logger.Warn("fan purge command failed, continuing", "error", err)
	}

	select {
	case <-p.clock.After(p.config.BlowingTime):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := p.manager.Reset(ctx); err != nil {
		return fmt.Errorf("restoring configuration after purge: %w", err)
	}
	return nil
}

// WaitForStability samples power until a full window has a spread of
// at most the threshold. A read error skips the sample and pauses for
// at least RetryInterval; only the first of a run of failures is
// logged. It returns ctx.Err() on cancellation and wraps
// ErrStabilityTimeout when the configured timeout elapses.
func (p *Preparer) WaitForStability(ctx context.Context) (Stability, error) {
	threshold := *p.config.Threshold
	window := NewWindow(p.config.Window, threshold)
	failures := 0
	started := p.clock.Now()

	var deadline <-chan time.Time
	if p.config.Timeout > 0 {
		deadline = p.clock.After(p.config.Timeout)
	}

	summary := func() Stability {
		return Stability{
			Samples: window.Count(),
			Max:     window.Max(),
			Min:     window.Min(),
			Elapsed: p.clock.Now().Sub(started),
		}
	}

	for {
		select {
		case <-ctx.Done():
			return summary(), ctx.Err()
		case <-deadline:
			result := summary()
			p.logger.Warn("power did not stabilize",
				"samples", result.Samples,
				"spread", result.Spread(),
				"threshold", threshold)
			return result, fmt.Errorf("%w: spread %dW after %d samples", ErrStabilityTimeout, result.Spread(), result.Samples)
		default:
		}

		pause := p.config.PollInterval
		power, err := p.driver.ReadPower(ctx, p.config.Node)
		if err != nil {
			if failures == 0 && ctx.Err() == nil {
				p.logger.Warn("power read failed, skipping samples until it recovers",
					"node", p.config.Node,
					"error", err)
			}
			failures++
			pause = max(pause, RetryInterval)
		} else {
			if failures > 0 {
				p.logger.Info("power reads recovered", "node", p.config.Node, "failed_reads", failures)
				failures = 0
			}
			stable := window.Push(power)
			p.logger.Debug("waiting for stability",
				"power", power,
				"max", window.Max(),
				"min", window.Min(),
				"spread", window.Spread())
			if stable {
				result := summary()
				p.logger.Info("power is stable",
					"threshold", threshold,
					"samples", result.Samples,
					"spread", result.Spread())
				return result, nil
			}
		}

		if pause > 0 {
			select {
			case <-p.clock.After(pause):
			case <-ctx.Done():
				return summary(), ctx.Err()
			case <-deadline:
				// Let the top of the loop report the timeout.
				deadline = closedChannel()
			}
		}
	}
}

func closedChannel() <-chan time.Time {
	channel := make(chan time.Time)
	close(channel)
	return channel
}
