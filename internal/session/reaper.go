// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Idler is a closable unit of work with an idle clock. *panel.Panel
// satisfies it.
type Idler interface {
	ID() string
	IdleTime() time.Duration
	Attached() bool
	Dispose()
}

// Config holds configuration for the reaper.
type Config struct {
	// Timeout is how long an unattached panel may sit idle. Zero disables
	// the reaper.
	Timeout time.Duration

	// Interval between checks (default: a quarter of Timeout, at least
	// one second)
	Interval time.Duration
}

// DefaultConfig returns the default reaper configuration.
func DefaultConfig() Config {
	return Config{Timeout: 15 * time.Minute}
}

// =============================================================================
// REAPER
// =============================================================================

// Reaper disposes idle panels that have no view attached.
type Reaper struct {
	timeout  time.Duration
	interval time.Duration
	list     func() []Idler
	logger   *zap.Logger
}

// NewReaper creates a reaper over the panels returned by list.
func NewReaper(cfg Config, list func() []Idler, logger *zap.Logger) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = cfg.Timeout / 4
		if cfg.Interval < time.Second {
			cfg.Interval = time.Second
		}
	}
	return &Reaper{
		timeout:  cfg.Timeout,
		interval: cfg.Interval,
		list:     list,
		logger:   logger.Named("session"),
	}
}

// Enabled reports whether the reaper does anything.
func (r *Reaper) Enabled() bool {
	return r.timeout > 0
}

// Check disposes every expired panel and returns how many it closed.
func (r *Reaper) Check() int {
	if !r.Enabled() {
		return 0
	}
	closed := 0
	for _, p := range r.list() {
		if p.Attached() {
			continue
		}
		idle := p.IdleTime()
		if idle < r.timeout {
			continue
		}
		r.logger.Info("closing idle panel",
			zap.String("panel_id", p.ID()),
			zap.Duration("idle", idle.Round(time.Second)),
		)
		p.Dispose()
		closed++
	}
	return closed
}

// Run checks on every interval until ctx is done. It returns nil.
func (r *Reaper) Run(ctx context.Context) error {
	if !r.Enabled() {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Check()
		}
	}
}
