// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retention removes audio artifacts older than a configured age on
// a cron schedule.
package retention

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pdiddy/research-podcast/pkg/types"
)

// ErrNoMaxAge is returned when a schedule is set without an age limit.
var ErrNoMaxAge = errors.New("retention.max_age must be positive when a schedule is set")

// Sweeper deletes artifacts older than maxAge relative to now.
type Sweeper interface {
	Sweep(maxAge time.Duration, now time.Time) ([]string, error)
}

// Janitor runs a Sweeper on a cron schedule.
type Janitor struct {
	sweeper Sweeper
	maxAge  time.Duration
	log     *slog.Logger
	cron    *cron.Cron
	now     func() time.Time
}

// New schedules sweeps per cfg. It returns nil when cfg.Schedule is empty.
func New(sweeper Sweeper, cfg types.RetentionConfig, log *slog.Logger) (*Janitor, error) {
	if cfg.Schedule == "" {
		return nil, nil
	}
	if cfg.MaxAge <= 0 {
		return nil, ErrNoMaxAge
	}
	j := &Janitor{
		sweeper: sweeper,
		maxAge:  cfg.MaxAge,
		log:     log,
		cron:    cron.New(),
		now:     time.Now,
	}
	if _, err := j.cron.AddFunc(cfg.Schedule, func() { j.RunOnce() }); err != nil {
		return nil, fmt.Errorf("parsing retention schedule %q: %w", cfg.Schedule, err)
	}
	return j, nil
}

// Start begins the schedule in the background.
func (j *Janitor) Start() {
	j.cron.Start()
	j.log.Info("retention sweep scheduled", "max_age", j.maxAge)
}

// Stop halts the schedule and waits for a running sweep.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// RunOnce sweeps immediately and returns the removed names.
func (j *Janitor) RunOnce() []string {
	removed, err := j.sweeper.Sweep(j.maxAge, j.now())
	if err != nil {
		j.log.Error("retention sweep failed", "err", err)
	}
	if len(removed) > 0 {
		j.log.Info("retention sweep removed artifacts", "count", len(removed), "files", removed)
	}
	return removed
}
