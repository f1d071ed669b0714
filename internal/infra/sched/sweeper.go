// Package sched runs the periodic booking completion sweep.
package sched

import (
	"context"
	"log/slog"
	"time"

	"livonto/internal/app/commands"
	bookingapp "livonto/internal/app/handlers/booking"
	"livonto/internal/domain/shared/clock"
)

// Sweeper dispatches a completion sweep on every tick. An external cron can
// drive the same command through the admin endpoint; running both is safe
// because completed bookings are skipped.
type Sweeper struct {
	Commands commands.Bus
	Clock    clock.Clock
	Interval time.Duration
	Logger   *slog.Logger
}

func (s Sweeper) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s Sweeper) sweep(ctx context.Context) {
	now := clock.System{}.Now()
	if s.Clock != nil {
		now = s.Clock.Now()
	}
	cmd := bookingapp.CompletionSweepCommand{AsOf: now}
	result, err := commands.Dispatch[bookingapp.CompletionSweepCommand, *bookingapp.CompletionSweepResult](ctx, s.Commands, cmd)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("completion sweep failed", "error", err)
		}
		return
	}
	if s.Logger != nil && result.CompletedCount > 0 {
		s.Logger.Info("completion sweep finished", "completed", result.CompletedCount)
	}
}
