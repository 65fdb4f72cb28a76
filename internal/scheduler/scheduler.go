// Package scheduler drives recompute runs on a fixed interval with a
// small jitter, plus an on-demand trigger channel.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
	"github.com/tomether-ux/polygonum-sub000/internal/usecase/recompute"
)

type Scheduler struct {
	uc       *recompute.UseCase
	interval time.Duration
	logger   *slog.Logger
	trigger  chan struct{}
}

func New(uc *recompute.UseCase, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		uc:       uc,
		interval: interval,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests a run outside the regular interval. Coalesces when a
// trigger is already queued.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run loops until the context is cancelled. A run already in progress
// elsewhere is not an error here, just a skipped tick.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("scheduler disabled, no interval configured")
		return
	}

	// jitter the first tick so restarted replicas do not align
	timer := time.NewTimer(s.jittered())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-s.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		s.runOnce(ctx)
		timer.Reset(s.jittered())
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	_, err := s.uc.Run(ctx, recompute.Options{})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRecomputeInProgress):
		s.logger.Info("skipping tick, recompute already running")
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Error("scheduled recompute failed", "error", err)
	}
}

// jittered spreads ticks within ±10% of the interval.
func (s *Scheduler) jittered() time.Duration {
	spread := int64(s.interval / 10)
	if spread == 0 {
		return s.interval
	}
	return s.interval + time.Duration(rand.Int63n(2*spread)-spread)
}
