package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tomether-ux/polygonum-sub000/internal/config"
	"github.com/tomether-ux/polygonum-sub000/internal/matching"
	"github.com/tomether-ux/polygonum-sub000/internal/repository/memory"
	"github.com/tomether-ux/polygonum-sub000/internal/usecase/recompute"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUseCase() (*recompute.UseCase, *memory.RunRepository) {
	runs := memory.NewRunRepository()
	uc := recompute.NewUseCase(
		memory.NewListingRepository(),
		memory.NewCycleRepository(memory.NewProposalRepository()),
		runs,
		matching.NewMatcher(nil),
		recompute.NewLocalLocker(),
		config.EngineConfig{
			MaxCycleLength:        6,
			FullRecomputeFraction: 0.30,
			BatchSize:             10,
			StaleRetention:        time.Hour,
		},
		discardLogger(),
	)
	return uc, runs
}

func TestTriggerRunsOutsideInterval(t *testing.T) {
	uc, runs := newTestUseCase()
	s := New(uc, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	s.Trigger()

	deadline := time.After(2 * time.Second)
	for len(runs.Runs()) == 0 {
		select {
		case <-deadline:
			t.Fatal("trigger did not produce a run within the deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}

func TestTriggerCoalesces(t *testing.T) {
	uc, _ := newTestUseCase()
	s := New(uc, time.Hour, discardLogger())

	s.Trigger()
	s.Trigger()
	s.Trigger()

	if len(s.trigger) != 1 {
		t.Errorf("queued %d triggers, want 1", len(s.trigger))
	}
}

func TestRunDisabledWithoutInterval(t *testing.T) {
	uc, runs := newTestUseCase()
	s := New(uc, 0, discardLogger())

	s.Run(context.Background())

	if got := runs.Runs(); len(got) != 0 {
		t.Errorf("disabled scheduler recorded %d runs", len(got))
	}
}
