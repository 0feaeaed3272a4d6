package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the scheduler's current phase.
type State int32

const (
	StateWaiting State = iota
	StateSampling
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StateSampling:
		return "SAMPLING"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// CycleFunc runs one sampling cycle stamped with at.
type CycleFunc func(ctx context.Context, at time.Time) error

// DefaultTick is the polling period used when none is given.
const DefaultTick = 250 * time.Millisecond

// Scheduler polls a Trigger and runs one cycle at a time.
type Scheduler struct {
	trigger Trigger
	cycle   CycleFunc
	tick    time.Duration
	logger  *zap.Logger
	now     func() time.Time

	state atomic.Int32
}

// NewScheduler builds a Scheduler. A non-positive tick uses DefaultTick.
func NewScheduler(trigger Trigger, cycle CycleFunc, tick time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Scheduler{
		trigger: trigger,
		cycle:   cycle,
		tick:    tick,
		logger:  logger,
		now:     time.Now,
	}
}

// State returns the current phase. It is safe to call from any goroutine.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run polls until ctx is cancelled or the trigger is exhausted.
//
// Cycle failures are logged and the loop keeps going. Once the trigger is
// exhausted Run returns the error of the last cycle, which is how one-shot
// mode reports failure. Cancellation while waiting returns nil and never
// starts another cycle, even when the trigger is due.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.trigger == nil {
		return fmt.Errorf("trigger is nil")
	}
	if s.cycle == nil {
		return fmt.Errorf("cycle func is nil")
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			s.logger.Info("scheduler stopped", zap.Stringer("state", s.State()))
			return nil
		}
		now := s.now()
		if s.trigger.Fire(now) {
			err := s.runCycle(ctx, now)
			if err != nil {
				if ctx.Err() != nil {
					s.logger.Warn("cycle aborted", zap.Time("at", now), zap.Error(err))
				} else {
					s.logger.Error("cycle failed", zap.Time("at", now), zap.Error(err))
				}
			}
			if s.trigger.Exhausted() {
				return err
			}
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", zap.Stringer("state", s.State()))
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context, at time.Time) (err error) {
	s.state.Store(int32(StateSampling))
	defer s.state.Store(int32(StateWaiting))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()
	return s.cycle(ctx, at)
}
