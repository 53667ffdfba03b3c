package discovery

import (
	"context"
	"log"
	"time"
)

// Scheduler defaults.
const (
	DefaultRunInterval  = 6 * time.Hour
	DefaultInitialDelay = 30 * time.Second
)

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Logger *log.Logger

	// InitialDelay is how long after start the seed run fires.
	InitialDelay time.Duration
	// InitialMinGain is the relaxed threshold of the seed run, so a fresh
	// deployment gets a roster to work with quickly.
	InitialMinGain float64
	// Interval is the period of subsequent standard-threshold runs.
	Interval time.Duration
}

// Scheduler drives the engine on a fixed cadence.
type Scheduler struct {
	engine *Engine

	logger         *log.Logger
	initialDelay   time.Duration
	initialMinGain float64
	interval       time.Duration
}

// NewScheduler creates a Scheduler. Nil options get defaults.
func NewScheduler(engine *Engine, opts *SchedulerOptions) *Scheduler {
	if opts == nil {
		opts = &SchedulerOptions{}
	}

	s := &Scheduler{
		engine:         engine,
		logger:         opts.Logger,
		initialDelay:   opts.InitialDelay,
		initialMinGain: opts.InitialMinGain,
		interval:       opts.Interval,
	}

	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.initialDelay <= 0 {
		s.initialDelay = DefaultInitialDelay
	}
	if s.initialMinGain <= 0 {
		s.initialMinGain = DefaultInitialMinGain
	}
	if s.interval <= 0 {
		s.interval = DefaultRunInterval
	}
	return s
}

// Run blocks until ctx is cancelled. The first run uses the relaxed
// threshold; all later runs use the engine's configured one. Every run
// auto-promotes.
func (s *Scheduler) Run(ctx context.Context) error {
	if !sleep(ctx, s.initialDelay) {
		return ctx.Err()
	}

	s.logger.Printf("[discovery] seed run (min gain %.0fx)", s.initialMinGain)
	if _, err := s.engine.Run(ctx, RunParams{MinGain: s.initialMinGain, AutoPromote: true}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Printf("[discovery] seed run failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if _, err := s.engine.Run(ctx, RunParams{AutoPromote: true}); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Printf("[discovery] scheduled run failed: %v", err)
		}
	}
}
