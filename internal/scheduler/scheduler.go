// Package scheduler re-runs the extraction on a fixed interval in daemon mode.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/wxlake/weather-extractor/internal/extract"
)

// Scheduler periodically triggers extraction runs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    *extract.Runner
	interval  time.Duration
	log       *log.Logger
}

// New creates a new Scheduler around the given runner.
func New(runner *extract.Runner, interval time.Duration, logger *log.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		log:       logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// Failed runs are logged and do not stop the schedule.
func (s *Scheduler) Start() error {
	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = int((15 * time.Minute).Seconds())
	}

	_, err := s.scheduler.Every(seconds).Seconds().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := s.runner.Run(ctx); err != nil {
			s.log.Printf("scheduler: run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
