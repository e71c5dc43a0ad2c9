// Package extract sequences one extraction run: fetch, transform, store.
package extract

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/wxlake/weather-extractor/internal/observation"
	"github.com/wxlake/weather-extractor/internal/status"
	"github.com/wxlake/weather-extractor/internal/weather"
)

// Fetcher obtains the current-conditions document for a location query.
type Fetcher interface {
	Current(ctx context.Context, query string) (weather.Document, error)
}

// Store persists one observation row under the run's date key.
type Store interface {
	Store(ctx context.Context, runTime time.Time, row observation.Row) (string, error)
}

// Clock supplies the run time; injected so tests can pin the partition date.
type Clock func() time.Time

// Runner executes the linear extraction pipeline. Every stage failure is
// terminal for the run: it is logged with its stage, recorded, and returned
// so the caller exits non-zero. No stage is retried.
type Runner struct {
	query   string
	fetcher Fetcher
	store   Store
	runs    *status.MemoryStore // optional; nil disables recording
	log     *log.Logger
	now     Clock
}

func NewRunner(query string, fetcher Fetcher, store Store, runs *status.MemoryStore, logger *log.Logger, now Clock) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{
		query:   query,
		fetcher: fetcher,
		store:   store,
		runs:    runs,
		log:     logger,
		now:     now,
	}
}

// Run performs one extraction. The storage key is derived from the UTC run
// time taken at start, not from the payload's localtime.
func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.NewString()
	startedAt := r.now().UTC()

	r.log.Printf("run %s: starting extraction for %q", runID, r.query)

	doc, err := r.fetcher.Current(ctx, r.query)
	if err != nil {
		return r.fail(runID, startedAt, status.StageFetch, err)
	}
	r.log.Printf("run %s: fetched current conditions for %q", runID, r.query)

	row, err := observation.Flatten(doc)
	if err != nil {
		return r.fail(runID, startedAt, status.StageTransform, err)
	}
	r.log.Printf("run %s: transformed response into %d columns", runID, len(row.Columns))

	key, err := r.store.Store(ctx, startedAt, row)
	if err != nil {
		return r.fail(runID, startedAt, status.StageStore, err)
	}
	r.log.Printf("run %s: stored observation at %s", runID, key)

	finishedAt := r.now().UTC()
	r.record(status.RunRecord{
		ID:         runID,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		State:      status.StateDone,
		ObjectKey:  key,
	})
	r.log.Printf("run %s: completed in %s", runID, finishedAt.Sub(startedAt))
	return nil
}

func (r *Runner) fail(runID string, startedAt time.Time, stage status.Stage, err error) error {
	r.log.Printf("run %s: %s stage failed: %v", runID, stage, err)
	r.record(status.RunRecord{
		ID:          runID,
		StartedAt:   startedAt,
		FinishedAt:  r.now().UTC(),
		State:       status.StateFailed,
		FailedStage: stage,
		Error:       err.Error(),
	})
	return err
}

func (r *Runner) record(rec status.RunRecord) {
	if r.runs != nil {
		r.runs.Append(rec)
	}
}
