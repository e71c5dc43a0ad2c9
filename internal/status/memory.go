// Package status keeps an in-memory history of recent runs for the
// daemon-mode status API.
package status

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no run has been recorded yet.
var ErrNotFound = errors.New("no runs recorded")

// State is the terminal state of a run.
type State string

const (
	StateDone   State = "done"
	StateFailed State = "failed"
)

// Stage names the pipeline step a failed run stopped at.
type Stage string

const (
	StageConfig    Stage = "config"
	StageFetch     Stage = "fetch"
	StageTransform Stage = "transform"
	StageStore     Stage = "store"
)

// RunRecord describes one completed run.
type RunRecord struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	State       State     `json:"state"`
	FailedStage Stage     `json:"failedStage,omitempty"`
	ObjectKey   string    `json:"objectKey,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// MemoryStore is a concurrency-safe, append-only run history with count and
// age retention.
type MemoryStore struct {
	mu sync.RWMutex

	records []RunRecord

	maxHistory int           // max number of retained records (<= 0 = unlimited)
	maxAge     time.Duration // max record age (0 = unlimited)
}

// NewMemoryStore creates a new MemoryStore with optional limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Append records a finished run and enforces retention.
func (s *MemoryStore) Append(rec RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.records) > s.maxHistory {
		over := len(s.records) - s.maxHistory
		s.records = s.records[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.records); i++ {
			if !s.records[i].FinishedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(s.records) {
			s.records = s.records[i:]
		}
	}
}

// Latest returns the most recently recorded run.
func (s *MemoryStore) Latest() (RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return RunRecord{}, ErrNotFound
	}
	return s.records[len(s.records)-1], nil
}

// Range returns all runs that started between from and to (inclusive).
func (s *MemoryStore) Range(from, to time.Time) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []RunRecord
	for _, rec := range s.records {
		if !rec.StartedAt.Before(from) && !rec.StartedAt.After(to) {
			result = append(result, rec)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
