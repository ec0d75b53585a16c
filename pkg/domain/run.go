package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidTransition is returned when a run status change is not allowed
var ErrInvalidTransition = errors.New("invalid run status transition")

// RunStatus is the state of an import run
type RunStatus string

// run statuses
const (
	RunPending    RunStatus = "pending"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// Terminal reports whether no further transitions are possible from the status
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// CanTransition reports whether the run may move from one status to another.
// Transitions are one-directional: pending -> processing -> {completed, failed}, pending may also end directly.
func CanTransition(from, to RunStatus) bool {
	switch from {
	case RunPending:
		return to == RunProcessing || to == RunCompleted || to == RunFailed
	case RunProcessing:
		return to == RunCompleted || to == RunFailed
	default:
		return false
	}
}

// FailedJob describes one posting which could not be imported
type FailedJob struct {
	JobID  string          `json:"jobId"`
	Reason string          `json:"reason"`
	Error  string          `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ImportRun is the persisted record of one fetch-and-import attempt for a single feed
type ImportRun struct {
	ID                string        `json:"id"`
	FileName          string        `json:"fileName"`
	Status            RunStatus     `json:"status"`
	StartTime         time.Time     `json:"startTime"`
	EndTime           *time.Time    `json:"endTime,omitempty"`
	Duration          time.Duration `json:"duration,omitempty"`
	TotalFetched      int           `json:"totalFetched"`
	TotalImported     int           `json:"totalImported"`
	NewJobs           int           `json:"newJobs"`
	UpdatedJobs       int           `json:"updatedJobs"`
	FailedJobs        int           `json:"failedJobs"`
	FailedJobsDetails []FailedJob   `json:"failedJobsDetails"`
	Error             string        `json:"error,omitempty"`
}

// ImportStats are the counters produced by the batch import engine
type ImportStats struct {
	TotalFetched  int
	TotalImported int
	NewJobs       int
	UpdatedJobs   int
	Unchanged     int
	FailedJobs    int
	Failures      []FailedJob // full ordered list, capped only when persisted
}

// Add accumulates counters of a single chunk
func (s *ImportStats) Add(res UpsertResult) {
	s.NewJobs += res.Inserted
	s.UpdatedJobs += res.Modified
	s.Unchanged += res.Unchanged
	s.TotalImported = s.NewJobs + s.UpdatedJobs
}

// Fail records a failed posting
func (s *ImportStats) Fail(f FailedJob) {
	s.FailedJobs++
	s.Failures = append(s.Failures, f)
}

// Checkpoint is a non-final snapshot of in-progress run counters
type Checkpoint struct {
	TotalFetched  int
	TotalImported int
	NewJobs       int
	UpdatedJobs   int
	FailedJobs    int
}

// Checkpoint returns the counters snapshot of the stats
func (s *ImportStats) Checkpoint() Checkpoint {
	return Checkpoint{
		TotalFetched:  s.TotalFetched,
		TotalImported: s.TotalImported,
		NewJobs:       s.NewJobs,
		UpdatedJobs:   s.UpdatedJobs,
		FailedJobs:    s.FailedJobs,
	}
}

// AggregateStats are totals summed across all recorded runs
type AggregateStats struct {
	Runs          int `json:"runs" db:"runs"`
	TotalFetched  int `json:"totalFetched" db:"total_fetched"`
	TotalImported int `json:"totalImported" db:"total_imported"`
	NewJobs       int `json:"newJobs" db:"new_jobs"`
	UpdatedJobs   int `json:"updatedJobs" db:"updated_jobs"`
	FailedJobs    int `json:"failedJobs" db:"failed_jobs"`
}

// QueueStats are live queue depth counters
type QueueStats struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Delayed   int64 `json:"delayed"`
	Total     int64 `json:"total"`
}
