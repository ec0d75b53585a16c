// Package importer writes normalized postings to the store in fixed-size chunks and tracks run counters.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/jobimport/pkg/domain"
	"github.com/umputun/jobimport/pkg/posting"
)

//go:generate moq -out mocks/job_store.go -pkg mocks -skip-ensure -fmt goimports . JobStore
//go:generate moq -out mocks/run_store.go -pkg mocks -skip-ensure -fmt goimports . RunStore

// defaults used when Params leave values unset
const (
	DefaultBatchSize       = 100
	DefaultCheckpointEvery = 10
)

// ReasonWriteFailed is the failure reason of postings lost to a chunk-level write error
const ReasonWriteFailed = "bulk write failed"

// JobStore writes postings keyed by job id
type JobStore interface {
	BulkUpsertJobs(ctx context.Context, jobs []domain.JobPosting) (domain.UpsertResult, error)
}

// RunStore persists in-progress run counters
type RunStore interface {
	CheckpointRun(ctx context.Context, id string, cp domain.Checkpoint) error
}

// Params defines importer dependencies and settings
type Params struct {
	Jobs            JobStore
	Runs            RunStore
	BatchSize       int // postings per chunk
	CheckpointEvery int // chunks between run checkpoints
}

// Importer is the batch import engine
type Importer struct {
	jobs            JobStore
	runs            RunStore
	batchSize       int
	checkpointEvery int
}

// New makes an importer, zero settings replaced by defaults
func New(params Params) *Importer {
	res := &Importer{
		jobs:            params.Jobs,
		runs:            params.Runs,
		batchSize:       params.BatchSize,
		checkpointEvery: params.CheckpointEvery,
	}
	if res.batchSize <= 0 {
		res.batchSize = DefaultBatchSize
	}
	if res.checkpointEvery <= 0 {
		res.checkpointEvery = DefaultCheckpointEvery
	}
	return res
}

// ImportAll validates and writes postings chunk by chunk. Invalid postings and postings of a chunk
// whose write failed are recorded as failures and never abort the import. Counters are checkpointed
// to the run every checkpointEvery chunks without blocking chunk processing.
// The only error returned is the context error if ctx is done between chunks.
func (im *Importer) ImportAll(ctx context.Context, postings []domain.JobPosting, sourceURL, runID string) (domain.ImportStats, error) {
	stats := domain.ImportStats{TotalFetched: len(postings)}
	lgr.Printf("[INFO] import %d postings from %s, run %s", len(postings), sourceURL, runID)

	cp := newCheckpointer(ctx, im.runs, runID)
	defer cp.close()

	chunkNum := 0
	for start := 0; start < len(postings); start += im.batchSize {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("import interrupted after %d chunks: %w", chunkNum, err)
		}
		end := min(start+im.batchSize, len(postings))
		chunkNum++
		im.importChunk(ctx, postings[start:end], &stats)
		lgr.Printf("[DEBUG] chunk %d of %s done, new %d, updated %d, failed %d",
			chunkNum, sourceURL, stats.NewJobs, stats.UpdatedJobs, stats.FailedJobs)

		if chunkNum%im.checkpointEvery == 0 {
			cp.push(stats.Checkpoint())
		}
	}

	lgr.Printf("[INFO] import of %s done in %d chunks: new %d, updated %d, unchanged %d, failed %d",
		sourceURL, chunkNum, stats.NewJobs, stats.UpdatedJobs, stats.Unchanged, stats.FailedJobs)
	return stats, nil
}

// importChunk splits the chunk into valid and invalid postings and bulk-writes the valid ones
func (im *Importer) importChunk(ctx context.Context, chunk []domain.JobPosting, stats *domain.ImportStats) {
	valid := make([]domain.JobPosting, 0, len(chunk))
	for _, p := range chunk {
		v := posting.Validate(p)
		if !v.Valid {
			lgr.Printf("[DEBUG] invalid posting %q from %s: %s", p.JobID, p.Source, v.Reason())
			stats.Fail(domain.FailedJob{JobID: p.JobID, Reason: v.Reason(), Data: failedData(p)})
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return
	}

	res, err := im.jobs.BulkUpsertJobs(ctx, valid)
	if err != nil {
		lgr.Printf("[WARN] bulk write of %d postings failed: %v", len(valid), err)
		for _, p := range valid {
			stats.Fail(domain.FailedJob{JobID: p.JobID, Reason: ReasonWriteFailed, Error: err.Error(), Data: failedData(p)})
		}
		return
	}
	stats.Add(res)
}

// failedData is the posting without its raw payload, kept for diagnosis
func failedData(p domain.JobPosting) json.RawMessage {
	p.RawPayload = nil
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return data
}

// checkpointer writes run checkpoints from a single goroutine. Pending snapshots coalesce,
// only the latest one is written once the writer is free.
type checkpointer struct {
	runs   RunStore
	runID  string
	signal chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	pending *domain.Checkpoint
}

func newCheckpointer(ctx context.Context, runs RunStore, runID string) *checkpointer {
	c := &checkpointer{runs: runs, runID: runID, signal: make(chan struct{}, 1), done: make(chan struct{})}
	go c.loop(ctx)
	return c
}

func (c *checkpointer) push(cp domain.Checkpoint) {
	c.mu.Lock()
	c.pending = &cp
	c.mu.Unlock()
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// close stops accepting snapshots and waits for the last pending one to be written
func (c *checkpointer) close() {
	close(c.signal)
	<-c.done
}

func (c *checkpointer) loop(ctx context.Context) {
	defer close(c.done)
	for range c.signal {
		c.mu.Lock()
		cp := c.pending
		c.pending = nil
		c.mu.Unlock()
		if cp == nil || c.runs == nil {
			continue
		}
		if err := c.runs.CheckpointRun(ctx, c.runID, *cp); err != nil {
			lgr.Printf("[WARN] checkpoint of run %s failed: %v", c.runID, err)
		}
	}
}
