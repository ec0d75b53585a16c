// Package worker runs the per-feed import pipeline for queued tasks: fetch, normalize, batch import
// and run record bookkeeping.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/jobimport/pkg/domain"
	"github.com/umputun/jobimport/pkg/feed"
	"github.com/umputun/jobimport/pkg/metrics"
	"github.com/umputun/jobimport/pkg/queue"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/normalizer.go -pkg mocks -skip-ensure -fmt goimports . Normalizer
//go:generate moq -out mocks/importer.go -pkg mocks -skip-ensure -fmt goimports . Importer
//go:generate moq -out mocks/run_store.go -pkg mocks -skip-ensure -fmt goimports . RunStore
//go:generate moq -out mocks/feed_store.go -pkg mocks -skip-ensure -fmt goimports . FeedStore

// TaskName is the queue task name of feed imports
const TaskName = "import-feed"

// progress checkpoints reported to the queue
const (
	progressRunCreated = 10
	progressFetched    = 40
	progressImported   = 90
	progressDone       = 100
)

// Fetcher retrieves raw items of a feed
type Fetcher interface {
	Fetch(ctx context.Context, url string) feed.Result
}

// Normalizer maps a raw item to a posting
type Normalizer interface {
	Normalize(item domain.RawItem, sourceURL string) (domain.JobPosting, error)
}

// Importer writes postings in batches
type Importer interface {
	ImportAll(ctx context.Context, postings []domain.JobPosting, sourceURL, runID string) (domain.ImportStats, error)
}

// RunStore manages run records
type RunStore interface {
	CreateRun(ctx context.Context, fileName string) (*domain.ImportRun, error)
	FinalizeRun(ctx context.Context, run domain.ImportRun) (*domain.ImportRun, error)
}

// FeedStore records the outcome of a feed run
type FeedStore interface {
	UpdateFeedResult(ctx context.Context, url string, status domain.FetchStatus, errMsg string) error
}

// TaskData is the payload of an import task
type TaskData struct {
	URL string `json:"url"`
}

// Params defines processor dependencies
type Params struct {
	Fetcher          Fetcher
	Normalizer       Normalizer
	Importer         Importer
	Runs             RunStore
	Feeds            FeedStore
	Metrics          *metrics.Metrics
	MaxFailedDetails int // failure details persisted per run, 0 keeps all
}

// Processor performs one import attempt for a feed
type Processor struct {
	Params
}

// NewProcessor makes a processor
func NewProcessor(params Params) *Processor {
	return &Processor{Params: params}
}

// Handle is the queue handler of import tasks
func (p *Processor) Handle(ctx context.Context, task *queue.Task, progress queue.ProgressFunc) (any, error) {
	var data TaskData
	if err := task.Decode(&data); err != nil {
		return nil, err
	}
	if data.URL == "" {
		return nil, fmt.Errorf("task %s has no url", task.ID)
	}
	lgr.Printf("[INFO] task %s: import %s, attempt %d of %d", task.ID, data.URL, task.AttemptsMade, task.MaxAttempts)
	run, err := p.Process(ctx, data.URL, progress)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Process runs the pipeline for a feed url and returns the finalized run. A fetch failure or an import
// exception finalizes the run as failed and is returned as error, so the queue can retry the task.
// Item level problems are counted in the run and never fail it.
func (p *Processor) Process(ctx context.Context, url string, progress queue.ProgressFunc) (res *domain.ImportRun, err error) {
	if progress == nil {
		progress = func(int) {}
	}

	run, err := p.Runs.CreateRun(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create run for %s: %w", url, err)
	}
	progress(progressRunCreated)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import %s panic: %v", url, r)
			res = p.finalize(ctx, run, domain.RunFailed, domain.ImportStats{}, err.Error())
		}
	}()

	fetched := p.Fetcher.Fetch(ctx, url)
	progress(progressFetched)
	if !fetched.Success {
		res = p.finalize(ctx, run, domain.RunFailed, domain.ImportStats{}, fetched.Error)
		return res, fmt.Errorf("fetch %s: %s", url, fetched.Error)
	}

	postings := p.normalize(fetched.Items, url)
	stats, err := p.Importer.ImportAll(ctx, postings, url, run.ID)
	if err != nil {
		res = p.finalize(ctx, run, domain.RunFailed, domain.ImportStats{}, err.Error())
		return res, fmt.Errorf("import %s: %w", url, err)
	}
	progress(progressImported)

	res = p.finalize(ctx, run, domain.RunCompleted, stats, "")
	progress(progressDone)
	lgr.Printf("[INFO] run %s of %s completed: fetched %d, new %d, updated %d, failed %d",
		run.ID, url, stats.TotalFetched, stats.NewJobs, stats.UpdatedJobs, stats.FailedJobs)
	return res, nil
}

// normalize maps raw items to postings, items failing to transform are logged and dropped
func (p *Processor) normalize(items []domain.RawItem, url string) []domain.JobPosting {
	res := make([]domain.JobPosting, 0, len(items))
	for i, item := range items {
		posting, err := p.Normalizer.Normalize(item, url)
		if err != nil {
			lgr.Printf("[WARN] skip item %d of %s: %v", i, url, err)
			continue
		}
		res = append(res, posting)
	}
	return res
}

// finalize writes the terminal state of the run and the feed result, storage errors are logged only
func (p *Processor) finalize(ctx context.Context, run *domain.ImportRun, status domain.RunStatus,
	stats domain.ImportStats, errMsg string) *domain.ImportRun {
	details := stats.Failures
	if p.MaxFailedDetails > 0 && len(details) > p.MaxFailedDetails {
		details = details[:p.MaxFailedDetails]
	}
	final := domain.ImportRun{
		ID:                run.ID,
		FileName:          run.FileName,
		Status:            status,
		StartTime:         run.StartTime,
		TotalFetched:      stats.TotalFetched,
		TotalImported:     stats.TotalImported,
		NewJobs:           stats.NewJobs,
		UpdatedJobs:       stats.UpdatedJobs,
		FailedJobs:        stats.FailedJobs,
		FailedJobsDetails: details,
		Error:             errMsg,
	}

	stored, err := p.Runs.FinalizeRun(ctx, final)
	switch {
	case err != nil:
		lgr.Printf("[WARN] finalize run %s as %s: %v", run.ID, status, err)
		end := time.Now().UTC()
		final.EndTime, final.Duration = &end, end.Sub(run.StartTime)
	default:
		final = *stored
	}
	p.Metrics.ObserveRun(status, final.Duration, stats)

	feedStatus := domain.FetchSuccess
	if status == domain.RunFailed {
		feedStatus = domain.FetchFailed
	}
	if err := p.Feeds.UpdateFeedResult(ctx, run.FileName, feedStatus, errMsg); err != nil && !errors.Is(err, context.Canceled) {
		lgr.Printf("[WARN] update feed result of %s: %v", run.FileName, err)
	}
	return &final
}
