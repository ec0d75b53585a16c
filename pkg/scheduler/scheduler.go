// Package scheduler enqueues one import task per active feed source on a cron schedule or on demand.
// Sweeps never overlap, a sweep requested while another one runs is skipped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/umputun/jobimport/pkg/domain"
	"github.com/umputun/jobimport/pkg/metrics"
	"github.com/umputun/jobimport/pkg/worker"
)

//go:generate moq -out mocks/feed_store.go -pkg mocks -skip-ensure -fmt goimports . FeedStore
//go:generate moq -out mocks/enqueuer.go -pkg mocks -skip-ensure -fmt goimports . Enqueuer

var (
	// ErrSweepInProgress is returned when a sweep is requested while another one is running
	ErrSweepInProgress = errors.New("sweep already in progress")
	// ErrNoFeeds is returned when no active feed sources exist even after seeding
	ErrNoFeeds = errors.New("no active feeds")
)

// FeedStore provides access to feed sources
type FeedStore interface {
	GetActiveFeeds(ctx context.Context) ([]domain.FeedSource, error)
	UpsertFeeds(ctx context.Context, feeds []domain.FeedSource) error
	MarkFeedsPending(ctx context.Context, urls []string, at time.Time) error
}

// Enqueuer adds import tasks to the queue
type Enqueuer interface {
	AddBulk(ctx context.Context, name string, items []any) ([]string, error)
}

// DefaultFeeds is the registry seeded when no feeds are configured
var DefaultFeeds = []domain.FeedSource{
	{URL: "https://jobicy.com/?feed=job_feed", Name: "Jobicy - All Jobs", Category: "all", Active: true},
	{URL: "https://jobicy.com/?feed=job_feed&job_categories=smm&job_types=full-time",
		Name: "Jobicy - Social Media Marketing", Category: "smm", JobType: "full-time", Active: true},
	{URL: "https://jobicy.com/?feed=job_feed&job_categories=seller&job_types=full-time&search_region=france",
		Name: "Jobicy - Seller (France)", Category: "seller", JobType: "full-time", Region: "france", Active: true},
	{URL: "https://jobicy.com/?feed=job_feed&job_categories=design-multimedia",
		Name: "Jobicy - Design & Multimedia", Category: "design-multimedia", Active: true},
	{URL: "https://jobicy.com/?feed=job_feed&job_categories=data-science",
		Name: "Jobicy - Data Science", Category: "data-science", Active: true},
	{URL: "https://jobicy.com/?feed=job_feed&job_categories=copywriting",
		Name: "Jobicy - Copywriting", Category: "copywriting", Active: true},
	{URL: "https://jobicy.com/?feed=job_feed&job_categories=business",
		Name: "Jobicy - Business", Category: "business", Active: true},
	{URL: "https://jobicy.com/?feed=job_feed&job_categories=management",
		Name: "Jobicy - Management", Category: "management", Active: true},
}

// sweep outcomes reported to metrics
const (
	sweepEnqueued = "enqueued"
	sweepSkipped  = "skipped"
	sweepFailed   = "failed"
)

// Params defines scheduler dependencies and settings
type Params struct {
	Feeds      FeedStore
	Queue      Enqueuer
	Metrics    *metrics.Metrics
	Cron       string              // cron expression, "0 * * * *" if empty
	Registry   []domain.FeedSource // feeds seeded at startup and on empty store, DefaultFeeds if empty
	RunOnStart bool
}

// Scheduler runs feed sweeps
type Scheduler struct {
	Params
	running atomic.Bool
	now     func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
	wg   sync.WaitGroup
}

// New makes a scheduler
func New(params Params) *Scheduler {
	if params.Cron == "" {
		params.Cron = "0 * * * *"
	}
	if len(params.Registry) == 0 {
		params.Registry = DefaultFeeds
	}
	return &Scheduler{Params: params, now: time.Now}
}

// SeedFeeds upserts the feed registry by url. Existing feeds keep their active flag.
func (s *Scheduler) SeedFeeds(ctx context.Context) error {
	if err := s.Feeds.UpsertFeeds(ctx, s.Registry); err != nil {
		return fmt.Errorf("seed feeds: %w", err)
	}
	lgr.Printf("[INFO] seeded %d feeds", len(s.Registry))
	return nil
}

// Start registers the sweep on the cron schedule, optionally runs one sweep right away
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New(cron.WithLogger(cron.PrintfLogger(log.Default())))
	if _, err := c.AddFunc(s.Cron, func() { s.scheduled(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.Cron, err)
	}
	c.Start()
	s.cron = c
	lgr.Printf("[INFO] scheduler started, cron %q", s.Cron)

	if s.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.scheduled(ctx)
		}()
	}
	return nil
}

// Stop removes the schedule and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.cron = nil
	lgr.Printf("[INFO] scheduler stopped")
}

// TriggerManual runs a sweep on demand, it shares the overlap guard with scheduled sweeps
func (s *Scheduler) TriggerManual(ctx context.Context) (int, error) {
	lgr.Printf("[INFO] manual sweep triggered")
	return s.Sweep(ctx)
}

// Sweep enqueues an import task for every active feed and marks the feeds pending.
// Returns the number of enqueued tasks, ErrSweepInProgress if another sweep is running.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		lgr.Printf("[WARN] sweep already running, skipped")
		s.Metrics.ObserveSweep(sweepSkipped)
		return 0, ErrSweepInProgress
	}
	defer s.running.Store(false)

	st := s.now()
	count, err := s.sweep(ctx)
	if err != nil {
		s.Metrics.ObserveSweep(sweepFailed)
		return 0, err
	}
	s.Metrics.ObserveSweep(sweepEnqueued)
	lgr.Printf("[INFO] sweep completed in %v, queued %d feeds", s.now().Sub(st), count)
	return count, nil
}

func (s *Scheduler) sweep(ctx context.Context) (int, error) {
	feeds, err := s.Feeds.GetActiveFeeds(ctx)
	if err != nil {
		return 0, fmt.Errorf("get active feeds: %w", err)
	}
	if len(feeds) == 0 {
		lgr.Printf("[WARN] no active feeds, seeding registry")
		if err = s.SeedFeeds(ctx); err != nil {
			return 0, err
		}
		if feeds, err = s.Feeds.GetActiveFeeds(ctx); err != nil {
			return 0, fmt.Errorf("get active feeds: %w", err)
		}
		if len(feeds) == 0 {
			return 0, ErrNoFeeds
		}
	}

	urls := make([]string, 0, len(feeds))
	tasks := make([]any, 0, len(feeds))
	for _, f := range feeds {
		urls = append(urls, f.URL)
		tasks = append(tasks, worker.TaskData{URL: f.URL})
	}
	if _, err = s.Queue.AddBulk(ctx, worker.TaskName, tasks); err != nil {
		return 0, fmt.Errorf("enqueue %d feeds: %w", len(tasks), err)
	}

	// enqueued tasks stay in the queue even if marking fails, the next sweep selects by active flag
	if err = s.Feeds.MarkFeedsPending(ctx, urls, s.now().UTC()); err != nil {
		lgr.Printf("[WARN] mark %d feeds pending: %v", len(urls), err)
	}
	return len(tasks), nil
}

func (s *Scheduler) scheduled(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, ErrSweepInProgress) {
		lgr.Printf("[ERROR] sweep failed: %v", err)
	}
}
