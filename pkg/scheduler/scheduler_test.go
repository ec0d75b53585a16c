package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jobimport/pkg/domain"
	"github.com/umputun/jobimport/pkg/metrics"
	"github.com/umputun/jobimport/pkg/scheduler/mocks"
	"github.com/umputun/jobimport/pkg/worker"
)

var testFeeds = []domain.FeedSource{
	{URL: "https://example.com/feed1", Active: true},
	{URL: "https://example.com/feed2", Active: true},
}

func newStore(feeds []domain.FeedSource) *mocks.FeedStoreMock {
	return &mocks.FeedStoreMock{
		GetActiveFeedsFunc:   func(context.Context) ([]domain.FeedSource, error) { return feeds, nil },
		UpsertFeedsFunc:      func(context.Context, []domain.FeedSource) error { return nil },
		MarkFeedsPendingFunc: func(context.Context, []string, time.Time) error { return nil },
	}
}

func newEnqueuer() *mocks.EnqueuerMock {
	return &mocks.EnqueuerMock{
		AddBulkFunc: func(_ context.Context, _ string, items []any) ([]string, error) {
			return make([]string, len(items)), nil
		},
	}
}

func TestNew(t *testing.T) {
	s := New(Params{})
	assert.Equal(t, "0 * * * *", s.Cron)
	assert.Equal(t, DefaultFeeds, s.Registry)
	assert.Len(t, DefaultFeeds, 8)
	for _, f := range DefaultFeeds {
		assert.True(t, f.Active, f.URL)
		assert.NotEmpty(t, f.Name, f.URL)
	}

	s = New(Params{Cron: "*/5 * * * *", Registry: testFeeds})
	assert.Equal(t, "*/5 * * * *", s.Cron)
	assert.Equal(t, testFeeds, s.Registry)
}

func TestScheduler_Sweep(t *testing.T) {
	t.Run("enqueues active feeds and marks them pending", func(t *testing.T) {
		store, q := newStore(testFeeds), newEnqueuer()
		s := New(Params{Feeds: store, Queue: q})
		fixed := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return fixed }

		count, err := s.Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		require.Len(t, q.AddBulkCalls(), 1)
		assert.Equal(t, worker.TaskName, q.AddBulkCalls()[0].Name)
		assert.Equal(t, []any{worker.TaskData{URL: "https://example.com/feed1"}, worker.TaskData{URL: "https://example.com/feed2"}},
			q.AddBulkCalls()[0].Items)

		require.Len(t, store.MarkFeedsPendingCalls(), 1)
		assert.Equal(t, []string{"https://example.com/feed1", "https://example.com/feed2"}, store.MarkFeedsPendingCalls()[0].Urls)
		assert.Equal(t, fixed, store.MarkFeedsPendingCalls()[0].At)
		assert.Empty(t, store.UpsertFeedsCalls())
	})

	t.Run("seeds registry when no active feeds", func(t *testing.T) {
		store, q := newStore(nil), newEnqueuer()
		reads := 0
		store.GetActiveFeedsFunc = func(context.Context) ([]domain.FeedSource, error) {
			reads++
			if reads == 1 {
				return nil, nil
			}
			return testFeeds[:1], nil
		}
		s := New(Params{Feeds: store, Queue: q, Registry: testFeeds})

		count, err := s.Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		require.Len(t, store.UpsertFeedsCalls(), 1)
		assert.Equal(t, testFeeds, store.UpsertFeedsCalls()[0].Feeds)
		assert.Equal(t, 2, reads)
	})

	t.Run("still empty after seeding", func(t *testing.T) {
		store, q := newStore(nil), newEnqueuer()
		s := New(Params{Feeds: store, Queue: q})

		_, err := s.Sweep(context.Background())
		require.ErrorIs(t, err, ErrNoFeeds)
		assert.Len(t, store.GetActiveFeedsCalls(), 2)
		assert.Empty(t, q.AddBulkCalls())
		assert.Empty(t, store.MarkFeedsPendingCalls())
	})

	t.Run("seeding error", func(t *testing.T) {
		store, q := newStore(nil), newEnqueuer()
		store.UpsertFeedsFunc = func(context.Context, []domain.FeedSource) error { return errors.New("db down") }
		s := New(Params{Feeds: store, Queue: q})

		_, err := s.Sweep(context.Background())
		require.EqualError(t, err, "seed feeds: db down")
		assert.Empty(t, q.AddBulkCalls())
	})

	t.Run("read error aborts sweep", func(t *testing.T) {
		store, q := newStore(nil), newEnqueuer()
		store.GetActiveFeedsFunc = func(context.Context) ([]domain.FeedSource, error) { return nil, errors.New("db down") }
		s := New(Params{Feeds: store, Queue: q})

		_, err := s.Sweep(context.Background())
		require.EqualError(t, err, "get active feeds: db down")
		assert.Empty(t, q.AddBulkCalls())
	})

	t.Run("enqueue error leaves feeds untouched", func(t *testing.T) {
		store, q := newStore(testFeeds), newEnqueuer()
		q.AddBulkFunc = func(context.Context, string, []any) ([]string, error) { return nil, errors.New("redis down") }
		s := New(Params{Feeds: store, Queue: q})

		_, err := s.Sweep(context.Background())
		require.EqualError(t, err, "enqueue 2 feeds: redis down")
		assert.Empty(t, store.MarkFeedsPendingCalls())
	})

	t.Run("mark pending error is not fatal", func(t *testing.T) {
		store, q := newStore(testFeeds), newEnqueuer()
		store.MarkFeedsPendingFunc = func(context.Context, []string, time.Time) error { return errors.New("locked") }
		s := New(Params{Feeds: store, Queue: q})

		count, err := s.Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestScheduler_SweepOverlap(t *testing.T) {
	store := newStore(testFeeds)
	entered, release := make(chan struct{}), make(chan struct{})
	var calls atomic.Int32
	q := &mocks.EnqueuerMock{
		AddBulkFunc: func(_ context.Context, _ string, items []any) ([]string, error) {
			if calls.Add(1) == 1 {
				close(entered)
				<-release
			}
			return make([]string, len(items)), nil
		},
	}
	reg := prometheus.NewRegistry()
	s := New(Params{Feeds: store, Queue: q, Metrics: metrics.New(reg)})

	type result struct {
		count int
		err   error
	}
	first := make(chan result, 1)
	go func() {
		count, err := s.Sweep(context.Background())
		first <- result{count: count, err: err}
	}()
	<-entered

	_, err := s.Sweep(context.Background())
	require.ErrorIs(t, err, ErrSweepInProgress)
	_, err = s.TriggerManual(context.Background())
	require.ErrorIs(t, err, ErrSweepInProgress, "manual trigger shares the guard")

	close(release)
	res := <-first
	require.NoError(t, res.err)
	assert.Equal(t, 2, res.count)
	assert.Len(t, q.AddBulkCalls(), 1, "no duplicate enqueue for the same cycle")

	// guard released after completion
	count, err := s.TriggerManual(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// and after a failed sweep
	store.GetActiveFeedsFunc = func(context.Context) ([]domain.FeedSource, error) { return nil, errors.New("db down") }
	_, err = s.Sweep(context.Background())
	require.Error(t, err)
	assert.False(t, s.running.Load())

	exp := `
# HELP jobimport_scheduler_sweeps_total Count of scheduler sweeps by result
# TYPE jobimport_scheduler_sweeps_total counter
jobimport_scheduler_sweeps_total{result="enqueued"} 2
jobimport_scheduler_sweeps_total{result="failed"} 1
jobimport_scheduler_sweeps_total{result="skipped"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(exp), "jobimport_scheduler_sweeps_total"))
}

func TestScheduler_StartStop(t *testing.T) {
	t.Run("run on start", func(t *testing.T) {
		store, q := newStore(testFeeds), newEnqueuer()
		s := New(Params{Feeds: store, Queue: q, RunOnStart: true})
		require.NoError(t, s.Start(context.Background()))
		require.NoError(t, s.Start(context.Background()), "second start is a no-op")
		s.Stop()
		assert.Len(t, q.AddBulkCalls(), 1, "stop waits for the startup sweep")
		s.Stop()
	})

	t.Run("cron fires sweeps", func(t *testing.T) {
		store, q := newStore(testFeeds), newEnqueuer()
		s := New(Params{Feeds: store, Queue: q, Cron: "@every 1s"})
		require.NoError(t, s.Start(context.Background()))
		defer s.Stop()
		require.Eventually(t, func() bool { return len(q.AddBulkCalls()) > 0 }, 3*time.Second, 50*time.Millisecond)
	})

	t.Run("invalid cron", func(t *testing.T) {
		s := New(Params{Feeds: newStore(testFeeds), Queue: newEnqueuer(), Cron: "not a cron"})
		err := s.Start(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `schedule "not a cron"`)
		s.Stop()
	})
}

func TestScheduler_SeedFeeds(t *testing.T) {
	store := newStore(nil)
	s := New(Params{Feeds: store})
	require.NoError(t, s.SeedFeeds(context.Background()))
	require.Len(t, store.UpsertFeedsCalls(), 1)
	assert.Equal(t, DefaultFeeds, store.UpsertFeedsCalls()[0].Feeds)

	store.UpsertFeedsFunc = func(context.Context, []domain.FeedSource) error { return errors.New("db down") }
	require.EqualError(t, s.SeedFeeds(context.Background()), "seed feeds: db down")
}
