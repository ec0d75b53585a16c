package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jobimport/pkg/domain"
)

type statsFunc func(ctx context.Context) (domain.QueueStats, error)

func (f statsFunc) Stats(ctx context.Context) (domain.QueueStats, error) { return f(ctx) }

func TestMetrics_ObserveRun(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRun(domain.RunCompleted, 3*time.Second, domain.ImportStats{NewJobs: 5, UpdatedJobs: 2, Unchanged: 1, FailedJobs: 1})
	m.ObserveRun(domain.RunFailed, time.Second, domain.ImportStats{})

	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("completed")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("failed")), 0.001)
	assert.InDelta(t, 5, testutil.ToFloat64(m.postings.WithLabelValues("new")), 0.001)
	assert.InDelta(t, 2, testutil.ToFloat64(m.postings.WithLabelValues("updated")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.postings.WithLabelValues("unchanged")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.postings.WithLabelValues("failed")), 0.001)

	m.ObserveTask("completed")
	m.ObserveSweep("skipped")
	assert.InDelta(t, 1, testutil.ToFloat64(m.tasks.WithLabelValues("completed")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.sweeps.WithLabelValues("skipped")), 0.001)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun(domain.RunCompleted, time.Second, domain.ImportStats{})
		m.ObserveTask("failed")
		m.ObserveSweep("enqueued")
	})
}

func TestQueueCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewQueueCollector(statsFunc(func(context.Context) (domain.QueueStats, error) {
		return domain.QueueStats{Waiting: 3, Active: 2, Completed: 10, Failed: 1, Delayed: 4, Total: 20}, nil
	})))

	ts := httptest.NewServer(Handler(reg))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `jobimport_queue_tasks{state="waiting"} 3`)
	assert.Contains(t, string(body), `jobimport_queue_tasks{state="delayed"} 4`)

	t.Run("stats error skips gauges", func(t *testing.T) {
		c := NewQueueCollector(statsFunc(func(context.Context) (domain.QueueStats, error) {
			return domain.QueueStats{}, errors.New("redis down")
		}))
		assert.Equal(t, 0, testutil.CollectAndCount(c))
	})
}
