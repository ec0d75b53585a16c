// Package metrics defines prometheus instruments of the import pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/umputun/jobimport/pkg/domain"
)

const namespace = "jobimport"

// Metrics holds pipeline instruments
type Metrics struct {
	runs        *prometheus.CounterVec
	postings    *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	tasks       *prometheus.CounterVec
	sweeps      *prometheus.CounterVec
}

// New makes instruments registered with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Count of finalized import runs",
		}, []string{"status"}),
		postings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "postings_total",
			Help:      "Count of processed postings by outcome",
		}, []string{"outcome"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "run_duration_seconds",
			Help:      "Duration of import runs",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"status"}),
		tasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "task_events_total",
			Help:      "Count of queue task events",
		}, []string{"event"}),
		sweeps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "sweeps_total",
			Help:      "Count of scheduler sweeps by result",
		}, []string{"result"}),
	}
}

// ObserveRun records a finalized run and the outcome of its postings
func (m *Metrics) ObserveRun(status domain.RunStatus, duration time.Duration, stats domain.ImportStats) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(status)).Inc()
	m.runDuration.WithLabelValues(string(status)).Observe(duration.Seconds())
	m.postings.WithLabelValues("new").Add(float64(stats.NewJobs))
	m.postings.WithLabelValues("updated").Add(float64(stats.UpdatedJobs))
	m.postings.WithLabelValues("unchanged").Add(float64(stats.Unchanged))
	m.postings.WithLabelValues("failed").Add(float64(stats.FailedJobs))
}

// ObserveTask records a queue task event
func (m *Metrics) ObserveTask(event string) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(event).Inc()
}

// ObserveSweep records a scheduler sweep result, e.g. enqueued, skipped or failed
func (m *Metrics) ObserveSweep(result string) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(result).Inc()
}

// QueueStatser provides live queue depth
type QueueStatser interface {
	Stats(ctx context.Context) (domain.QueueStats, error)
}

// QueueCollector exports queue depth gauges read on every scrape
type QueueCollector struct {
	src   QueueStatser
	depth *prometheus.Desc
}

// NewQueueCollector makes a collector reading depth from src
func NewQueueCollector(src QueueStatser) *QueueCollector {
	return &QueueCollector{
		src: src,
		depth: prometheus.NewDesc(prometheus.BuildFQName(namespace, "queue", "tasks"),
			"Number of tasks in the queue by state", []string{"state"}, nil),
	}
}

// Describe implements prometheus.Collector
func (c *QueueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.depth
}

// Collect implements prometheus.Collector
func (c *QueueCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := c.src.Stats(ctx)
	if err != nil {
		lgr.Printf("[WARN] collect queue stats: %v", err)
		return
	}
	for state, v := range map[string]int64{"waiting": st.Waiting, "active": st.Active, "completed": st.Completed,
		"failed": st.Failed, "delayed": st.Delayed} {
		ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(v), state)
	}
}

// Handler serves the exposition of the given registry
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
