package worker

import (
	"context"
	"sync"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/jobimport/pkg/metrics"
	"github.com/umputun/jobimport/pkg/queue"
)

//go:generate moq -out mocks/task_queue.go -pkg mocks -skip-ensure -fmt goimports . TaskQueue

// TaskQueue is the consumer side of the task queue
type TaskQueue interface {
	Process(ctx context.Context, concurrency int, handler queue.Handler)
	OnEvent(fn func(queue.Event))
}

// Pool consumes import tasks with bounded concurrency
type Pool struct {
	queue       TaskQueue
	handler     queue.Handler
	concurrency int
	metrics     *metrics.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewPool makes a pool running handler for queued tasks, concurrency defaults to 5
func NewPool(q TaskQueue, handler queue.Handler, concurrency int, m *metrics.Metrics) *Pool {
	if concurrency <= 0 {
		concurrency = 5
	}
	p := &Pool{queue: q, handler: handler, concurrency: concurrency, metrics: m}
	q.OnEvent(p.onEvent)
	return p
}

// Start begins consuming tasks in background
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.group = &errgroup.Group{}
	p.group.Go(func() error {
		p.queue.Process(ctx, p.concurrency, p.handler)
		return nil
	})
	lgr.Printf("[INFO] worker pool started, concurrency %d", p.concurrency)
}

// Stop stops taking new tasks and waits for in-flight ones to finish
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return
	}
	p.cancel()
	_ = p.group.Wait()
	p.cancel, p.group = nil, nil
	lgr.Printf("[INFO] worker pool stopped")
}

func (p *Pool) onEvent(ev queue.Event) {
	p.metrics.ObserveTask(string(ev.Type))
	switch ev.Type {
	case queue.EventCompleted:
		lgr.Printf("[DEBUG] task %s completed", ev.TaskID)
	case queue.EventFailed:
		if ev.Final {
			lgr.Printf("[ERROR] task %s failed permanently after %d attempts: %v", ev.TaskID, ev.Task.AttemptsMade, ev.Err)
			return
		}
		lgr.Printf("[WARN] task %s failed, attempt %d of %d: %v", ev.TaskID, ev.Task.AttemptsMade, ev.Task.MaxAttempts, ev.Err)
	case queue.EventProgress:
		lgr.Printf("[DEBUG] task %s progress %d%%", ev.TaskID, ev.Progress)
	case queue.EventStalled:
		lgr.Printf("[WARN] task %s stalled", ev.TaskID)
	}
}
