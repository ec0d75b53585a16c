// Package queue implements a durable task queue on top of redis. Tasks wait in a list, move to an active
// list while processed under a renewable lock, and end up in completed or failed lists trimmed to the
// retention policy. Failed attempts are retried with exponential backoff through a delayed set until the
// attempt ceiling is reached. Tasks left active without a lock are considered stalled and requeued.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/umputun/jobimport/pkg/domain"
)

// defaults applied to zero Config values
const (
	DefaultAttempts      = 3
	DefaultBackoff       = 2 * time.Second
	DefaultKeepCompleted = 100
	DefaultKeepFailed    = 200
	DefaultStallInterval = 30 * time.Second
)

// blockTimeout is how long a consumer waits for a task before checking for shutdown
const blockTimeout = time.Second

// Config defines queue connection and task policy
type Config struct {
	URL           string        // redis url, redis://[:password@]host:port/db
	Name          string        // key namespace
	Attempts      int           // attempt ceiling per task
	Backoff       time.Duration // base delay of exponential retry backoff
	KeepCompleted int64         // completed tasks retained
	KeepFailed    int64         // failed tasks retained
	StallInterval time.Duration // lock ttl and stalled check period
}

// EventType is a kind of task lifecycle event
type EventType string

// event types
const (
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventProgress  EventType = "progress"
	EventStalled   EventType = "stalled"
)

// Event is delivered to listeners registered with OnEvent
type Event struct {
	Type     EventType
	TaskID   string
	Task     *Task  // nil for stalled events
	Result   any    // handler result of completed tasks
	Err      error  // failure of failed events
	Final    bool   // failed event after the last attempt
	Progress int    // progress events only
}

// ProgressFunc reports task progress in percent
type ProgressFunc func(pct int)

// Handler processes a single task attempt
type Handler func(ctx context.Context, task *Task, progress ProgressFunc) (any, error)

// Task is a queued unit of work
type Task struct {
	ID           string
	Name         string
	Data         json.RawMessage
	AttemptsMade int
	MaxAttempts  int
	Backoff      time.Duration
	Progress     int
	FailedReason string
	CreatedAt    time.Time
}

// Decode unmarshals task data into v
func (t *Task) Decode(v any) error {
	if err := json.Unmarshal(t.Data, v); err != nil {
		return fmt.Errorf("decode task %s data: %w", t.ID, err)
	}
	return nil
}

// Queue is a redis backed task queue
type Queue struct {
	client *redis.Client
	cfg    Config
	token  string // lock owner id of this process

	mu        sync.RWMutex
	listeners []func(Event)
}

// New connects to redis and makes a queue
func New(ctx context.Context, cfg Config) (*Queue, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", opts.Addr, err)
	}

	if cfg.Name == "" {
		cfg.Name = "job-import"
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.KeepCompleted <= 0 {
		cfg.KeepCompleted = DefaultKeepCompleted
	}
	if cfg.KeepFailed <= 0 {
		cfg.KeepFailed = DefaultKeepFailed
	}
	if cfg.StallInterval <= 0 {
		cfg.StallInterval = DefaultStallInterval
	}
	return &Queue{client: client, cfg: cfg, token: uuid.NewString()}, nil
}

// Close releases the redis connection
func (q *Queue) Close() error {
	return q.client.Close()
}

// OnEvent registers a listener for task events. Listeners are called synchronously from consumer goroutines.
func (q *Queue) OnEvent(fn func(Event)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listeners = append(q.listeners, fn)
}

// Add enqueues a single task and returns its id
func (q *Queue) Add(ctx context.Context, name string, data any) (string, error) {
	ids, err := q.AddBulk(ctx, name, []any{data})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// AddBulk enqueues tasks in one round trip, ids returned in input order
func (q *Queue) AddBulk(ctx context.Context, name string, items []any) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(items))
	now := time.Now().UTC().UnixMilli()
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, item := range items {
			data, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("marshal task data: %w", err)
			}
			id := uuid.NewString()
			pipe.HSet(ctx, q.taskKey(id), map[string]any{
				"name":         name,
				"data":         string(data),
				"attempts":     0,
				"max_attempts": q.cfg.Attempts,
				"backoff_ms":   q.cfg.Backoff.Milliseconds(),
				"progress":     0,
				"created_at":   now,
			})
			pipe.LPush(ctx, q.key("wait"), id)
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue %d tasks: %w", len(items), err)
	}
	return ids, nil
}

// GetTask loads a task by id
func (q *Queue) GetTask(ctx context.Context, id string) (*Task, error) {
	vals, err := q.client.HGetAll(ctx, q.taskKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return parseTask(id, vals), nil
}

// Stats returns live queue depth counters
func (q *Queue) Stats(ctx context.Context) (domain.QueueStats, error) {
	var waiting, active, completed, failed *redis.IntCmd
	var delayed *redis.IntCmd
	_, err := q.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		waiting = pipe.LLen(ctx, q.key("wait"))
		active = pipe.LLen(ctx, q.key("active"))
		completed = pipe.LLen(ctx, q.key("completed"))
		failed = pipe.LLen(ctx, q.key("failed"))
		delayed = pipe.ZCard(ctx, q.key("delayed"))
		return nil
	})
	if err != nil {
		return domain.QueueStats{}, fmt.Errorf("queue stats: %w", err)
	}
	res := domain.QueueStats{
		Waiting:   waiting.Val(),
		Active:    active.Val(),
		Completed: completed.Val(),
		Failed:    failed.Val(),
		Delayed:   delayed.Val(),
	}
	res.Total = res.Waiting + res.Active + res.Completed + res.Failed + res.Delayed
	return res, nil
}

// Process consumes tasks with the given concurrency until ctx is canceled. Handlers run with a context
// detached from ctx cancellation, so shutdown stops taking new tasks and waits for in-flight ones.
func (q *Queue) Process(ctx context.Context, concurrency int, handler Handler) {
	if concurrency <= 0 {
		concurrency = 1
	}
	lgr.Printf("[INFO] queue %s processing with concurrency %d", q.cfg.Name, concurrency)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		q.promoteLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		q.stallLoop(ctx)
	}()

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.consume(ctx, handler)
		}()
	}
	wg.Wait()
	lgr.Printf("[INFO] queue %s processing stopped", q.cfg.Name)
}

// consume takes tasks one at a time until ctx is canceled
func (q *Queue) consume(ctx context.Context, handler Handler) {
	bctx := context.WithoutCancel(ctx)
	for {
		if ctx.Err() != nil {
			return
		}
		id, err := q.client.BLMove(bctx, q.key("wait"), q.key("active"), "RIGHT", "LEFT", blockTimeout).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.ErrClosed) {
				return
			}
			lgr.Printf("[WARN] queue %s take task: %v", q.cfg.Name, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(blockTimeout):
			}
			continue
		}
		if ctx.Err() != nil {
			// taken while shutting down, leave it for the next consumer
			q.requeue(bctx, id)
			return
		}
		q.runTask(bctx, id, handler)
	}
}

// requeue moves a taken task from active back to the head of the wait list
func (q *Queue) requeue(ctx context.Context, id string) {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.key("active"), 1, id)
		pipe.RPush(ctx, q.key("wait"), id)
		return nil
	})
	if err != nil {
		lgr.Printf("[WARN] requeue task %s: %v", id, err)
		return
	}
	lgr.Printf("[DEBUG] task %s returned to queue %s on shutdown", id, q.cfg.Name)
}

// runTask executes one attempt of an active task under a lock and settles the outcome
func (q *Queue) runTask(ctx context.Context, id string, handler Handler) {
	// lock first, the stall checker skips locked tasks
	ttl := q.cfg.StallInterval
	if err := q.client.Set(ctx, q.lockKey(id), q.token, ttl).Err(); err != nil {
		lgr.Printf("[WARN] lock task %s: %v", id, err)
	}
	attempts, err := q.client.HIncrBy(ctx, q.taskKey(id), "attempts", 1).Result()
	if err != nil {
		lgr.Printf("[WARN] count attempt of task %s: %v", id, err)
	}

	task, err := q.GetTask(ctx, id)
	if err != nil {
		lgr.Printf("[WARN] drop task %s: %v", id, err)
		q.client.LRem(ctx, q.key("active"), 1, id)
		q.client.Del(ctx, q.lockKey(id))
		return
	}
	task.AttemptsMade = int(attempts)

	// keep the lock alive while the handler runs
	lockCtx, stopLock := context.WithCancel(ctx)
	go q.renewLock(lockCtx, id, ttl)

	progress := func(pct int) {
		task.Progress = pct
		if err := q.client.HSet(ctx, q.taskKey(id), "progress", pct).Err(); err != nil {
			lgr.Printf("[DEBUG] progress of task %s: %v", id, err)
		}
		q.emit(Event{Type: EventProgress, TaskID: id, Task: task, Progress: pct})
	}

	result, herr := q.safeHandle(ctx, task, progress, handler)
	stopLock()

	// settle the attempt

	if herr == nil {
		q.complete(ctx, task, result)
		return
	}
	q.fail(ctx, task, herr)
}

func (q *Queue) safeHandle(ctx context.Context, task *Task, progress ProgressFunc, handler Handler) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panic: %v", task.ID, r)
		}
	}()
	return handler(ctx, task, progress)
}

func (q *Queue) complete(ctx context.Context, task *Task, result any) {
	resData, err := json.Marshal(result)
	if err != nil {
		resData = []byte("null")
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.key("active"), 1, task.ID)
		pipe.HSet(ctx, q.taskKey(task.ID), "result", string(resData), "finished_at", time.Now().UTC().UnixMilli())
		pipe.LPush(ctx, q.key("completed"), task.ID)
		pipe.Del(ctx, q.lockKey(task.ID))
		return nil
	})
	if err != nil {
		lgr.Printf("[WARN] complete task %s: %v", task.ID, err)
	}
	q.trim(ctx, "completed", q.cfg.KeepCompleted)
	q.emit(Event{Type: EventCompleted, TaskID: task.ID, Task: task, Result: result})
}

func (q *Queue) fail(ctx context.Context, task *Task, herr error) {
	task.FailedReason = herr.Error()
	final := task.AttemptsMade >= task.MaxAttempts

	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.key("active"), 1, task.ID)
		pipe.HSet(ctx, q.taskKey(task.ID), "failed_reason", task.FailedReason)
		pipe.Del(ctx, q.lockKey(task.ID))
		// out of attempts, park in failed for inspection
		if final {
			pipe.HSet(ctx, q.taskKey(task.ID), "finished_at", time.Now().UTC().UnixMilli())
			pipe.LPush(ctx, q.key("failed"), task.ID)
			return nil
		}
		// otherwise wait in the delayed set until the backoff expires
		readyAt := time.Now().Add(retryDelay(task.Backoff, task.AttemptsMade))
		pipe.ZAdd(ctx, q.key("delayed"), redis.Z{Score: float64(readyAt.UnixMilli()), Member: task.ID})
		return nil
	})
	if err != nil {
		lgr.Printf("[WARN] fail task %s: %v", task.ID, err)
	}
	if final {
		q.trim(ctx, "failed", q.cfg.KeepFailed)
	}
	q.emit(Event{Type: EventFailed, TaskID: task.ID, Task: task, Err: herr, Final: final})
}

// retryDelay is the exponential backoff before the next attempt, base * 2^(attempts-1)
func retryDelay(base time.Duration, attemptsMade int) time.Duration {
	if attemptsMade < 1 {
		attemptsMade = 1
	}
	return base * time.Duration(1<<(attemptsMade-1))
}

// trim drops finished tasks beyond the retention limit, their hashes included
func (q *Queue) trim(ctx context.Context, list string, keep int64) {
	stale, err := q.client.LRange(ctx, q.key(list), keep, -1).Result()
	if err != nil || len(stale) == 0 {
		return
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LTrim(ctx, q.key(list), 0, keep-1)
		for _, id := range stale {
			pipe.Del(ctx, q.taskKey(id))
		}
		return nil
	})
	if err != nil {
		lgr.Printf("[WARN] trim %s tasks: %v", list, err)
	}
}

func (q *Queue) renewLock(ctx context.Context, id string, ttl time.Duration) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.client.PExpire(ctx, q.lockKey(id), ttl).Err(); err != nil && ctx.Err() == nil {
				lgr.Printf("[WARN] renew lock of task %s: %v", id, err)
			}
		}
	}
}

// promoteLoop moves delayed tasks whose backoff expired back to the wait list
func (q *Queue) promoteLoop(ctx context.Context) {
	interval := min(q.cfg.Backoff/2, time.Second)
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := q.promoteDelayed(ctx, time.Now()); err != nil && ctx.Err() == nil {
				lgr.Printf("[WARN] promote delayed tasks: %v", err)
			}
		}
	}
}

// promoteDelayed moves tasks ready at the given time to the wait list and returns their count
func (q *Queue) promoteDelayed(ctx context.Context, now time.Time) (int, error) {
	ids, err := q.client.ZRangeByScore(ctx, q.key("delayed"), &redis.ZRangeBy{
		Min: "-inf", Max: strconv.FormatInt(now.UnixMilli(), 10)}).Result()
	if err != nil {
		return 0, fmt.Errorf("read delayed tasks: %w", err)
	}
	moved := 0
	for _, id := range ids {
		removed, err := q.client.ZRem(ctx, q.key("delayed"), id).Result()
		if err != nil {
			return moved, fmt.Errorf("remove delayed task %s: %w", id, err)
		}
		if removed == 0 {
			continue // promoted by another process
		}
		if err := q.client.LPush(ctx, q.key("wait"), id).Err(); err != nil {
			return moved, fmt.Errorf("requeue delayed task %s: %w", id, err)
		}
		moved++
	}
	return moved, nil
}

// stallLoop periodically requeues active tasks which lost their lock
func (q *Queue) stallLoop(ctx context.Context) {
	ticker := time.NewTicker(q.cfg.StallInterval)
	defer ticker.Stop()
	suspects := map[string]bool{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			next, err := q.checkStalled(ctx, suspects)
			if err != nil && ctx.Err() == nil {
				lgr.Printf("[WARN] check stalled tasks: %v", err)
				continue
			}
			suspects = next
		}
	}
}

// checkStalled requeues active tasks without a lock that were already lockless on the previous check.
// Returns lockless tasks seen for the first time, to be confirmed on the next check.
func (q *Queue) checkStalled(ctx context.Context, suspects map[string]bool) (map[string]bool, error) {
	ids, err := q.client.LRange(ctx, q.key("active"), 0, -1).Result()
	if err != nil {
		return suspects, fmt.Errorf("read active tasks: %w", err)
	}
	next := map[string]bool{}
	for _, id := range ids {
		locked, err := q.client.Exists(ctx, q.lockKey(id)).Result()
		if err != nil {
			return suspects, fmt.Errorf("check lock of task %s: %w", id, err)
		}
		if locked > 0 {
			continue
		}
		// first sighting, confirm on the next check
		if !suspects[id] {
			next[id] = true
			continue
		}
		removed, err := q.client.LRem(ctx, q.key("active"), 1, id).Result()
		if err != nil {
			return suspects, fmt.Errorf("remove stalled task %s: %w", id, err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.key("wait"), id).Err(); err != nil {
			return suspects, fmt.Errorf("requeue stalled task %s: %w", id, err)
		}
		lgr.Printf("[WARN] task %s stalled, moved back to wait", id)
		q.emit(Event{Type: EventStalled, TaskID: id})
	}
	return next, nil
}

func (q *Queue) emit(ev Event) {
	q.mu.RLock()
	listeners := q.listeners
	q.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

func (q *Queue) key(name string) string {
	return "jobimport:" + q.cfg.Name + ":" + name
}

func (q *Queue) taskKey(id string) string { return q.key("task:" + id) }

func (q *Queue) lockKey(id string) string { return q.key("lock:" + id) }

func parseTask(id string, vals map[string]string) *Task {
	atoi := func(key string) int {
		v, _ := strconv.Atoi(vals[key])
		return v
	}
	created, _ := strconv.ParseInt(vals["created_at"], 10, 64)
	return &Task{
		ID:           id,
		Name:         vals["name"],
		Data:         json.RawMessage(vals["data"]),
		AttemptsMade: atoi("attempts"),
		MaxAttempts:  atoi("max_attempts"),
		Backoff:      time.Duration(atoi("backoff_ms")) * time.Millisecond,
		Progress:     atoi("progress"),
		FailedReason: vals["failed_reason"],
		CreatedAt:    time.UnixMilli(created).UTC(),
	}
}
