package order

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// AsyncExecutor runs broker submissions on a fixed worker pool fed by a
// bounded queue so slow broker calls never stall tick processing.
type AsyncExecutor struct {
	router  *Router
	queue   *Queue
	results chan Execution
	workers int
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	dropped atomic.Uint64
	log     zerolog.Logger
}

// NewAsyncExecutor creates an executor with the given worker count and queue size.
func NewAsyncExecutor(router *Router, workers, queueSize int, log zerolog.Logger) *AsyncExecutor {
	if workers <= 0 {
		workers = 4
	}
	q := NewQueue(queueSize)
	return &AsyncExecutor{
		router:  router,
		queue:   q,
		results: make(chan Execution, cap(q.ch)+workers),
		workers: workers,
		log:     log.With().Str("component", "async_executor").Logger(),
	}
}

// Start launches the workers. Broker calls already in flight when ctx is
// canceled run to completion; orders still queued are reported as failed.
func (a *AsyncExecutor) Start(ctx context.Context) {
	for range a.workers {
		a.wg.Add(1)
		go a.work(ctx)
	}
}

func (a *AsyncExecutor) work(ctx context.Context) {
	defer a.wg.Done()
	detached := context.WithoutCancel(ctx)
	for o := range a.queue.Chan() {
		var res Result
		if ctx.Err() != nil {
			res = failed("shutting down")
		} else {
			res = a.router.Submit(detached, o)
		}
		a.results <- Execution{Order: o, Result: res, Timestamp: time.Now()}
	}
}

// Submit enqueues o. When the queue is full or closed the order is reported
// as failed on Results and Submit returns false.
func (a *AsyncExecutor) Submit(o Order) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		a.log.Warn().Str("order_id", o.ID).Msg("executor closed; order rejected")
		return false
	}
	if a.queue.TryEnqueue(o) {
		return true
	}
	a.log.Warn().Str("order_id", o.ID).Int("queue", a.queue.Len()).Msg("execution queue full; order dropped")
	select {
	case a.results <- Execution{Order: o, Result: failed("execution queue full"), Timestamp: time.Now()}:
	default:
		a.dropped.Add(1)
		a.log.Error().Str("order_id", o.ID).Msg("results backlog full; queue-full failure not reported")
	}
	return false
}

// Dropped counts rejected orders whose failure could not be put on Results.
func (a *AsyncExecutor) Dropped() uint64 { return a.dropped.Load() }

// Results streams every outcome. It is closed by Close.
func (a *AsyncExecutor) Results() <-chan Execution {
	return a.results
}

// Pending returns the number of queued orders.
func (a *AsyncExecutor) Pending() int {
	return a.queue.Len()
}

// Close stops accepting orders, waits for workers and closes Results.
func (a *AsyncExecutor) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.queue.Close()
	a.mu.Unlock()

	a.wg.Wait()
	close(a.results)
}
