package arena

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrPoolClosed is returned when work is submitted to a closed [Pool].
var ErrPoolClosed = errors.New("arena: pool is closed")

// Pool is the default arena handle: a fixed set of worker goroutines that
// bounds how many jobs of one arena run at the same time.
type Pool struct {
	tasks  chan func() error
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	// Observability counters.
	submitted atomic.Int64
	completed atomic.Int64
	errored   atomic.Int64
	inFlight  atomic.Int64
	workers   int
}

// PoolStats provides a point-in-time snapshot of pool activity.
type PoolStats struct {
	Submitted  int64 // jobs accepted by the queue
	Completed  int64 // jobs finished (success + error)
	Errored    int64 // jobs that returned non-nil error
	InFlight   int64 // jobs currently executing
	QueueDepth int   // jobs waiting in the queue
	Workers    int   // worker count (fixed at creation)
}

// PoolOption configures a [Pool].
type PoolOption func(*poolConfig)

type poolConfig struct {
	queueSize       int
	onMetrics       func(PoolStats)
	metricsInterval time.Duration
}

// WithQueueSize sets the job queue buffer size. Default is n * 2.
// Panics if size is negative.
func WithQueueSize(size int) PoolOption {
	if size < 0 {
		panic("arena: WithQueueSize requires non-negative size")
	}
	return func(c *poolConfig) {
		c.queueSize = size
	}
}

// WithPoolMetrics registers a periodic metrics callback that fires every
// interval until the pool is closed.
//
// Panics if interval <= 0 or fn is nil.
func WithPoolMetrics(interval time.Duration, fn func(PoolStats)) PoolOption {
	if interval <= 0 {
		panic("arena: WithPoolMetrics requires interval > 0")
	}
	if fn == nil {
		panic("arena: WithPoolMetrics requires non-nil callback")
	}
	return func(c *poolConfig) {
		c.onMetrics = fn
		c.metricsInterval = interval
	}
}

// NewPool creates a pool with n worker goroutines.
// Workers start immediately and process jobs until [Pool.Close] is called.
// Panics if n <= 0.
func NewPool(n int, opts ...PoolOption) *Pool {
	if n <= 0 {
		panic("arena: NewPool requires n > 0")
	}

	cfg := poolConfig{queueSize: n * 2}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:   make(chan func() error, cfg.queueSize),
		ctx:     ctx,
		cancel:  cancel,
		workers: n,
	}

	p.wg.Add(n)
	for range n {
		go p.worker()
	}

	if cfg.onMetrics != nil {
		go func() {
			ticker := time.NewTicker(cfg.metricsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if p.closed.Load() {
						return
					}
					cfg.onMetrics(p.Stats())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for fn := range p.tasks {
		p.runTask(fn)
	}
}

func (p *Pool) runTask(fn func() error) {
	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		p.completed.Add(1)
	}()

	if err := protect(fn); err != nil {
		p.errored.Add(1)
	}
}

// protect runs fn and converts a panic into a [*PanicError].
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return fn()
}

// Concurrency returns the number of workers.
func (p *Pool) Concurrency() int { return p.workers }

// Stats returns a point-in-time snapshot of pool activity.
// Safe to call concurrently.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Errored:    p.errored.Load(),
		InFlight:   p.inFlight.Load(),
		QueueDepth: len(p.tasks),
		Workers:    p.workers,
	}
}

// submit queues fn, blocking while the queue is full.
func (p *Pool) submit(ctx context.Context, fn func() error) (err error) {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	// Close may close the tasks channel between the check above and the
	// send below; the send then panics and is reported as ErrPoolClosed.
	defer func() {
		if r := recover(); r != nil {
			err = ErrPoolClosed
		}
	}()

	select {
	case p.tasks <- fn:
		p.submitted.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

// Execute runs job on one worker and blocks until it returns. A panic in
// job is returned as a [*PanicError].
func (p *Pool) Execute(ctx context.Context, job func(ctx context.Context) error) error {
	done := make(chan error, 1)
	err := p.submit(ctx, func() error {
		err := protect(func() error { return job(ctx) })
		done <- err
		return err
	})
	if err != nil {
		return err
	}
	return <-done
}

// ParallelFor implements [Handle]. At most Concurrency() sub-ranges run at
// once; each worker helper claims the next unclaimed sub-range until none
// remain or the run is cancelled.
//
// Calling ParallelFor from inside a job of the same pool can deadlock when
// every worker is busy waiting.
func (p *Pool) ParallelFor(
	ctx context.Context,
	r Range,
	grain int64,
	fn func(ctx context.Context, sub Range) error,
) error {
	if r.Empty() {
		return nil
	}
	if grain <= 0 {
		grain = autoGrain(r.Len(), p.workers)
	}
	subs := r.Split(grain)

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		next     atomic.Int64
		done     atomic.Int64
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel(err)
		})
	}

	helper := func() error {
		defer wg.Done()
		for {
			i := next.Add(1) - 1
			if i >= int64(len(subs)) || runCtx.Err() != nil {
				return nil
			}
			sub := subs[i]
			if err := protect(func() error { return fn(runCtx, sub) }); err != nil {
				fail(err)
				return err
			}
			done.Add(1)
		}
	}

	for range min(p.workers, len(subs)) {
		wg.Add(1)
		if err := p.submit(ctx, helper); err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if done.Load() == int64(len(subs)) {
		return nil
	}
	return ctx.Err()
}

// autoGrain aims for about four sub-ranges per worker.
func autoGrain(n int64, workers int) int64 {
	g := n / int64(4*workers)
	if g < 1 {
		return 1
	}
	return g
}

// Close stops accepting new jobs and waits for queued and in-flight jobs to
// finish. Safe to call multiple times.
func (p *Pool) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		close(p.tasks)
	}
	p.wg.Wait()
	p.cancel()
	return nil
}
