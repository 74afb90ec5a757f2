package arena

import (
	"context"
	"fmt"
	"math"
	"runtime"
)

// Range is a half-open interval [Begin, End) of iteration indices.
type Range struct {
	Begin int64
	End   int64
}

// NewRange returns the range [begin, end). A reversed interval is treated
// as empty.
func NewRange(begin, end int64) Range {
	if end < begin {
		end = begin
	}
	return Range{Begin: begin, End: end}
}

// Len returns the number of indices in r, saturated at math.MaxInt64 for
// ranges wider than an int64 can count.
func (r Range) Len() int64 {
	w := r.width()
	if w > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(w)
}

// width is the exact number of indices in r.
func (r Range) width() uint64 {
	if r.End <= r.Begin {
		return 0
	}
	return uint64(r.End) - uint64(r.Begin)
}

// Empty reports whether r contains no indices.
func (r Range) Empty() bool { return r.Len() == 0 }

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Begin, r.End)
}

// Split partitions r into consecutive sub-ranges of at most grain indices.
// The last sub-range carries the remainder. Split panics if grain <= 0.
func (r Range) Split(grain int64) []Range {
	if grain <= 0 {
		panic("arena: Range.Split requires grain > 0")
	}
	n := r.width()
	if n == 0 {
		return nil
	}

	g := uint64(grain)
	out := make([]Range, 0, min(n/g, 1<<16)+1)
	start := r.Begin
	for rem := n; rem > 0; {
		if rem <= g {
			out = append(out, Range{Begin: start, End: r.End})
			break
		}
		// rem > grain, so start+grain < End and cannot overflow.
		end := start + grain
		out = append(out, Range{Begin: start, End: end})
		start = end
		rem -= g
	}
	return out
}

// Engine is the execution engine arenas are built on. The registry only
// configures and invokes it; scheduling of work across goroutines belongs to
// the engine.
type Engine interface {
	// NewArena constructs a bounded-concurrency execution context that runs
	// at most concurrency jobs simultaneously.
	NewArena(concurrency int) Handle

	// DefaultConcurrency is used for arenas without a configured override.
	DefaultConcurrency() int
}

// Handle is an execution context produced by [Engine.NewArena].
type Handle interface {
	// Concurrency returns the budget the handle was built with.
	Concurrency() int

	// Execute runs job within the handle's budget and waits for it.
	Execute(ctx context.Context, job func(ctx context.Context) error) error

	// ParallelFor partitions r into sub-ranges of at most grain indices
	// (grain <= 0 lets the engine choose) and invokes fn for each one, possibly
	// concurrently and in any order. The first error returned by fn cancels
	// the context passed to the remaining invocations and is returned.
	ParallelFor(ctx context.Context, r Range, grain int64, fn func(ctx context.Context, sub Range) error) error

	// Close releases the handle. Work submitted afterwards fails.
	Close() error
}

// PoolEngine builds every arena as a [Pool] with one worker goroutine per
// unit of concurrency.
type PoolEngine struct {
	// Default overrides runtime.GOMAXPROCS(0) as the default concurrency
	// when positive.
	Default int

	// QueueSize is passed to [WithQueueSize] when positive.
	QueueSize int
}

// NewArena implements [Engine].
func (e PoolEngine) NewArena(concurrency int) Handle {
	var opts []PoolOption
	if e.QueueSize > 0 {
		opts = append(opts, WithQueueSize(e.QueueSize))
	}
	return NewPool(concurrency, opts...)
}

// DefaultConcurrency implements [Engine].
func (e PoolEngine) DefaultConcurrency() int {
	if e.Default > 0 {
		return e.Default
	}
	return runtime.GOMAXPROCS(0)
}
