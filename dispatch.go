package arena

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// RunParallel runs body for every index of rng on the named arena and
// blocks until all iterations have finished or one has failed. The arena is
// built on first use.
//
// Each engine sub-range records its contexts in a private buffer and hands
// them to the registry once, after the whole sub-range has succeeded, so
// bookkeeping takes one lock per sub-range rather than one per index. When
// body fails, the contexts buffered by that sub-range are dropped, the
// remaining sub-ranges are cancelled, and the failure is returned as a
// [*TaskError]. A panic in body is reported the same way, with a
// [*PanicError] as the cause.
//
// The returned TaskID selects the recorded contexts in [Registry.Contexts].
func (r *Registry) RunParallel(
	ctx context.Context,
	arena string,
	rng Range,
	body func(ctx context.Context, i int64) error,
) (TaskID, error) {
	id := r.ids.Next()
	name := TaskName(arena, id)
	a := r.EnsureArena(arena)

	err := a.handle.ParallelFor(ctx, rng, r.cfg.grain, func(ctx context.Context, sub Range) error {
		local := make([]ExecutionContext, 0, sub.Len())
		for i := sub.Begin; i < sub.End; i++ {
			if err := protect(func() error { return body(ctx, i) }); err != nil {
				return &TaskError{
					Task: TaskInfo{Arena: arena, TaskID: id, Index: i},
					Err:  err,
				}
			}
			local = append(local, ExecutionContext{Index: i, Arena: arena, TaskID: id})
		}
		r.contexts.push(name, local)
		return nil
	})
	if err != nil {
		r.logger.Warn("parallel dispatch failed", "arena", arena, "task", id, "range", rng, "err", err)
	}
	return id, err
}

// ErrIndexOverflow is returned by [ParallelFor] when a bound does not fit
// in an int64.
var ErrIndexOverflow = errors.New("arena: loop bound overflows int64")

// ParallelFor runs body for every i in [begin, end) on the named arena of
// reg. See [Registry.RunParallel]. Bounds that do not fit in an int64 fail
// with [ErrIndexOverflow] before anything runs.
//
//	id, err := arena.ParallelFor(ctx, reg, "decode", 0, len(frames), func(i int) error {
//	    return decode(frames[i])
//	})
func ParallelFor[I constraints.Integer](
	ctx context.Context,
	reg *Registry,
	arena string,
	begin, end I,
	body func(i I) error,
) (TaskID, error) {
	b, ok1 := toInt64(begin)
	e, ok2 := toInt64(end)
	if !ok1 || !ok2 {
		return 0, fmt.Errorf("%w: [%v, %v)", ErrIndexOverflow, begin, end)
	}
	return reg.RunParallel(ctx, arena, NewRange(b, e), func(_ context.Context, i int64) error {
		return body(I(i))
	})
}

// toInt64 converts v, reporting whether the value survived unchanged.
func toInt64[I constraints.Integer](v I) (int64, bool) {
	n := int64(v)
	return n, I(n) == v && (n < 0) == (v < 0)
}

// ParallelForEach runs body for every element of items on the named arena
// of reg. Recorded contexts carry the element position as their index.
func ParallelForEach[T any](
	ctx context.Context,
	reg *Registry,
	arena string,
	items []T,
	body func(i int, item T) error,
) (TaskID, error) {
	return reg.RunParallel(ctx, arena, NewRange(0, int64(len(items))), func(_ context.Context, i int64) error {
		return body(int(i), items[i])
	})
}
