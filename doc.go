// Package arena runs parallel loops on named arenas, each with its own
// concurrency budget, and records which iterations each loop executed.
//
// An application typically runs many distinct parallel work streams, such as
// pipeline stages. Each stream gets an arena name; the arena is built the
// first time the name is used and keeps its budget until the registry is
// released.
//
// # Dispatching Loops
//
// Create a [Registry] once and pass it to the call sites:
//
//	reg, err := arena.New(arena.WithControl("decode:2,encode:4"))
//	if err != nil {
//	    return err // bad count in the control string
//	}
//	defer reg.ReleaseAll()
//
//	id, err := arena.ParallelFor(ctx, reg, "decode", 0, len(frames), func(i int) error {
//	    return decode(frames[i])
//	})
//
// [ParallelFor], [ParallelForEach] and [Registry.RunParallel] block until
// every iteration finished or one failed. The first failure cancels the
// sub-ranges that have not started yet and is returned as a [*TaskError].
//
// # Concurrency Budgets
//
// Budgets come from a control string of "name:count" pairs, parsed by
// [ParseOverrides], a TOML file ([LoadFile]) or the ARENA_PARALLEL_CONTROL
// environment variable ([Default]). Names without an override use the
// engine default, which for [PoolEngine] is GOMAXPROCS.
//
// # Execution Contexts
//
// Every successful iteration leaves an [ExecutionContext] under the task
// instance name "<arena>_<taskID>". Workers buffer contexts locally and
// publish them once per sub-range. Read them back with [Registry.Contexts] or
// [Registry.DrainContexts]; [WriteContexts] exports them as JSON for
// comparing runs.
//
// # Engines
//
// Arenas are built by an [Engine]. The default [PoolEngine] backs each arena
// with a [Pool] of worker goroutines; tests and hosts with their own
// scheduler can supply another implementation via [WithEngine].
package arena
