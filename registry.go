package arena

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Arena is a named execution context with a fixed concurrency budget.
// Arenas are created by [Registry.EnsureArena] and never change afterwards.
type Arena struct {
	name        string
	concurrency int
	handle      Handle
	created     time.Time
}

// Name returns the arena name.
func (a *Arena) Name() string { return a.name }

// Concurrency returns the budget the arena was built with.
func (a *Arena) Concurrency() int { return a.concurrency }

// Handle returns the engine handle backing the arena.
func (a *Arena) Handle() Handle { return a.handle }

// Execute runs job within the arena's budget and waits for it.
func (a *Arena) Execute(ctx context.Context, job func(ctx context.Context) error) error {
	return a.handle.Execute(ctx, job)
}

// Info returns a snapshot describing the arena.
func (a *Arena) Info() ArenaInfo {
	info := ArenaInfo{
		Name:        a.name,
		Concurrency: a.concurrency,
		Created:     a.created,
	}
	if s, ok := a.handle.(interface{ Stats() PoolStats }); ok {
		info.Stats = s.Stats()
	}
	return info
}

// ArenaInfo describes an arena. Stats is zero unless the handle reports
// [PoolStats].
type ArenaInfo struct {
	Name        string
	Concurrency int
	Created     time.Time
	Stats       PoolStats
}

// Registry owns the arenas of an application and the execution contexts
// recorded by loops dispatched through them.
//
// Two locks guard the two maps. Anything that needs both takes arenasMu
// first, then the tracker lock.
type Registry struct {
	id        uuid.UUID
	cfg       config
	overrides Overrides
	ids       *TaskIDGenerator
	logger    *log.Logger

	arenasMu sync.RWMutex
	arenas   map[string]*Arena

	contexts *tracker
}

// New creates a registry. The configured overrides are resolved here, so a
// malformed configuration fails construction with a [*ConfigParseError].
func New(opts ...Option) (*Registry, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	overrides, err := cfg.resolver.Resolve()
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	return &Registry{
		id:        id,
		cfg:       cfg,
		overrides: overrides,
		ids:       NewTaskIDGenerator(),
		logger:    cfg.logger.With("registry", id.String()),
		arenas:    make(map[string]*Arena),
		contexts:  newTracker(),
	}, nil
}

// ID returns the registry's random identity, used in log lines.
func (r *Registry) ID() uuid.UUID { return r.id }

// Overrides returns a copy of the resolved per-arena concurrency overrides.
func (r *Registry) Overrides() Overrides {
	return Overrides{}.Merge(r.overrides)
}

// EnsureArena returns the arena registered under name, building it on first
// use. Its concurrency is the configured override for name, or the engine
// default. Every name is valid. Concurrent callers for the same name get
// the same *Arena and the engine builds it once.
func (r *Registry) EnsureArena(name string) *Arena {
	r.arenasMu.RLock()
	a, ok := r.arenas[name]
	r.arenasMu.RUnlock()
	if ok {
		return a
	}

	r.arenasMu.Lock()
	defer r.arenasMu.Unlock()

	// Another caller may have built it while we waited for the write lock.
	if a, ok := r.arenas[name]; ok {
		return a
	}

	n, ok := r.overrides.Lookup(name)
	if !ok {
		n = r.cfg.engine.DefaultConcurrency()
	}
	if n < 1 {
		n = 1
	}

	a = &Arena{
		name:        name,
		concurrency: n,
		handle:      r.cfg.engine.NewArena(n),
		created:     time.Now(),
	}
	r.arenas[name] = a

	r.logger.Debug("arena created", "arena", name, "concurrency", n, "override", ok)
	if r.cfg.onCreated != nil {
		r.cfg.onCreated(a.Info())
	}
	return a
}

// Arena returns the arena registered under name without creating it.
func (r *Registry) Arena(name string) (*Arena, bool) {
	r.arenasMu.RLock()
	defer r.arenasMu.RUnlock()

	a, ok := r.arenas[name]
	return a, ok
}

// Arenas returns a snapshot of every arena, sorted by name.
func (r *Registry) Arenas() []ArenaInfo {
	r.arenasMu.RLock()
	out := make([]ArenaInfo, 0, len(r.arenas))
	for _, a := range r.arenas {
		out = append(out, a.Info())
	}
	r.arenasMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Contexts returns a copy of the contexts recorded for one dispatch, in
// flush order. Records of one sub-range are contiguous and in iteration
// order; sub-ranges appear in no particular order.
func (r *Registry) Contexts(arena string, id TaskID) []ExecutionContext {
	return r.contexts.snapshot(TaskName(arena, id))
}

// DrainContexts returns and forgets the contexts recorded for one dispatch.
func (r *Registry) DrainContexts(arena string, id TaskID) []ExecutionContext {
	return r.contexts.drain(TaskName(arena, id))
}

// TaskNames returns the names of all task instances with recorded contexts.
func (r *Registry) TaskNames() []string {
	return r.contexts.names()
}

// ReleaseAll closes every arena and forgets all recorded contexts. Names
// used afterwards get freshly built arenas.
//
// ReleaseAll must not run concurrently with dispatches on r.
func (r *Registry) ReleaseAll() error {
	r.arenasMu.Lock()
	r.contexts.mu.Lock()
	released := r.arenas
	r.arenas = make(map[string]*Arena)
	r.contexts.clearLocked()
	r.contexts.mu.Unlock()
	r.arenasMu.Unlock()

	// Handles are closed outside the locks: Close waits for queued jobs,
	// and those may still flush contexts.
	var errs []error
	for name, a := range released {
		if err := a.handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("arena %q: %w", name, err))
		}
	}

	r.logger.Debug("registry released", "arenas", len(released))
	return errors.Join(errs...)
}
