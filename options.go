package arena

import (
	"io"

	"github.com/charmbracelet/log"
)

type config struct {
	engine    Engine
	resolver  *Resolver
	grain     int64
	logger    *log.Logger
	onCreated func(ArenaInfo)
}

// Option configures a [Registry].
type Option func(*config)

func defaultConfig() config {
	return config{
		engine:   PoolEngine{},
		resolver: NewResolver(""),
		logger:   log.New(io.Discard),
	}
}

// WithEngine sets the engine arenas are built on. Default is [PoolEngine].
// It panics if e is nil.
func WithEngine(e Engine) Option {
	if e == nil {
		panic("arena: WithEngine requires non-nil engine")
	}
	return func(c *config) {
		c.engine = e
	}
}

// WithResolver sets where per-arena concurrency overrides come from.
func WithResolver(r *Resolver) Option {
	if r == nil {
		panic("arena: WithResolver requires non-nil resolver")
	}
	return func(c *config) {
		c.resolver = r
	}
}

// WithControl configures overrides from "name:count,..." text.
func WithControl(text string) Option {
	return WithResolver(NewResolver(text))
}

// WithOverrides configures already parsed overrides.
func WithOverrides(o Overrides) Option {
	o = Overrides{}.Merge(o)
	return WithResolver(NewResolverFunc(func() (Overrides, error) {
		return o, nil
	}))
}

// WithGrainSize fixes the number of iterations per sub-range. Zero, the
// default, lets the engine choose. Panics if n is negative.
func WithGrainSize(n int64) Option {
	if n < 0 {
		panic("arena: WithGrainSize requires non-negative size")
	}
	return func(c *config) {
		c.grain = n
	}
}

// WithLogger sets the logger used for arena lifecycle and dispatch
// failures. Default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnArenaCreated registers a hook invoked once per constructed arena,
// while the registry write lock is held. The hook must not call back into
// the registry.
func WithOnArenaCreated(fn func(ArenaInfo)) Option {
	return func(c *config) {
		c.onCreated = fn
	}
}
