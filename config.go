package arena

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// EnvParallelControl names the environment variable read by [Default].
const EnvParallelControl = "ARENA_PARALLEL_CONTROL"

// Overrides maps arena names to their configured concurrency.
type Overrides map[string]int

// Lookup returns the concurrency configured for name.
func (o Overrides) Lookup(name string) (int, bool) {
	n, ok := o[name]
	return n, ok
}

// Merge returns a new Overrides holding o with other applied on top.
func (o Overrides) Merge(other Overrides) Overrides {
	out := make(Overrides, len(o)+len(other))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// ConfigParseError reports a configuration entry whose count is not a
// positive integer.
type ConfigParseError struct {
	Entry string
	Err   error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("arena: invalid parallel control entry %q: %v", e.Entry, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

// ParseOverrides parses "name:count" pairs separated by commas, such as
// "decode:2,encode:4". Entries without a ':' or with an empty name are
// skipped. A count that is not an integer >= 1 fails the whole parse.
// Later entries win over earlier ones with the same name.
func ParseOverrides(text string) (Overrides, error) {
	out := make(Overrides)
	if strings.TrimSpace(text) == "" {
		return out, nil
	}

	for _, item := range strings.Split(text, ",") {
		name, count, ok := strings.Cut(strings.TrimSpace(item), ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil {
			return nil, &ConfigParseError{Entry: item, Err: err}
		}
		if n < 1 {
			return nil, &ConfigParseError{Entry: item, Err: fmt.Errorf("count %d must be >= 1", n)}
		}
		out[name] = n
	}
	return out, nil
}

// fileConfig is the TOML layout accepted by [LoadFile]:
//
//	control = "decode:2,encode:4"
//
//	[arenas]
//	encode = 8
type fileConfig struct {
	Control string         `toml:"control"`
	Arenas  map[string]int `toml:"arenas"`
}

// LoadFile reads overrides from a TOML file. Entries of the [arenas] table
// take precedence over the control string.
func LoadFile(path string) (Overrides, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("arena: decoding %s: %w", path, err)
	}

	base, err := ParseOverrides(fc.Control)
	if err != nil {
		return nil, err
	}
	for name, n := range fc.Arenas {
		if n < 1 {
			entry := fmt.Sprintf("%s:%d", name, n)
			return nil, &ConfigParseError{Entry: entry, Err: fmt.Errorf("count %d must be >= 1", n)}
		}
	}
	return base.Merge(fc.Arenas), nil
}

// Resolver resolves overrides at most once and caches the outcome,
// including a failure.
type Resolver struct {
	resolve func() (Overrides, error)
}

// NewResolverFunc returns a Resolver backed by fn. fn runs on the first
// call to [Resolver.Resolve] only.
func NewResolverFunc(fn func() (Overrides, error)) *Resolver {
	return &Resolver{resolve: sync.OnceValues(fn)}
}

// NewResolver returns a Resolver that parses text.
func NewResolver(text string) *Resolver {
	return NewResolverFunc(func() (Overrides, error) {
		return ParseOverrides(text)
	})
}

// EnvResolver returns a Resolver that parses the environment variable key
// when first resolved. An unset variable yields no overrides.
func EnvResolver(key string) *Resolver {
	return NewResolverFunc(func() (Overrides, error) {
		return ParseOverrides(os.Getenv(key))
	})
}

// FileResolver returns a Resolver that loads path with [LoadFile].
func FileResolver(path string) *Resolver {
	return NewResolverFunc(func() (Overrides, error) {
		return LoadFile(path)
	})
}

// Resolve returns the cached overrides.
func (r *Resolver) Resolve() (Overrides, error) {
	return r.resolve()
}
