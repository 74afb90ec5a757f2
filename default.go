package arena

import "sync"

// envOverrides is read from the environment at most once per process.
var envOverrides = EnvResolver(EnvParallelControl)

var (
	defaultMu  sync.Mutex
	defaultReg *Registry
)

// Default returns the process-wide registry, creating it on first use with
// overrides from the ARENA_PARALLEL_CONTROL environment variable.
//
// Default panics if that variable holds an invalid count: a process should
// not run with an ambiguous concurrency budget. Prefer [New] and passing the
// registry explicitly when the host application controls its lifecycle.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultReg == nil {
		reg, err := New(WithResolver(envOverrides))
		if err != nil {
			panic(err)
		}
		defaultReg = reg
	}
	return defaultReg
}

// ReleaseDefault releases the process-wide registry. The next call to
// [Default] creates a new one.
func ReleaseDefault() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultReg == nil {
		return nil
	}
	err := defaultReg.ReleaseAll()
	defaultReg = nil
	return err
}
