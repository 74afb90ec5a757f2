// Command arenactl runs a synthetic multi-stage workload on named arenas and
// reports the configured budgets and the execution contexts each stage left.
//
//	arenactl -control "decode:2,encode:4" -items 1000
//	arenactl -config arenas.toml -dump contexts.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/baxromumarov/arena"
)

func main() {
	var (
		control = flag.String("control", os.Getenv(arena.EnvParallelControl), "per-arena budgets, e.g. \"decode:2,encode:4\"")
		cfgPath = flag.String("config", "", "TOML file with budgets; takes precedence over -control")
		items   = flag.Int("items", 1000, "iterations per stage")
		grain   = flag.Int64("grain", 0, "iterations per sub-range (0 = automatic)")
		failAt  = flag.Int("fail-at", -1, "make the encode stage fail at this index")
		dump    = flag.String("dump", "", "write the contexts of the last stage as JSON to this file")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "arenactl",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	resolver := arena.NewResolver(*control)
	if *cfgPath != "" {
		resolver = arena.FileResolver(*cfgPath)
	}

	reg, err := arena.New(
		arena.WithResolver(resolver),
		arena.WithGrainSize(*grain),
		arena.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	err = run(context.Background(), reg, logger, *items, *failAt, *dump)
	if rerr := reg.ReleaseAll(); rerr != nil {
		logger.Error("release", "err", rerr)
	}
	if err != nil {
		logger.Fatal("workload failed", "err", err)
	}
}

func run(ctx context.Context, reg *arena.Registry, logger *log.Logger, items, failAt int, dump string) (err error) {
	frames := make([]int, items)

	stages := []struct {
		name string
		body func(i int) error
	}{
		{"decode", func(i int) error {
			frames[i] = i * 3
			return nil
		}},
		{"filter", func(i int) error {
			frames[i] ^= 0x5a
			return nil
		}},
		{"encode", func(i int) error {
			if i == failAt {
				return fmt.Errorf("frame %d: %w", i, errCorrupt)
			}
			frames[i] = frames[i]*31 + 7
			return nil
		}},
	}

	var (
		lastArena string
		lastID    arena.TaskID
	)
	for _, st := range stages {
		start := time.Now()
		id, perr := arena.ParallelFor(ctx, reg, st.name, 0, items, st.body)
		if perr != nil {
			err = perr
			if info, ok := arena.TaskOf(err); ok {
				logger.Error("stage failed", "stage", st.name, "index", info.Index, "task", info.TaskID)
			}
			return err
		}
		logger.Info("stage done",
			"stage", st.name,
			"task", id,
			"contexts", len(reg.Contexts(st.name, id)),
			"elapsed", time.Since(start),
		)
		lastArena, lastID = st.name, id
	}

	for _, info := range reg.Arenas() {
		logger.Info("arena",
			"name", info.Name,
			"concurrency", info.Concurrency,
			"jobs", info.Stats.Completed,
		)
	}

	if dump == "" {
		return nil
	}
	f, err := os.Create(dump)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return arena.WriteContexts(f, reg.DrainContexts(lastArena, lastID))
}

var errCorrupt = errors.New("corrupt frame")
