package arena_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/baxromumarov/arena"
)

// BenchmarkParallelFor measures dispatch and bookkeeping overhead for an
// empty body at several sub-range sizes.
func BenchmarkParallelFor(b *testing.B) {
	for _, grain := range []int64{0, 1, 64, 1024} {
		b.Run(fmt.Sprintf("grain=%d", grain), func(b *testing.B) {
			reg, err := arena.New(arena.WithGrainSize(grain))
			if err != nil {
				b.Fatal(err)
			}
			defer reg.ReleaseAll()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				id, err := arena.ParallelFor(context.Background(), reg, "bench", 0, 10_000, func(int) error {
					return nil
				})
				if err != nil {
					b.Fatal(err)
				}
				reg.DrainContexts("bench", id)
			}
		})
	}
}

// BenchmarkEnsureArena measures the read path for an existing arena.
func BenchmarkEnsureArena(b *testing.B) {
	reg, err := arena.New()
	if err != nil {
		b.Fatal(err)
	}
	defer reg.ReleaseAll()
	reg.EnsureArena("hot")

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			reg.EnsureArena("hot")
		}
	})
}
