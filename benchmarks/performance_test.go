package benchmarks

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-foundations/taskpool"
)

// BenchmarkWorkerCounts measures submit+wait throughput across worker
// counts, mirroring the source's insert/retrieve benches at varying
// engine counts.
func BenchmarkWorkerCounts(b *testing.B) {
	workerCounts := []int{1, 2, 4, 8, 16}

	for _, numWorkers := range workerCounts {
		b.Run(fmt.Sprintf("Workers_%d", numWorkers), func(b *testing.B) {
			pool := taskpool.Hot[string](numWorkers)
			defer pool.Close()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				id := pool.Submit(func() string { return strings.ToUpper("payload") })
				if _, err := pool.Wait(id); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSubmitBatch measures SubmitBatch throughput at varying batch
// sizes, mirroring the source's insert_1k_as_batch bench.
func BenchmarkSubmitBatch(b *testing.B) {
	batchSizes := []int{10, 100, 1000, 10000}

	for _, size := range batchSizes {
		b.Run(fmt.Sprintf("Batch_%d", size), func(b *testing.B) {
			pool := taskpool.Hot[int](4)
			defer pool.Close()

			works := make([]func() int, size)
			for i := range works {
				i := i
				works[i] = func() int { return i }
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				firstID := pool.SubmitBatch(works)
				for id := firstID; id < firstID+uint64(size); id++ {
					if _, err := pool.Wait(id); err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}

// BenchmarkDrain measures the cost of submitting N units and draining the
// pool, mirroring the source's engage benches.
func BenchmarkDrain(b *testing.B) {
	sizes := []int{1_000, 10_000, 100_000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Units_%d", size), func(b *testing.B) {
			pool := taskpool.Hot[int](8)
			defer pool.Close()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for j := 0; j < size; j++ {
					pool.Submit(func() int { return j })
				}
				pool.Drain()
			}
		})
	}
}

// BenchmarkColdInsert measures submission cost on an unpowered pool, where
// units accumulate in the registry without running, mirroring the
// source's cold insert benches.
func BenchmarkColdInsert(b *testing.B) {
	for i := 0; i < b.N; i++ {
		pool := taskpool.Cold[int](1)
		for j := 0; j < 1000; j++ {
			pool.Submit(func() int { return j })
		}
		_ = pool.Close()
	}
}
