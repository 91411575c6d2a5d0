// Package runtimetune applies container-aware runtime tuning for programs
// built on taskpool. It is deliberately not imported by the library
// itself: a worker-pool library should not reach out and mutate the Go
// runtime's soft memory limit out from under an embedding application,
// but a program built on top of one may tune it before sizing a Hot pool.
package runtimetune

import (
	"sync"

	"github.com/KimMachineGun/automemlimit/memlimit"
)

var once sync.Once

// Apply sets the Go soft memory limit to 90% of the cgroup memory limit.
// It does not change GOMAXPROCS. Safe to call more than once; only the
// first call has an effect.
func Apply() {
	once.Do(func() {
		_, _ = memlimit.SetGoMemLimitWithOpts(
			memlimit.WithRatio(0.9),
			memlimit.WithProvider(memlimit.FromCgroup),
		)
	})
}
