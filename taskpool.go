// Package taskpool is a generic in-process task pool: submit short,
// self-contained callables from a single owning goroutine, run them across
// a fixed set of worker goroutines with per-worker queues and work
// stealing, and retrieve each callable's typed result once it completes.
//
// The package itself is a thin re-export over internal/pool, which holds
// the actual registry/submission/retrieval logic; internal/engine and
// internal/unit hold the scheduler and the per-unit state machine,
// respectively.
//
//	p := taskpool.Hot[int](4)
//	defer p.Close()
//	id := p.Submit(func() int { return 42 })
//	v, err := p.Wait(id)
package taskpool

import (
	"go.uber.org/zap"

	"github.com/go-foundations/taskpool/internal/pool"
)

// Pool is a task pool producing results of type T.
type Pool[T any] = pool.Pool[T]

// Option configures ambient (non-scheduling) pool behavior, e.g. WithLogger.
type Option = pool.Option

// WithLogger attaches a structured logger used only for the pool's
// safety-net logging - never on the hot path of a unit that runs to
// completion without panicking.
func WithLogger(l *zap.Logger) Option { return pool.WithLogger(l) }

// UnitError is returned by TryGet and Wait.
type UnitError = pool.UnitError

// UnitErrorKind enumerates the ways TryGet/Wait can fail for a given id.
type UnitErrorKind = pool.UnitErrorKind

const (
	NotInserted  = pool.NotInserted
	NotCompleted = pool.NotCompleted
	Panicked     = pool.Panicked
	Removed      = pool.Removed
	PoolClosed   = pool.PoolClosed
)

// PoolError is returned by Power.
type PoolError = pool.PoolError

// PoolErrorKind enumerates pool-level (not per-unit) errors.
type PoolErrorKind = pool.PoolErrorKind

const (
	AlreadyPowered = pool.AlreadyPowered
)

// Hot creates a pool of n worker goroutines and starts them immediately.
func Hot[T any](n int, opts ...Option) *Pool[T] { return pool.Hot[T](n, opts...) }

// Cold creates a pool of n configured workers without starting any
// goroutines; call Power to start them.
func Cold[T any](n int, opts ...Option) *Pool[T] { return pool.Cold[T](n, opts...) }
