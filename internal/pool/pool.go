// Package pool implements the caller-facing facade: the registry of units
// by id, submission, result retrieval, and drain. It is re-exported at the
// module root as taskpool.Pool.
package pool

import (
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/go-foundations/taskpool/internal/engine"
	"github.com/go-foundations/taskpool/internal/unit"
)

// Option configures ambient (non-scheduling) behavior of a Pool. The only
// scheduling knob the spec allows is the worker count, passed directly to
// Hot/Cold; Option exists solely for observability wiring.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger attaches a structured logger, handed to every engine, used
// only for safety-net logging (the engine's already-ran warning); it is
// never on the hot path of a unit that runs to completion without panic.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func resolveOptions(opts []Option) *options {
	o := &options{logger: zap.NewNop()}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// Pool is the caller-owned facade over the registry and engine pool.
// Submission (Submit/SubmitBatch) is not safe for concurrent use from
// multiple goroutines - the facade has exactly one owning submitter,
// matching the spec's exclusive-ownership model.
type Pool[T any] struct {
	mu       sync.Mutex
	nextID   uint64
	registry map[uint64]*unit.Unit[T]

	numWorkers int
	engines    *engine.Pool[T]

	closed     bool
	closedFlag *atomic.Bool

	logger *zap.Logger
}

// Hot creates the registry and an engine pool of n engines, and starts all
// worker goroutines immediately.
func Hot[T any](n int, opts ...Option) *Pool[T] {
	o := resolveOptions(opts)
	p := newPool[T](n, o.logger)
	p.engines = engine.NewPool[T](n, o.logger)
	p.engines.Start()
	return p
}

// Cold creates the registry and an empty engine pool; worker goroutines are
// not started. Submissions are recorded in the registry but run nowhere
// until Power is called.
func Cold[T any](n int, opts ...Option) *Pool[T] {
	o := resolveOptions(opts)
	p := newPool[T](n, o.logger)
	p.engines = engine.NewPool[T](0, o.logger)
	return p
}

func newPool[T any](n int, logger *zap.Logger) *Pool[T] {
	if n < 1 {
		n = 1
	}
	return &Pool[T]{
		registry:   make(map[uint64]*unit.Unit[T]),
		numWorkers: n,
		closedFlag: atomic.NewBool(false),
		logger:     logger,
	}
}

// Power is permitted only on a pool with zero engines: it creates N
// engines (N fixed at construction), attaches every still-Waiting registry
// entry to engine (id mod N) in id order, starts the goroutines, and
// broadcasts the wake condition once. Returns AlreadyPowered if engines
// already exist.
func (p *Pool[T]) Power() *PoolError {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engines.Len() != 0 {
		return &PoolError{Kind: AlreadyPowered}
	}

	newEngines := engine.NewPool[T](p.numWorkers, p.logger)
	for id := uint64(0); id < p.nextID; id++ {
		u, ok := p.registry[id]
		if !ok {
			continue
		}
		if u.State() != unit.StateWaiting {
			continue
		}
		newEngines.Engine(int(id % uint64(p.numWorkers))).Push(u)
	}
	p.engines = newEngines
	p.engines.Start()
	p.engines.Wake()
	return nil
}

// Submit allocates the next id, records the unit in the registry, and
// (if the pool is powered) pushes it onto engine (id mod N), broadcasting
// the wake condition once.
func (p *Pool[T]) Submit(work func() T) uint64 {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	u := unit.New(id, work, p.closedFlag)
	p.registry[id] = u
	engines := p.engines
	n := p.numWorkers
	p.mu.Unlock()

	if engines.Len() > 0 {
		engines.Engine(int(id % uint64(n))).Push(u)
		engines.Wake()
	}
	return id
}

// SubmitBatch reserves one id per entry (consecutive, starting at the
// returned id), inserts them all into the registry, and pushes the whole
// batch, in order, onto engine (first id mod N) with a single wake
// broadcast. This is the per-unit-id resolution of the spec's batching
// open question, rather than the source's single-shared-id behavior.
func (p *Pool[T]) SubmitBatch(works []func() T) uint64 {
	p.mu.Lock()
	startID := p.nextID
	units := make([]*unit.Unit[T], len(works))
	for i, w := range works {
		id := p.nextID
		p.nextID++
		u := unit.New(id, w, p.closedFlag)
		p.registry[id] = u
		units[i] = u
	}
	engines := p.engines
	n := p.numWorkers
	p.mu.Unlock()

	if len(units) == 0 {
		return startID
	}
	if engines.Len() > 0 {
		engines.Engine(int(startID % uint64(n))).PushBatch(units)
		engines.Wake()
	}
	return startID
}

// TryGet performs a non-blocking, destructive retrieval. Absent ids (never
// submitted, or already retrieved) report NotInserted.
func (p *Pool[T]) TryGet(id uint64) (T, *UnitError) {
	var zero T

	p.mu.Lock()
	u, ok := p.registry[id]
	p.mu.Unlock()
	if !ok {
		return zero, &UnitError{Kind: NotInserted, ID: id}
	}

	v, uerr := u.TakeResult()
	if uerr != nil && uerr.Kind == unit.NotCompleted {
		return zero, &UnitError{Kind: NotCompleted, ID: id}
	}

	p.mu.Lock()
	delete(p.registry, id)
	p.mu.Unlock()

	return v, fromUnitError(id, uerr)
}

// Wait blocks on the unit's private latch until it completes or the pool
// is closed first, in which case it returns PoolClosed instead of
// blocking forever.
func (p *Pool[T]) Wait(id uint64) (T, *UnitError) {
	var zero T

	p.mu.Lock()
	u, ok := p.registry[id]
	p.mu.Unlock()
	if !ok {
		return zero, &UnitError{Kind: NotInserted, ID: id}
	}

	if completed := u.WaitLatch(); !completed {
		return zero, &UnitError{Kind: PoolClosed, ID: id}
	}

	v, uerr := u.TakeResult()

	p.mu.Lock()
	delete(p.registry, id)
	p.mu.Unlock()

	return v, fromUnitError(id, uerr)
}

// Drain blocks until every unit currently in the registry has reached a
// terminal state. Rather than busy-polling (the source's behavior), it
// snapshots the registry and waits on each unit's own completion latch -
// the same mechanism Wait uses, so no separate counter or polling loop is
// needed.
func (p *Pool[T]) Drain() {
	p.mu.Lock()
	units := make([]*unit.Unit[T], 0, len(p.registry))
	for _, u := range p.registry {
		units = append(units, u)
	}
	p.mu.Unlock()

	for _, u := range units {
		u.WaitLatch()
	}
}

// NumWorkers returns the worker count fixed at construction.
func (p *Pool[T]) NumWorkers() int { return p.numWorkers }

// EngineRunCounts returns, for each engine in order, how many units it has
// run to completion so far. Diagnostic only - intended for monitoring the
// steal path under load, not for scheduling decisions.
func (p *Pool[T]) EngineRunCounts() []int64 {
	p.mu.Lock()
	engines := p.engines
	p.mu.Unlock()
	return engines.RunCounts()
}

// Close tears down every engine (synchronous join, in order), wakes any
// goroutine blocked in Wait, and discards any registry entries still
// present. Idempotent; safe to call more than once. Implements io.Closer.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	engines := p.engines
	p.mu.Unlock()

	p.closedFlag.Store(true)
	engines.KillAll()

	p.mu.Lock()
	for _, u := range p.registry {
		u.NotifyClosed()
	}
	p.registry = make(map[uint64]*unit.Unit[T])
	p.mu.Unlock()

	return nil
}
