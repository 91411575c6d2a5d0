// Package engine implements the worker side of the scheduler: one goroutine
// per Engine, a mutex-guarded local queue, peer stealing, and the shared
// wake-up condition that lets idle engines park without busy-polling.
package engine

import (
	"math/rand"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/go-foundations/taskpool/internal/unit"
)

// Engine owns one worker goroutine, a local FIFO queue, and a back-pointer
// to its peers for stealing. It never outlives its goroutine: kill() joins
// synchronously.
type Engine[T any] struct {
	id    int
	queue queue[T]

	peers *Pool[T]

	terminate atomic.Bool
	done      chan struct{}

	ranCount atomic.Int64

	logger *zap.Logger
}

func newEngine[T any](id int, peers *Pool[T], logger *zap.Logger) *Engine[T] {
	return &Engine[T]{
		id:     id,
		peers:  peers,
		done:   make(chan struct{}),
		logger: logger,
	}
}

// ID returns the engine's index within its pool.
func (e *Engine[T]) ID() int { return e.id }

// QueueLen reports the current length of this engine's local queue.
// Diagnostic only - the length can change the instant it's read.
func (e *Engine[T]) QueueLen() int { return e.queue.len() }

// RanCount reports how many units this engine has run to completion
// (panicked or not). Diagnostic only - exposed for the stealing-fairness
// scenario in the test suite.
func (e *Engine[T]) RanCount() int64 { return e.ranCount.Load() }

// Push enqueues one unit at the tail of this engine's local queue.
func (e *Engine[T]) Push(u *unit.Unit[T]) { e.queue.pushBack(u) }

// PushBatch enqueues a batch of units, in order, at the tail of this
// engine's local queue.
func (e *Engine[T]) PushBatch(us []*unit.Unit[T]) { e.queue.pushBackBatch(us) }

func (e *Engine[T]) start() {
	go e.loop()
}

// loop is the engine's worker goroutine body: steps 1-4 of the scheduler.
func (e *Engine[T]) loop() {
	defer close(e.done)
	for {
		if e.terminate.Load() {
			return
		}

		if u, ok := e.queue.popFront(); ok {
			if ranErr := u.Run(); ranErr != nil {
				e.logger.Warn("unit reported already-ran",
					zap.Uint64("unit_id", u.ID()),
					zap.Int("engine_id", e.id),
				)
			}
			e.ranCount.Inc()
			continue
		}

		if stolen := e.steal(); len(stolen) > 0 {
			e.queue.pushBackBatch(stolen)
			continue
		}

		e.peers.parkUntilWork(&e.terminate)
	}
}

// steal iterates peer engines starting from a randomized offset (spreads
// steal contention away from engine zero, per the spec's fairness note),
// skipping self, and drains a 1/P-ish prefix from the first non-empty
// peer's head.
func (e *Engine[T]) steal() []*unit.Unit[T] {
	peers := e.peers.snapshot()
	p := len(peers)
	if p <= 1 {
		return nil
	}

	start := rand.Intn(p)
	for i := 0; i < p; i++ {
		idx := (start + i) % p
		if idx == e.id {
			continue
		}
		peer := peers[idx]
		n := peer.queue.len()
		if n == 0 {
			continue
		}
		k := n / p
		if k < 1 {
			k = 1
		}
		if stolen := peer.queue.stealFront(k); len(stolen) > 0 {
			return stolen
		}
	}
	return nil
}

// kill sets the termination flag, wakes a parked engine, and blocks until
// its goroutine has returned. Synchronous, as the spec requires.
func (e *Engine[T]) kill() {
	e.terminate.Store(true)
	e.peers.Wake()
	<-e.done
}

// Pool is the engine pool: an ordered set of engines plus the single
// shared wake-up condition they all park on. Built once per Hot/Cold/Power
// call and never resized outside that path.
type Pool[T any] struct {
	mu      sync.RWMutex
	engines []*Engine[T]

	wakeMu   sync.Mutex
	wakeCond *sync.Cond
	wakeFlag bool

	logger *zap.Logger
}

// NewPool constructs n engines (n may be zero, for a cold pool) sharing one
// wake-up condition. Engines are not started - call Start.
func NewPool[T any](n int, logger *zap.Logger) *Pool[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool[T]{
		engines: make([]*Engine[T], 0, n),
		logger:  logger,
	}
	p.wakeCond = sync.NewCond(&p.wakeMu)
	for i := 0; i < n; i++ {
		p.engines = append(p.engines, newEngine[T](i, p, logger))
	}
	return p
}

// Start launches every engine's worker goroutine.
func (p *Pool[T]) Start() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, e := range p.engines {
		e.start()
	}
}

// Len returns the number of engines in the pool.
func (p *Pool[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.engines)
}

// Engine returns the engine at idx. idx must be < Len().
func (p *Pool[T]) Engine(idx int) *Engine[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.engines[idx]
}

// snapshot returns a stable copy of the engine slice for lock-free (after
// the copy) iteration during a steal pass.
func (p *Pool[T]) snapshot() []*Engine[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Engine[T], len(p.engines))
	copy(out, p.engines)
	return out
}

// Wake sets the shared wake flag and broadcasts it, dislodging any parked
// engine. Called by the facade on every submission (and by kill, to
// dislodge a parked engine before joining it).
func (p *Pool[T]) Wake() {
	p.wakeMu.Lock()
	p.wakeFlag = true
	p.wakeCond.Broadcast()
	p.wakeMu.Unlock()
}

// parkUntilWork blocks until the shared wake flag is set or terminate
// becomes true, then clears the flag before returning so the next park
// waits for a fresh signal.
func (p *Pool[T]) parkUntilWork(terminate *atomic.Bool) {
	p.wakeMu.Lock()
	for !p.wakeFlag && !terminate.Load() {
		p.wakeCond.Wait()
	}
	p.wakeFlag = false
	p.wakeMu.Unlock()
}

// RunCounts returns, for each engine in order, how many units it has run
// to completion. Diagnostic only.
func (p *Pool[T]) RunCounts() []int64 {
	engines := p.snapshot()
	counts := make([]int64, len(engines))
	for i, e := range engines {
		counts[i] = e.RanCount()
	}
	return counts
}

// KillAll tears down every engine in order, joining each synchronously
// before moving to the next, per the spec's teardown ordering requirement.
func (p *Pool[T]) KillAll() {
	p.mu.RLock()
	engines := make([]*Engine[T], len(p.engines))
	copy(engines, p.engines)
	p.mu.RUnlock()

	for _, e := range engines {
		e.kill()
	}
}
