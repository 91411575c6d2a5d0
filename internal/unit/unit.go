// Package unit holds the single piece-of-work type shared by the engine and
// pool facade: its lifecycle state and its private completion latch.
package unit

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// State is the lifecycle of a Unit. Transitions are strictly
// Waiting -> Running -> (Done | Panicked); Removed is reached only from
// Done or Panicked, driven by the owning pool on successful retrieval.
type State int

const (
	StateWaiting State = iota
	StateRunning
	StateDone
	StatePanicked
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StatePanicked:
		return "panicked"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// ErrorKind enumerates the ways a Unit retrieval can fail.
type ErrorKind int

const (
	// NotCompleted means the unit is still Waiting or Running.
	NotCompleted ErrorKind = iota
	// Panicked means the unit's callable panicked.
	Panicked
	// Removed means the unit was already retrieved once.
	Removed
	// Closed means the owning pool was closed before the unit completed.
	Closed
	// AlreadyRan is a safety-net kind: Run was called on a non-Waiting
	// unit. Should be unreachable by construction.
	AlreadyRan
)

// Error is returned by Unit operations. It never crosses the pool facade
// without an ID attached (the facade wraps it).
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string {
	switch e.Kind {
	case NotCompleted:
		return "unit not completed"
	case Panicked:
		return "unit panicked"
	case Removed:
		return "unit removed"
	case Closed:
		return "pool closed before unit completed"
	case AlreadyRan:
		return "unit already ran"
	default:
		return fmt.Sprintf("unit error (kind %d)", e.Kind)
	}
}

// Unit holds one piece of work, its state, and a one-shot completion latch.
// The callable is consumed (set to nil) on the Waiting->Running transition
// so it is never invoked twice, even under a concurrent double-Run attempt.
type Unit[T any] struct {
	id uint64

	mu    sync.Mutex
	state State
	work  func() T
	value T

	latchMu   sync.Mutex
	latchCond *sync.Cond
	latchSet  bool

	closed *atomic.Bool
}

// New returns a Unit in Waiting with the callable captured. closed is a
// flag shared with the owning pool: when the pool is closed before this
// unit completes, WaitLatch wakes without the latch being set.
func New[T any](id uint64, work func() T, closed *atomic.Bool) *Unit[T] {
	u := &Unit[T]{
		id:     id,
		state:  StateWaiting,
		work:   work,
		closed: closed,
	}
	u.latchCond = sync.NewCond(&u.latchMu)
	return u
}

// ID returns the unit's identifier.
func (u *Unit[T]) ID() uint64 { return u.id }

// State returns the unit's current lifecycle state. Intended for
// diagnostics; callers retrieving a result should use TakeResult instead.
func (u *Unit[T]) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Run invokes the callable under a panic barrier, permitted only from
// Waiting. It sets the latch exactly once regardless of outcome. The
// returned ranErr is AlreadyRan if Run was called on a non-Waiting unit
// (should never happen - the engine never redispatches a unit); callers
// should log and otherwise ignore it, per the state/latch being the
// authoritative record.
func (u *Unit[T]) Run() (ranErr *Error) {
	u.mu.Lock()
	if u.state != StateWaiting {
		u.mu.Unlock()
		return &Error{Kind: AlreadyRan}
	}
	u.state = StateRunning
	work := u.work
	u.work = nil
	u.mu.Unlock()

	var (
		result   T
		panicked bool
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
			}
		}()
		result = work()
	}()

	u.mu.Lock()
	if panicked {
		u.state = StatePanicked
	} else {
		u.value = result
		u.state = StateDone
	}
	u.mu.Unlock()

	u.latchMu.Lock()
	u.latchSet = true
	u.latchCond.Broadcast()
	u.latchMu.Unlock()

	return nil
}

// TakeResult destructively inspects the unit's state. Done moves the value
// out and transitions to Removed; Panicked transitions to Removed and
// reports a Panicked error; Waiting/Running report NotCompleted without
// mutating state; Removed reports a Removed error.
func (u *Unit[T]) TakeResult() (T, *Error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	var zero T
	switch u.state {
	case StateDone:
		v := u.value
		u.value = zero
		u.state = StateRemoved
		return v, nil
	case StatePanicked:
		u.state = StateRemoved
		return zero, &Error{Kind: Panicked}
	case StateRemoved:
		return zero, &Error{Kind: Removed}
	default: // Waiting, Running
		return zero, &Error{Kind: NotCompleted}
	}
}

// WaitLatch blocks until either the latch is set (the unit reached Done or
// Panicked) or the shared closed flag becomes true. It reports which woke
// it.
func (u *Unit[T]) WaitLatch() (completed bool) {
	u.latchMu.Lock()
	for !u.latchSet && !u.closed.Load() {
		u.latchCond.Wait()
	}
	completed = u.latchSet
	u.latchMu.Unlock()
	return completed
}

// NotifyClosed wakes any goroutine parked in WaitLatch so it can observe
// the shared closed flag. Called by the owning pool on Close.
func (u *Unit[T]) NotifyClosed() {
	u.latchMu.Lock()
	u.latchCond.Broadcast()
	u.latchMu.Unlock()
}
