package engine

import (
	"sync"

	"github.com/go-foundations/taskpool/internal/unit"
)

// queue is a mutex-guarded FIFO of units awaiting execution on one engine.
// Both the owning engine (popFront) and a thief (stealFront) take from the
// head; the facade appends at the tail. This is adapted from the teacher's
// Chase-Lev-flavored work-stealing deque, but deliberately simplified: the
// teacher has the owner pop from the bottom (LIFO) and a thief steal from
// the top (FIFO); here owner and thief both drain from the head, which is
// what the spec this pool implements actually calls for.
type queue[T any] struct {
	mu    sync.Mutex
	items []*unit.Unit[T]
}

func (q *queue[T]) pushBack(u *unit.Unit[T]) {
	q.mu.Lock()
	q.items = append(q.items, u)
	q.mu.Unlock()
}

func (q *queue[T]) pushBackBatch(us []*unit.Unit[T]) {
	if len(us) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, us...)
	q.mu.Unlock()
}

func (q *queue[T]) popFront() (*unit.Unit[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	u := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return u, true
}

// stealFront drains up to n units from the head. Returns nil if the queue
// is empty.
func (q *queue[T]) stealFront(n int) []*unit.Unit[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	if n > len(q.items) {
		n = len(q.items)
	}
	stolen := make([]*unit.Unit[T], n)
	copy(stolen, q.items[:n])
	for i := 0; i < n; i++ {
		q.items[i] = nil
	}
	q.items = q.items[n:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return stolen
}

func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
