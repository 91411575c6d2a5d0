package pool

import (
	"fmt"

	"github.com/go-foundations/taskpool/internal/unit"
)

// UnitErrorKind enumerates the ways try_get/wait can fail for a given id.
type UnitErrorKind int

const (
	// NotInserted covers both a never-existed id and an already-retrieved one.
	NotInserted UnitErrorKind = iota
	// NotCompleted means the unit is still Waiting or Running.
	NotCompleted
	// Panicked means the unit's callable panicked.
	Panicked
	// Removed is an internal safety-net kind; should not be observable
	// through the facade since retrieval deletes the registry entry on
	// the same call that reaches it.
	Removed
	// PoolClosed means the pool was closed before this unit completed;
	// resolves the spec's third open question.
	PoolClosed
)

// UnitError is returned by TryGet and Wait.
type UnitError struct {
	Kind UnitErrorKind
	ID   uint64
}

func (e *UnitError) Error() string {
	switch e.Kind {
	case NotInserted:
		return fmt.Sprintf("unit %d not inserted", e.ID)
	case NotCompleted:
		return fmt.Sprintf("unit %d not completed", e.ID)
	case Panicked:
		return fmt.Sprintf("unit %d panicked", e.ID)
	case Removed:
		return fmt.Sprintf("unit %d already removed", e.ID)
	case PoolClosed:
		return fmt.Sprintf("pool closed before unit %d completed", e.ID)
	default:
		return fmt.Sprintf("unit %d error (kind %d)", e.ID, e.Kind)
	}
}

func fromUnitError(id uint64, err *unit.Error) *UnitError {
	if err == nil {
		return nil
	}
	switch err.Kind {
	case unit.NotCompleted:
		return &UnitError{Kind: NotCompleted, ID: id}
	case unit.Panicked:
		return &UnitError{Kind: Panicked, ID: id}
	case unit.Removed:
		return &UnitError{Kind: Removed, ID: id}
	default:
		return &UnitError{Kind: NotInserted, ID: id}
	}
}

// PoolErrorKind enumerates pool-level (not per-unit) errors.
type PoolErrorKind int

const (
	// AlreadyPowered means Power was called on a pool that already has
	// engines.
	AlreadyPowered PoolErrorKind = iota
)

// PoolError is returned by Power.
type PoolError struct {
	Kind PoolErrorKind
}

func (e *PoolError) Error() string {
	switch e.Kind {
	case AlreadyPowered:
		return "pool already powered"
	default:
		return fmt.Sprintf("pool error (kind %d)", e.Kind)
	}
}
