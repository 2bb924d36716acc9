package world

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kneutral-org/simsync/internal/coordinator"
	"github.com/kneutral-org/simsync/internal/metrics"
)

// Accessor is the single chokepoint through which worker contexts read
// world state. Every read runs under the coordinator's shared lock; no
// caller of an Accessor ever touches the underlying locks directly.
type Accessor struct {
	coord  *coordinator.Coordinator
	world  *World
	logger zerolog.Logger
}

// NewAccessor creates an accessor for the given world, guarded by coord.
func NewAccessor(coord *coordinator.Coordinator, w *World, logger zerolog.Logger) *Accessor {
	return &Accessor{
		coord:  coord,
		world:  w,
		logger: logger.With().Str("component", "world-accessor").Logger(),
	}
}

// Entities returns a snapshot of all entities, blocking while the main
// context holds the exclusive lock.
func (a *Accessor) Entities() ([]Entity, error) {
	var out []Entity
	err := a.coord.RunShared(func() error {
		out = a.world.Entities()
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordWorkerRead("entities", "ok")
	return out, nil
}

// EntityByID returns the entity with the given ID, or nil if absent.
func (a *Accessor) EntityByID(id uuid.UUID) (*Entity, error) {
	var out *Entity
	err := a.coord.RunShared(func() error {
		out = a.world.EntityByID(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordWorkerRead("entity", "ok")
	return out, nil
}

// RayCast casts a ray through the world, blocking while the main
// context holds the exclusive lock. Returns nil if nothing is hit.
func (a *Accessor) RayCast(origin, dir Vec3, maxDist float64) (*Hit, error) {
	var out *Hit
	err := a.coord.RunShared(func() error {
		out = a.world.RayCast(origin, dir, maxDist)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordWorkerRead("raycast", "ok")
	return out, nil
}

// TryEntities is the non-blocking variant of Entities: the second
// return is false when the main context holds the exclusive lock and
// the read was not performed.
func (a *Accessor) TryEntities() ([]Entity, bool) {
	var out []Entity
	performed, err := a.coord.TryRunShared(func() error {
		out = a.world.Entities()
		return nil
	})
	if err != nil {
		// Reads of the in-memory world cannot fail; an error here means
		// the action contract was violated.
		a.logger.Error().Err(err).Msg("entity snapshot failed")
		return nil, false
	}
	if !performed {
		metrics.RecordWorkerRead("entities", "busy")
		return nil, false
	}
	metrics.RecordWorkerRead("entities", "ok")
	return out, true
}

// TryEntityByID is the non-blocking variant of EntityByID; the second
// return is false when the read was not performed.
func (a *Accessor) TryEntityByID(id uuid.UUID) (*Entity, bool) {
	var out *Entity
	performed, err := a.coord.TryRunShared(func() error {
		out = a.world.EntityByID(id)
		return nil
	})
	if err != nil || !performed {
		if !performed {
			metrics.RecordWorkerRead("entity", "busy")
		}
		return nil, false
	}
	metrics.RecordWorkerRead("entity", "ok")
	return out, true
}

// TryRayCast is the non-blocking variant of RayCast; the second return
// is false when the read was not performed.
func (a *Accessor) TryRayCast(origin, dir Vec3, maxDist float64) (*Hit, bool) {
	var out *Hit
	performed, err := a.coord.TryRunShared(func() error {
		out = a.world.RayCast(origin, dir, maxDist)
		return nil
	})
	if err != nil || !performed {
		if !performed {
			metrics.RecordWorkerRead("raycast", "busy")
		}
		return nil, false
	}
	metrics.RecordWorkerRead("raycast", "ok")
	return out, true
}

// TryCount reports the entity count without blocking; false when the
// main context holds the exclusive lock.
func (a *Accessor) TryCount() (int, bool) {
	var count int
	performed, err := a.coord.TryRunShared(func() error {
		count = a.world.Count()
		return nil
	})
	if err != nil || !performed {
		if !performed {
			metrics.RecordWorkerRead("count", "busy")
		}
		return 0, false
	}
	metrics.RecordWorkerRead("count", "ok")
	return count, true
}
