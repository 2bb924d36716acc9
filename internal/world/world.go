// Package world holds the shared simulation state owned by the main
// context, and the safe accessor workers use to read it.
package world

import (
	"math"

	"github.com/google/uuid"
)

// Vec3 is a position or direction in simulation space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalized returns v scaled to unit length. The zero vector is
// returned unchanged.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

// Entity is a simulated object with a bounding sphere.
type Entity struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Position Vec3      `json:"position"`
	Radius   float64   `json:"radius"`
}

// Hit describes a ray-cast intersection.
type Hit struct {
	Entity   Entity  `json:"entity"`
	Distance float64 `json:"distance"`
}

// World is the mutable entity set owned by the main context.
//
// World carries no synchronization of its own: the main context mutates
// it only while holding the exclusive lock, and every other context
// reads it only through an Accessor, which brackets each read with the
// coordinator's shared lock. Touching a World directly from a worker is
// a data race.
type World struct {
	entities map[uuid.UUID]*Entity
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		entities: make(map[uuid.UUID]*Entity),
	}
}

// Spawn adds an entity and returns its assigned ID.
// Main-context-only; requires the exclusive lock.
func (w *World) Spawn(e Entity) uuid.UUID {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	stored := e
	w.entities[e.ID] = &stored
	return e.ID
}

// Remove deletes an entity by ID, reporting whether it existed.
// Main-context-only; requires the exclusive lock.
func (w *World) Remove(id uuid.UUID) bool {
	if _, ok := w.entities[id]; !ok {
		return false
	}
	delete(w.entities, id)
	return true
}

// Entities returns a copy of all entities.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, *e)
	}
	return out
}

// EntityByID returns a copy of the entity with the given ID, or nil.
func (w *World) EntityByID(id uuid.UUID) *Entity {
	e, ok := w.entities[id]
	if !ok {
		return nil
	}
	copied := *e
	return &copied
}

// Count returns the number of entities.
func (w *World) Count() int {
	return len(w.entities)
}

// RayCast returns the nearest entity whose bounding sphere the ray from
// origin along dir intersects within maxDist, or nil if nothing is hit.
func (w *World) RayCast(origin, dir Vec3, maxDist float64) *Hit {
	d := dir.Normalized()
	if d.Length() == 0 {
		return nil
	}

	var nearest *Hit
	for _, e := range w.entities {
		oc := e.Position.Sub(origin)
		proj := oc.Dot(d)
		if proj < 0 {
			continue
		}
		perp2 := oc.Dot(oc) - proj*proj
		r2 := e.Radius * e.Radius
		if perp2 > r2 {
			continue
		}
		dist := proj - math.Sqrt(r2-perp2)
		if dist < 0 {
			dist = 0
		}
		if dist > maxDist {
			continue
		}
		if nearest == nil || dist < nearest.Distance {
			nearest = &Hit{Entity: *e, Distance: dist}
		}
	}
	return nearest
}
