package world

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kneutral-org/simsync/internal/coordinator"
)

// newOpenWorld returns a coordinator with the exclusive hold already
// released, so accessor reads can proceed, plus a populated world.
func newOpenWorld(t *testing.T) (*coordinator.Coordinator, *World, *Accessor) {
	t.Helper()

	coord := coordinator.New(zerolog.Nop())
	w := NewWorld()
	w.Spawn(Entity{Name: "alpha", Position: Vec3{X: 5}, Radius: 1})
	w.Spawn(Entity{Name: "beta", Position: Vec3{X: 20}, Radius: 2})

	require.NoError(t, coord.ReleaseMainExclusive())
	return coord, w, NewAccessor(coord, w, zerolog.Nop())
}

func TestAccessor_Entities(t *testing.T) {
	_, _, acc := newOpenWorld(t)

	entities, err := acc.Entities()
	require.NoError(t, err)
	assert.Len(t, entities, 2)
}

func TestAccessor_EntityByID(t *testing.T) {
	coord, w, acc := newOpenWorld(t)

	require.NoError(t, coord.AcquireMainExclusive())
	id := w.Spawn(Entity{Name: "gamma"})
	require.NoError(t, coord.ReleaseMainExclusive())

	e, err := acc.EntityByID(id)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "gamma", e.Name)
}

func TestAccessor_RayCast(t *testing.T) {
	_, _, acc := newOpenWorld(t)

	hit, err := acc.RayCast(Vec3{}, Vec3{X: 1}, 100)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "alpha", hit.Entity.Name)
}

func TestAccessor_TryReadsWhileExclusiveHeld(t *testing.T) {
	coord, _, acc := newOpenWorld(t)

	require.NoError(t, coord.AcquireMainExclusive())

	_, ok := acc.TryEntities()
	assert.False(t, ok, "TryEntities must not perform while exclusive is held")

	_, ok = acc.TryCount()
	assert.False(t, ok, "TryCount must not perform while exclusive is held")

	require.NoError(t, coord.ReleaseMainExclusive())

	entities, ok := acc.TryEntities()
	require.True(t, ok)
	assert.Len(t, entities, 2)

	count, ok := acc.TryCount()
	require.True(t, ok)
	assert.Equal(t, 2, count)
}

func TestAccessor_BlockingReadWaitsForRelease(t *testing.T) {
	coord, _, acc := newOpenWorld(t)

	require.NoError(t, coord.AcquireMainExclusive())

	done := make(chan int, 1)
	go func() {
		entities, err := acc.Entities()
		if err != nil {
			done <- -1
			return
		}
		done <- len(entities)
	}()

	select {
	case <-done:
		t.Fatal("read completed while the main context held the exclusive lock")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, coord.ReleaseMainExclusive())

	select {
	case n := <-done:
		assert.Equal(t, 2, n)
	case <-time.After(time.Second):
		t.Fatal("read did not complete after exclusive release")
	}
}
