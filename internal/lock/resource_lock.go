// Package lock provides the reader/writer primitive used to coordinate
// access to state owned by the main simulation context.
package lock

import (
	"sync"
)

// ResourceLock is a reentrancy-free reader/writer lock with explicit
// exclusive and shared modes. Any number of shared owners may coexist,
// but never alongside an exclusive owner.
//
// ResourceLock is a bare primitive: it does not validate that acquires
// and releases are paired correctly. Releasing a mode that is not held
// panics. Usage-correctness invariants (no double exclusive acquire,
// release only what you hold) are enforced by the coordinator layer.
type ResourceLock struct {
	mu        sync.Mutex
	released  *sync.Cond
	exclusive bool
	shared    int
}

// NewResourceLock creates an unheld ResourceLock.
func NewResourceLock() *ResourceLock {
	l := &ResourceLock{}
	l.released = sync.NewCond(&l.mu)
	return l
}

// AcquireExclusive blocks until no exclusive and no shared owners remain,
// then takes exclusive ownership. There is no timeout; callers needing
// bounded behavior must use the try variants.
func (l *ResourceLock) AcquireExclusive() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.exclusive || l.shared > 0 {
		l.released.Wait()
	}
	l.exclusive = true
}

// ReleaseExclusive releases exclusive ownership and wakes all waiters.
// Panics if the lock is not exclusively held.
func (l *ResourceLock) ReleaseExclusive() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.exclusive {
		panic("lock: ReleaseExclusive of a lock that is not exclusively held")
	}
	l.exclusive = false
	l.released.Broadcast()
}

// AcquireShared blocks while an exclusive owner holds the lock, then
// registers a shared owner. Shared acquisition never blocks other
// shared acquisitions.
func (l *ResourceLock) AcquireShared() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.exclusive {
		l.released.Wait()
	}
	l.shared++
}

// TryAcquireShared registers a shared owner if no exclusive owner holds
// the lock. Returns false immediately otherwise; never blocks.
func (l *ResourceLock) TryAcquireShared() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.exclusive {
		return false
	}
	l.shared++
	return true
}

// ReleaseShared drops one shared owner and, if it was the last, wakes
// any waiting exclusive acquirer. Panics if no shared owner exists.
func (l *ResourceLock) ReleaseShared() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.shared == 0 {
		panic("lock: ReleaseShared of a lock with no shared owners")
	}
	l.shared--
	if l.shared == 0 {
		l.released.Broadcast()
	}
}

// IsExclusive reports whether the lock is currently exclusively held.
func (l *ResourceLock) IsExclusive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exclusive
}

// SharedCount returns the current number of shared owners.
func (l *ResourceLock) SharedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shared
}

// WithExclusive runs fn while holding the lock exclusively, releasing on
// every exit path including panics.
func (l *ResourceLock) WithExclusive(fn func()) {
	l.AcquireExclusive()
	defer l.ReleaseExclusive()
	fn()
}

// WithShared runs fn while holding a shared lock, releasing on every
// exit path including panics.
func (l *ResourceLock) WithShared(fn func() error) error {
	l.AcquireShared()
	defer l.ReleaseShared()
	return fn()
}
