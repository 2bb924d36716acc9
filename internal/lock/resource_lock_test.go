package lock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestResourceLock_InitialState(t *testing.T) {
	l := NewResourceLock()

	if l.IsExclusive() {
		t.Error("expected new lock to not be exclusively held")
	}
	if count := l.SharedCount(); count != 0 {
		t.Errorf("expected 0 shared owners, got %d", count)
	}
}

func TestResourceLock_ExclusiveRoundTrip(t *testing.T) {
	l := NewResourceLock()

	l.AcquireExclusive()
	if !l.IsExclusive() {
		t.Error("expected lock to be exclusively held after AcquireExclusive")
	}

	l.ReleaseExclusive()
	if l.IsExclusive() {
		t.Error("expected lock to be released after ReleaseExclusive")
	}
}

func TestResourceLock_ConcurrentSharedOwners(t *testing.T) {
	t.Parallel()
	l := NewResourceLock()
	const numOwners = 5

	var wg sync.WaitGroup
	var active atomic.Int32
	var peak atomic.Int32
	barrier := make(chan struct{})

	for i := 0; i < numOwners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-barrier
			l.AcquireShared()
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			active.Add(-1)
			l.ReleaseShared()
		}()
	}

	close(barrier)
	wg.Wait()

	if p := peak.Load(); p < 2 {
		t.Errorf("expected shared owners to overlap, peak was %d", p)
	}
	if count := l.SharedCount(); count != 0 {
		t.Errorf("expected 0 shared owners after release, got %d", count)
	}
}

func TestResourceLock_ExclusiveBlocksShared(t *testing.T) {
	t.Parallel()
	l := NewResourceLock()
	l.AcquireExclusive()

	acquired := make(chan struct{})
	go func() {
		l.AcquireShared()
		close(acquired)
		l.ReleaseShared()
	}()

	select {
	case <-acquired:
		t.Fatal("shared acquire succeeded while exclusive was held")
	case <-time.After(50 * time.Millisecond):
	}

	l.ReleaseExclusive()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("shared acquire did not proceed after exclusive release")
	}
}

func TestResourceLock_SharedBlocksExclusive(t *testing.T) {
	t.Parallel()
	l := NewResourceLock()
	l.AcquireShared()
	l.AcquireShared()

	acquired := make(chan struct{})
	go func() {
		l.AcquireExclusive()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("exclusive acquire succeeded while shared owners were active")
	case <-time.After(50 * time.Millisecond):
	}

	l.ReleaseShared()

	select {
	case <-acquired:
		t.Fatal("exclusive acquire succeeded with one shared owner remaining")
	case <-time.After(50 * time.Millisecond):
	}

	l.ReleaseShared()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("exclusive acquire did not proceed after last shared release")
	}

	if !l.IsExclusive() {
		t.Error("expected lock to be exclusively held")
	}
	l.ReleaseExclusive()
}

func TestResourceLock_TryAcquireShared(t *testing.T) {
	l := NewResourceLock()

	if !l.TryAcquireShared() {
		t.Fatal("expected TryAcquireShared to succeed on an unheld lock")
	}
	// Shared never blocks shared.
	if !l.TryAcquireShared() {
		t.Fatal("expected TryAcquireShared to succeed alongside a shared owner")
	}
	l.ReleaseShared()
	l.ReleaseShared()

	l.AcquireExclusive()
	if l.TryAcquireShared() {
		t.Error("expected TryAcquireShared to fail while exclusive is held")
	}
	if count := l.SharedCount(); count != 0 {
		t.Errorf("failed try must not change the count, got %d", count)
	}
	l.ReleaseExclusive()
}

func TestResourceLock_NeverExclusiveAndShared(t *testing.T) {
	t.Parallel()
	l := NewResourceLock()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if l.TryAcquireShared() {
					l.ReleaseShared()
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		l.AcquireExclusive()
		if count := l.SharedCount(); count != 0 {
			t.Errorf("exclusive held with %d shared owners", count)
		}
		l.ReleaseExclusive()
	}

	close(stop)
	wg.Wait()
}

func TestResourceLock_ReleaseExclusivePanicsWhenNotHeld(t *testing.T) {
	l := NewResourceLock()

	defer func() {
		if recover() == nil {
			t.Error("expected ReleaseExclusive of an unheld lock to panic")
		}
	}()
	l.ReleaseExclusive()
}

func TestResourceLock_ReleaseSharedPanicsAtZero(t *testing.T) {
	l := NewResourceLock()

	defer func() {
		if recover() == nil {
			t.Error("expected ReleaseShared with no shared owners to panic")
		}
	}()
	l.ReleaseShared()
}

func TestResourceLock_WithSharedReleasesOnPanic(t *testing.T) {
	l := NewResourceLock()

	func() {
		defer func() { _ = recover() }()
		_ = l.WithShared(func() error {
			panic("action failed")
		})
	}()

	if count := l.SharedCount(); count != 0 {
		t.Errorf("expected shared lock released after panic, got %d owners", count)
	}

	// The lock must still be acquirable exclusively.
	done := make(chan struct{})
	go func() {
		l.AcquireExclusive()
		l.ReleaseExclusive()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("exclusive acquire blocked after a panicked shared section")
	}
}

func TestResourceLock_WithExclusive(t *testing.T) {
	l := NewResourceLock()

	ran := false
	l.WithExclusive(func() {
		ran = true
		if !l.IsExclusive() {
			t.Error("expected exclusive ownership inside WithExclusive")
		}
	})

	if !ran {
		t.Error("expected WithExclusive to run the function")
	}
	if l.IsExclusive() {
		t.Error("expected exclusive ownership released after WithExclusive")
	}
}
