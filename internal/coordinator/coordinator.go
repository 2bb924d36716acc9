// Package coordinator implements single-writer/multiple-reader coordination
// between the main simulation context and worker contexts.
//
// The main context owns shared state by default: constructing a Coordinator
// immediately acquires the main lock exclusively, before anything else can
// observe it. The main context voluntarily releases and reacquires that
// exclusive hold through the toggle operations; workers access shared state
// only through the scoped shared-lock helpers.
package coordinator

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kneutral-org/simsync/internal/lock"
	"github.com/kneutral-org/simsync/internal/metrics"
)

// Common errors for invalid lock state transitions. Both indicate a
// caller-logic defect (toggles called out of order), not a transient
// condition; there is no retry policy.
var (
	// ErrExclusiveNotHeld is returned when releasing the main exclusive
	// lock while it is not held.
	ErrExclusiveNotHeld = errors.New("exclusive lock is not held")

	// ErrExclusiveAlreadyHeld is returned when acquiring the main
	// exclusive lock while it is already held.
	ErrExclusiveAlreadyHeld = errors.New("exclusive lock is already held")
)

// Action is a caller-supplied unit of work executed under a shared lock.
// The coordinator only brackets its execution; it never stores actions.
type Action func() error

// State is a best-effort snapshot of the main lock's observable state.
// It is read without serializing against in-flight transitions, so the
// two fields may be captured at slightly different instants.
type State struct {
	ExclusiveHeld bool `json:"exclusiveHeld"`
	SharedHolders int  `json:"sharedHolders"`
}

// Coordinator owns the main lock representing main-context ownership of
// shared state, and a meta lock that totally orders all transition
// attempts on the main lock's exclusive state.
type Coordinator struct {
	logger zerolog.Logger

	main *lock.ResourceLock
	meta *lock.ResourceLock

	slowDrainWarn time.Duration
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSlowDrainWarning sets the drain-wait duration above which an
// exclusive reacquisition is logged at warn level. Zero disables the
// warning.
func WithSlowDrainWarning(d time.Duration) Option {
	return func(c *Coordinator) {
		c.slowDrainWarn = d
	}
}

// New creates a Coordinator and immediately acquires the main lock
// exclusively. The returned coordinator is in the ExclusiveHeld state:
// no shared access can proceed until the main context calls
// ReleaseMainExclusive.
func New(logger zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		logger: logger.With().Str("component", "coordinator").Logger(),
		main:   lock.NewResourceLock(),
		meta:   lock.NewResourceLock(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// The main context owns everything by default.
	c.main.AcquireExclusive()
	metrics.SetMainExclusiveHeld(true)
	metrics.RecordExclusiveAcquired()
	c.logger.Debug().Msg("main lock exclusively acquired at construction")

	return c
}

// ReleaseMainExclusive releases the main context's exclusive hold,
// allowing workers to take shared access. Main-context-only: the
// coordinator does not defend against other contexts calling it.
//
// Returns ErrExclusiveNotHeld if the exclusive lock is not currently
// held with zero shared owners.
func (c *Coordinator) ReleaseMainExclusive() error {
	c.meta.AcquireExclusive()
	defer c.meta.ReleaseExclusive()

	if !c.main.IsExclusive() || c.main.SharedCount() != 0 {
		metrics.RecordInvalidTransition("release")
		c.logger.Error().
			Bool("exclusiveHeld", c.main.IsExclusive()).
			Int("sharedHolders", c.main.SharedCount()).
			Msg("rejected release of main exclusive lock")
		return ErrExclusiveNotHeld
	}

	c.main.ReleaseExclusive()
	metrics.SetMainExclusiveHeld(false)
	c.logger.Debug().Msg("main exclusive lock released")
	return nil
}

// AcquireMainExclusive restores the main context's exclusive hold,
// blocking until all outstanding shared holders release. Main-context-only.
//
// Returns ErrExclusiveAlreadyHeld if the exclusive lock is already held.
func (c *Coordinator) AcquireMainExclusive() error {
	c.meta.AcquireExclusive()
	defer c.meta.ReleaseExclusive()

	if c.main.IsExclusive() && c.main.SharedCount() == 0 {
		metrics.RecordInvalidTransition("acquire")
		c.logger.Error().Msg("rejected acquire of already-held main exclusive lock")
		return ErrExclusiveAlreadyHeld
	}

	start := time.Now()
	c.main.AcquireExclusive()
	wait := time.Since(start)

	metrics.SetMainExclusiveHeld(true)
	metrics.RecordExclusiveAcquired()
	metrics.RecordExclusiveReacquireWait(wait.Seconds())

	if c.slowDrainWarn > 0 && wait > c.slowDrainWarn {
		c.logger.Warn().
			Dur("wait", wait).
			Msg("slow shared-holder drain before exclusive reacquisition")
	} else {
		c.logger.Debug().Dur("wait", wait).Msg("main exclusive lock reacquired")
	}
	return nil
}

// RunShared runs action while holding a shared lock on the main lock,
// blocking until the main context's exclusive hold (if any) is released.
// The shared lock is released on every exit path, including a panicking
// action, so a failed action can never leave the main context blocked.
func (c *Coordinator) RunShared(action Action) error {
	c.main.AcquireShared()
	metrics.RecordSharedAcquired()
	start := time.Now()

	defer func() {
		metrics.RecordSharedSectionDuration(time.Since(start).Seconds())
		c.main.ReleaseShared()
		metrics.RecordSharedReleased()
	}()

	if e := c.logger.Debug(); e.Enabled() {
		e.Str("session", uuid.NewString()).
			Int("sharedHolders", c.main.SharedCount()).
			Msg("running action under shared lock")
	}
	return action()
}

// TryRunShared is the non-blocking variant of RunShared. If the main
// context currently holds the exclusive lock it returns (false, nil)
// immediately without running the action; otherwise it runs the action
// under a shared lock and returns (true, err).
func (c *Coordinator) TryRunShared(action Action) (bool, error) {
	if !c.main.TryAcquireShared() {
		metrics.RecordSharedRejected()
		return false, nil
	}
	metrics.RecordSharedAcquired()
	start := time.Now()

	defer func() {
		metrics.RecordSharedSectionDuration(time.Since(start).Seconds())
		c.main.ReleaseShared()
		metrics.RecordSharedReleased()
	}()

	return true, action()
}

// State returns a best-effort snapshot of the main lock's state.
func (c *Coordinator) State() State {
	return State{
		ExclusiveHeld: c.main.IsExclusive(),
		SharedHolders: c.main.SharedCount(),
	}
}
