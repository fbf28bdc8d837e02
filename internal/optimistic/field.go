// Package optimistic implements the commit-with-rollback primitive that
// backs every editable value in the verification workbench: the local
// view updates instantly, persistence happens asynchronously, and a
// failed write rolls the value back to the last confirmed state.
package optimistic

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"
)

// State is the lifecycle of a single editable field.
type State string

const (
	StateIdle    State = "idle"
	StateEditing State = "editing"
	StateSaving  State = "saving"
	StateSuccess State = "success"
	StateError   State = "error"
)

// DefaultGracePeriod is how long a field shows success/error before
// decaying back to idle.
const DefaultGracePeriod = 2 * time.Second

var (
	// ErrNotEditing is returned when Commit is called on a field that
	// was never opened with BeginEdit.
	ErrNotEditing = errors.New("optimistic: field is not being edited")
)

// PersistFunc writes the committed value to the authoritative store.
type PersistFunc[T any] func(ctx context.Context, value T) error

// Field serializes edits to one value. Only one persist call is in
// flight at a time; a Commit issued while saving parks its value in a
// single pending slot (overwriting any earlier parked value) and the
// in-flight commit drains the slot with one follow-up call carrying
// the latest value.
type Field[T any] struct {
	mu      sync.Mutex
	persist PersistFunc[T]
	equal   func(a, b T) bool
	grace   time.Duration
	after   func(d time.Duration, fn func()) // timer hook, replaceable in tests

	state         State
	current       T
	lastConfirmed T
	pending       *T
	gen           uint64 // bumped on every transition to invalidate stale decay timers
}

// Option configures a Field.
type Option[T any] func(*Field[T])

// WithEqual replaces the equality check used to detect no-op commits.
// The default is reflect.DeepEqual, which also covers slice values.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(f *Field[T]) { f.equal = eq }
}

// WithGracePeriod sets how long success/error is shown before the
// field returns to idle.
func WithGracePeriod[T any](d time.Duration) Option[T] {
	return func(f *Field[T]) { f.grace = d }
}

// WithTimer replaces the decay timer; tests inject a synchronous hook.
func WithTimer[T any](after func(d time.Duration, fn func())) Option[T] {
	return func(f *Field[T]) { f.after = after }
}

// New creates an idle field around the given persistence function.
func New[T any](persist PersistFunc[T], opts ...Option[T]) *Field[T] {
	f := &Field[T]{
		persist: persist,
		equal:   func(a, b T) bool { return reflect.DeepEqual(a, b) },
		grace:   DefaultGracePeriod,
		after:   func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// BeginEdit captures the confirmed baseline and opens the field.
func (f *Field[T]) BeginEdit(initial T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastConfirmed = initial
	f.current = initial
	f.pending = nil
	f.setState(StateEditing)
}

// UpdateDraft mutates the local draft value. No side effects: a draft
// updated during an in-flight save does not alter that save.
func (f *Field[T]) UpdateDraft(value T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = value
}

// Cancel discards the draft and restores the confirmed value without
// any network call. A field that is saving cannot be cancelled; the
// in-flight request is allowed to complete.
func (f *Field[T]) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSaving {
		return
	}
	f.current = f.lastConfirmed
	f.pending = nil
	f.setState(StateIdle)
}

// Commit persists the draft. An unchanged draft is a no-op that goes
// straight back to idle. If a save is already in flight the draft is
// parked in the pending slot and Commit returns nil immediately; the
// in-flight commit re-commits the parked value once it resolves. On
// failure the draft rolls back to the last confirmed value and the
// error is returned; the caller never sees a failed value as live.
func (f *Field[T]) Commit(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case StateSaving:
		v := f.current
		f.pending = &v
		f.mu.Unlock()
		return nil
	case StateIdle, StateSuccess, StateError:
		f.mu.Unlock()
		return ErrNotEditing
	}

	for {
		if f.equal(f.current, f.lastConfirmed) {
			f.setState(StateIdle)
			f.mu.Unlock()
			return nil
		}

		value := f.current
		f.setState(StateSaving)
		f.mu.Unlock()

		err := f.persist(ctx, value)

		f.mu.Lock()
		if err != nil {
			f.current = f.lastConfirmed
			f.pending = nil
			f.setState(StateError)
			f.scheduleDecay()
			f.mu.Unlock()
			return err
		}

		f.lastConfirmed = value
		if f.pending != nil {
			// Drain the single-slot queue: exactly one follow-up call,
			// carrying the latest parked value.
			f.current = *f.pending
			f.pending = nil
			continue
		}

		f.setState(StateSuccess)
		f.scheduleDecay()
		f.mu.Unlock()
		return nil
	}
}

// Value returns the value currently displayed by the field.
func (f *Field[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// LastConfirmed returns the last value acknowledged by persistence.
func (f *Field[T]) LastConfirmed() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastConfirmed
}

// CurrentState returns the field's lifecycle state.
func (f *Field[T]) CurrentState() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// setState transitions and invalidates outstanding decay timers.
// Caller must hold f.mu.
func (f *Field[T]) setState(s State) {
	f.state = s
	f.gen++
}

// scheduleDecay returns the field to idle after the grace period,
// unless another transition happened in the meantime.
// Caller must hold f.mu.
func (f *Field[T]) scheduleDecay() {
	gen := f.gen
	f.after(f.grace, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gen != gen {
			return
		}
		if f.state == StateSuccess || f.state == StateError {
			f.setState(StateIdle)
		}
	})
}
