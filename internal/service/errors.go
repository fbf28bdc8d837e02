package service

import (
	"errors"
	"fmt"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseAccessDenied = errors.New("access denied to modify this exercise")
	ErrExerciseLocked       = errors.New("exercise is read-only while its global submission is unresolved")
	ErrNotesTooShort        = errors.New("reviewer notes are required and must meet the minimum length")
	ErrReasonRequired       = errors.New("a reason code is required to reject")
	ErrNoChangesSinceReview = errors.New("resubmit requires at least one field change since changes were requested")
	ErrSelfRelation         = errors.New("an exercise cannot be its own progression or regression")
	ErrContradictoryRelation = errors.New("the same pair cannot be linked as both progression and regression")
)

// ValidationError is returned when approve is blocked by one or more
// error-severity readiness failures. It carries the failing results so
// the caller can render them as a list; it is never silently bypassed.
type ValidationError struct {
	Results []domain.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("publish readiness failed: %d blocking rule(s)", len(e.Results))
}

// GuardViolationError is a programmer error in the caller: an event was
// dispatched from a state that does not permit it. It fails loudly and
// must not be swallowed.
type GuardViolationError struct {
	Event string
	State domain.ExerciseStatus
}

func (e *GuardViolationError) Error() string {
	return fmt.Sprintf("event %q is not permitted from state %q", e.Event, e.State)
}

// IsGuardViolation reports whether err is a GuardViolationError.
func IsGuardViolation(err error) bool {
	var gv *GuardViolationError
	return errors.As(err, &gv)
}
