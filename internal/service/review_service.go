package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewEvent is a workflow event dispatched against an exercise.
type ReviewEvent string

const (
	EventSubmit         ReviewEvent = "submit"
	EventApprove        ReviewEvent = "approve"
	EventRequestChanges ReviewEvent = "request_changes"
	EventReject         ReviewEvent = "reject"
	EventResubmit       ReviewEvent = "resubmit"
	EventUnpublish      ReviewEvent = "unpublish"
)

// transition describes one row of the workflow table: which states an
// event may fire from and where it lands.
type transition struct {
	from []domain.ExerciseStatus
	to   domain.ExerciseStatus
}

// transitions is the full lifecycle. approve lands directly on
// published; the approved status exists only on stored legacy records.
var transitions = map[ReviewEvent]transition{
	EventSubmit: {
		from: []domain.ExerciseStatus{domain.StatusDraft, domain.StatusChangesRequested},
		to:   domain.StatusPendingReview,
	},
	EventApprove: {
		from: []domain.ExerciseStatus{domain.StatusPendingReview, domain.StatusApproved},
		to:   domain.StatusPublished,
	},
	EventRequestChanges: {
		from: []domain.ExerciseStatus{domain.StatusPendingReview},
		to:   domain.StatusChangesRequested,
	},
	EventReject: {
		from: []domain.ExerciseStatus{domain.StatusPendingReview},
		to:   domain.StatusRejected,
	},
	EventResubmit: {
		from: []domain.ExerciseStatus{domain.StatusChangesRequested},
		to:   domain.StatusPendingReview,
	},
	EventUnpublish: {
		from: []domain.ExerciseStatus{domain.StatusPublished},
		to:   domain.StatusArchived,
	},
}

// Actor identifies who is dispatching an event or editing a field.
type Actor struct {
	ID             primitive.ObjectID
	Role           domain.Role
	OrganizationID primitive.ObjectID
}

// DispatchPayload carries the reviewer's input for a transition.
type DispatchPayload struct {
	Notes  string
	Reason domain.ReasonCode
}

// Notifier delivers workflow messages to authors and reviewers.
type Notifier interface {
	Notify(ctx context.Context, recipientID, exerciseID primitive.ObjectID, event, message string) error
}

// CatalogIndexer keeps the shared-catalog search index in step with the
// published set.
type CatalogIndexer interface {
	Index(ctx context.Context, ex *domain.Exercise) error
	Remove(ctx context.Context, exerciseID primitive.ObjectID) error
}

// AuthorizeFunc answers "may this actor perform this event on this
// exercise". It is a collaborator; the state machine calls it as a
// guard but does not implement it.
type AuthorizeFunc func(ctx context.Context, actor Actor, event ReviewEvent, ex *domain.Exercise) error

// ReviewPolicy holds the tunable review-workflow knobs.
type ReviewPolicy struct {
	MinNotesLength int
}

// --- Service Interface ---

// ReviewService is the exercise lifecycle state machine. Dispatch
// either returns the exercise in its new state or a typed error with
// the prior state fully intact; transitions are never applied
// optimistically.
type ReviewService interface {
	Dispatch(ctx context.Context, event ReviewEvent, exerciseID primitive.ObjectID, actor Actor, payload DispatchPayload) (*domain.Exercise, error)
	AllowedEvents(status domain.ExerciseStatus) []ReviewEvent
	// CanEdit is the guard for the edit pseudo-transition, a pure
	// function of the record and the actor so the read-only rule has a
	// single source of truth.
	CanEdit(ex *domain.Exercise, actor Actor) error
	Readiness(ctx context.Context, exerciseID primitive.ObjectID) ([]domain.ValidationResult, int, error)
}

// --- Service Implementation ---

type reviewService struct {
	exerciseRepo   repository.ExerciseRepository
	submissionRepo repository.SubmissionRepository
	readiness      *ReadinessEngine
	notifier       Notifier
	indexer        CatalogIndexer
	authorize      AuthorizeFunc
	policy         ReviewPolicy
}

// NewReviewService creates a new instance of reviewService.
func NewReviewService(
	exerciseRepo repository.ExerciseRepository,
	submissionRepo repository.SubmissionRepository,
	readiness *ReadinessEngine,
	notifier Notifier,
	indexer CatalogIndexer,
	authorize AuthorizeFunc,
	policy ReviewPolicy,
) ReviewService {
	if policy.MinNotesLength <= 0 {
		policy.MinNotesLength = 10
	}
	return &reviewService{
		exerciseRepo:   exerciseRepo,
		submissionRepo: submissionRepo,
		readiness:      readiness,
		notifier:       notifier,
		indexer:        indexer,
		authorize:      authorize,
		policy:         policy,
	}
}

// AllowedEvents lists the events legal from the given status, in table
// order; the workbench uses this to enable/disable action buttons.
func (s *reviewService) AllowedEvents(status domain.ExerciseStatus) []ReviewEvent {
	ordered := []ReviewEvent{EventSubmit, EventApprove, EventRequestChanges, EventReject, EventResubmit, EventUnpublish}
	var allowed []ReviewEvent
	for _, ev := range ordered {
		for _, from := range transitions[ev].from {
			if from == status {
				allowed = append(allowed, ev)
				break
			}
		}
	}
	return allowed
}

// CanEdit delegates to CanEditExercise.
func (s *reviewService) CanEdit(ex *domain.Exercise, actor Actor) error {
	return CanEditExercise(ex, actor)
}

// CanEditExercise enforces the read-only rules for field-level edits:
//   - GLOBAL-scoped records are read-only to everyone but reviewers;
//   - a record with an unresolved global submission is read-only to its
//     owning organization;
//   - authors may edit only in draft / changes_requested, and only
//     their own organization's records;
//   - reviewers may edit in any state via the workbench.
//
// It is a pure function of the record and the actor, evaluated at
// guard-check time; there is no stored read-only flag to drift out of
// step with the status.
func CanEditExercise(ex *domain.Exercise, actor Actor) error {
	if actor.Role == domain.RoleReviewer {
		return nil
	}
	if ex.Scope == domain.ScopeGlobal {
		return ErrExerciseAccessDenied
	}
	if ex.Locked() {
		return ErrExerciseLocked
	}
	if ex.OrganizationID != actor.OrganizationID {
		return ErrExerciseAccessDenied
	}
	switch ex.Status {
	case domain.StatusDraft, domain.StatusChangesRequested:
		return nil
	}
	return &GuardViolationError{Event: "edit", State: ex.Status}
}

// Dispatch runs one workflow event. The status write is a
// compare-and-set on the from-state, so a record already transitioned
// by another reviewer surfaces as repository.ErrConflict and nothing is
// applied locally.
func (s *reviewService) Dispatch(ctx context.Context, event ReviewEvent, exerciseID primitive.ObjectID, actor Actor, payload DispatchPayload) (*domain.Exercise, error) {
	tr, ok := transitions[event]
	if !ok {
		return nil, &GuardViolationError{Event: string(event), State: ""}
	}

	ex, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	allowed := false
	for _, from := range tr.from {
		if ex.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &GuardViolationError{Event: string(event), State: ex.Status}
	}

	if s.authorize != nil {
		if err := s.authorize(ctx, actor, event, ex); err != nil {
			return nil, err
		}
	}

	set, err := s.guardAndStage(event, ex, payload)
	if err != nil {
		return nil, err
	}

	if err := s.exerciseRepo.UpdateStatus(ctx, ex.ID, ex.Status, tr.to, set); err != nil {
		// The transition was not applied; the exercise stays in its
		// prior state and the caller decides whether to retry.
		return nil, err
	}

	prior := ex.Status
	ex.Status = tr.to
	applyStaged(ex, set)

	s.resolveSubmission(ctx, event, ex, actor, payload)
	s.sideEffects(ctx, event, ex, actor, payload, prior)

	return ex, nil
}

// guardAndStage validates the event-specific guard and returns the
// extra fields the transition writes alongside the status.
func (s *reviewService) guardAndStage(event ReviewEvent, ex *domain.Exercise, payload DispatchPayload) (map[string]interface{}, error) {
	set := map[string]interface{}{}
	notes := strings.TrimSpace(payload.Notes)

	switch event {
	case EventSubmit:
		set["changedSinceReview"] = false

	case EventApprove:
		results := s.readiness.Evaluate(ex)
		if blocking := BlockingFailures(results); len(blocking) > 0 {
			return nil, &ValidationError{Results: blocking}
		}
		set["scope"] = domain.ScopeGlobal
		set["reviewNotes"] = ""

	case EventRequestChanges:
		if len(notes) < s.policy.MinNotesLength {
			return nil, ErrNotesTooShort
		}
		set["reviewNotes"] = notes
		set["changedSinceReview"] = false

	case EventReject:
		if payload.Reason == "" {
			return nil, ErrReasonRequired
		}
		if len(notes) < s.policy.MinNotesLength {
			return nil, ErrNotesTooShort
		}
		set["reviewNotes"] = notes

	case EventResubmit:
		if !ex.ChangedSinceReview {
			return nil, ErrNoChangesSinceReview
		}
		// Clears the feedback banner from the previous review round.
		set["reviewNotes"] = ""
		set["changedSinceReview"] = false

	case EventUnpublish:
		if notes != "" {
			set["reviewNotes"] = notes
		}
	}
	return set, nil
}

// applyStaged mirrors the staged writes onto the in-memory record so
// the caller gets back exactly what was persisted.
func applyStaged(ex *domain.Exercise, set map[string]interface{}) {
	for k, v := range set {
		switch k {
		case "reviewNotes":
			ex.ReviewNotes = v.(string)
		case "changedSinceReview":
			ex.ChangedSinceReview = v.(bool)
		case "scope":
			ex.Scope = v.(domain.ExerciseScope)
		}
	}
}

// resolveSubmission keeps the global-submission record in step with the
// exercise it mirrors. Failures are logged, not fatal: the transition
// itself already committed.
func (s *reviewService) resolveSubmission(ctx context.Context, event ReviewEvent, ex *domain.Exercise, actor Actor, payload DispatchPayload) {
	if s.submissionRepo == nil || ex.GlobalSubmissionID == nil {
		return
	}

	sub, err := s.submissionRepo.GetByID(ctx, *ex.GlobalSubmissionID)
	if err != nil {
		log.Printf("ERROR: failed to load submission %s: %v", ex.GlobalSubmissionID.Hex(), err)
		return
	}

	sub.Status = ex.Status
	sub.ReviewNotes = ex.ReviewNotes
	if actor.Role == domain.RoleReviewer {
		reviewerID := actor.ID
		sub.ReviewerID = &reviewerID
	}
	if event == EventReject {
		sub.ReasonCode = payload.Reason
	}
	if sub.Resolved() {
		now := time.Now().UTC()
		sub.DecidedAt = &now
	}

	if err := s.submissionRepo.Update(ctx, sub); err != nil {
		log.Printf("ERROR: failed to update submission %s: %v", sub.ID.Hex(), err)
	}

	// Resolution releases the owning organization's read-only lock.
	if sub.Resolved() {
		if err := s.exerciseRepo.UpdateField(ctx, ex.ID, "globalSubmissionId", nil, false); err != nil {
			log.Printf("ERROR: failed to clear submission lock on %s: %v", ex.ID.Hex(), err)
		} else {
			ex.GlobalSubmissionID = nil
		}
	}
}

// sideEffects delivers the collaborator obligations after a committed
// transition: catalog indexing and notifications. These are external
// systems; failures are logged and retried out of band, never unwound
// into the already-committed transition.
func (s *reviewService) sideEffects(ctx context.Context, event ReviewEvent, ex *domain.Exercise, actor Actor, payload DispatchPayload, prior domain.ExerciseStatus) {
	switch event {
	case EventApprove:
		if s.indexer != nil {
			if err := s.indexer.Index(ctx, ex); err != nil {
				log.Printf("ERROR: catalog indexing failed for %s: %v", ex.ID.Hex(), err)
			}
		}
		s.notify(ctx, ex.AuthorID, ex, event, "Your exercise was approved and published to the shared catalog.")

	case EventRequestChanges:
		s.notify(ctx, ex.AuthorID, ex, event, ex.ReviewNotes)

	case EventReject:
		s.notify(ctx, ex.AuthorID, ex, event, ex.ReviewNotes)

	case EventResubmit:
		// Reviewers pick resubmissions up from the queue; no direct
		// notification target exists here.

	case EventUnpublish:
		if s.indexer != nil {
			if err := s.indexer.Remove(ctx, ex.ID); err != nil {
				log.Printf("ERROR: catalog removal failed for %s: %v", ex.ID.Hex(), err)
			}
		}
		s.notify(ctx, ex.AuthorID, ex, event, strings.TrimSpace(payload.Notes))
	}
}

func (s *reviewService) notify(ctx context.Context, recipientID primitive.ObjectID, ex *domain.Exercise, event ReviewEvent, message string) {
	if s.notifier == nil || recipientID == primitive.NilObjectID {
		return
	}
	if err := s.notifier.Notify(ctx, recipientID, ex.ID, string(event), message); err != nil {
		log.Printf("ERROR: notification for %s failed: %v", ex.ID.Hex(), err)
	}
}

// Readiness evaluates the publish-readiness rules for display: the full
// result list plus the aggregate percentage score.
func (s *reviewService) Readiness(ctx context.Context, exerciseID primitive.ObjectID) ([]domain.ValidationResult, int, error) {
	ex, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, ErrExerciseNotFound
		}
		return nil, 0, err
	}
	results := s.readiness.Evaluate(ex)
	return results, Score(results), nil
}
