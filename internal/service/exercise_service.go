package service

import (
	"context"
	"errors"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// editableFields maps the API's field names onto their persistence
// paths. Everything here commits through the optimistic field path.
var editableFields = map[string]string{
	"name":                 "name",
	"patientDescription":   "patientDescription",
	"clinicianDescription": "clinicianDescription",
	"type":                 "type",
	"bodySide":             "bodySide",
	"difficulty":           "difficulty",
	"mainTags":             "mainTags",
	"additionalTags":       "additionalTags",
	"params.sets":          "params.sets",
	"params.reps":          "params.reps",
	"params.durationSec":   "params.durationSec",
	"params.restSec":       "params.restSec",
	"params.tempo":         "params.tempo",
	"params.audioCue":      "params.audioCue",
	"media.imageKeys":      "media.imageKeys",
	"media.videoKey":       "media.videoKey",
	"media.loopKey":        "media.loopKey",
}

var ErrUnknownField = errors.New("unknown editable field")

// --- Service Interface ---

type ExerciseService interface {
	CreateDraft(ctx context.Context, actor Actor, ex *domain.Exercise) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	GetByOrganization(ctx context.Context, orgID primitive.ObjectID, status domain.ExerciseStatus) ([]domain.Exercise, error)
	GetReviewQueue(ctx context.Context) ([]domain.Exercise, error)
	// CommitField is the persistence target of one optimistic field:
	// it writes a single named value after the edit guard passes.
	CommitField(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, field string, value interface{}) error
	DeleteDraft(ctx context.Context, actor Actor, exerciseID primitive.ObjectID) error
	// SubmitForGlobal opens a promotion request: it creates the
	// submission record, locks the organization's copy, and moves the
	// exercise into review.
	SubmitForGlobal(ctx context.Context, actor Actor, exerciseID primitive.ObjectID) (*domain.GlobalSubmission, error)
}

// --- Service Implementation ---

type exerciseService struct {
	exerciseRepo   repository.ExerciseRepository
	relationRepo   repository.RelationRepository
	submissionRepo repository.SubmissionRepository
	review         ReviewService
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(
	exerciseRepo repository.ExerciseRepository,
	relationRepo repository.RelationRepository,
	submissionRepo repository.SubmissionRepository,
	review ReviewService,
) ExerciseService {
	return &exerciseService{
		exerciseRepo:   exerciseRepo,
		relationRepo:   relationRepo,
		submissionRepo: submissionRepo,
		review:         review,
	}
}

// CreateDraft creates a new draft exercise owned by the actor's organization.
func (s *exerciseService) CreateDraft(ctx context.Context, actor Actor, ex *domain.Exercise) (*domain.Exercise, error) {
	if ex.Name == "" {
		return nil, errors.New("exercise name is required")
	}
	if actor.OrganizationID == primitive.NilObjectID {
		return nil, errors.New("actor organization is required to create an exercise")
	}

	ex.OrganizationID = actor.OrganizationID
	ex.AuthorID = actor.ID
	ex.Status = domain.StatusDraft
	if ex.Scope == "" || ex.Scope == domain.ScopeGlobal {
		// Records are never born global; promotion goes through review.
		ex.Scope = domain.ScopeOrganization
	}

	id, err := s.exerciseRepo.Create(ctx, ex)
	if err != nil {
		return nil, err
	}
	return s.exerciseRepo.GetByID(ctx, id)
}

// GetExerciseByID retrieves a single exercise.
func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	ex, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return ex, nil
}

// GetByOrganization lists an organization's exercises.
func (s *exerciseService) GetByOrganization(ctx context.Context, orgID primitive.ObjectID, status domain.ExerciseStatus) ([]domain.Exercise, error) {
	if orgID == primitive.NilObjectID {
		return nil, errors.New("organization ID cannot be nil")
	}
	return s.exerciseRepo.GetByOrganization(ctx, orgID, status)
}

// GetReviewQueue lists every exercise waiting on a reviewer decision.
func (s *exerciseService) GetReviewQueue(ctx context.Context) ([]domain.Exercise, error) {
	return s.exerciseRepo.GetByStatus(ctx, domain.StatusPendingReview)
}

// CommitField writes one field-level edit. The guard runs against the
// freshly loaded record so the read-only rule is always evaluated over
// the current status, and author edits in changes_requested flip the
// changedSinceReview flag the resubmit guard depends on.
func (s *exerciseService) CommitField(ctx context.Context, actor Actor, exerciseID primitive.ObjectID, field string, value interface{}) error {
	path, ok := editableFields[field]
	if !ok {
		return ErrUnknownField
	}

	ex, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	if err := CanEditExercise(ex, actor); err != nil {
		return err
	}

	markChanged := actor.Role == domain.RoleAuthor && ex.Status == domain.StatusChangesRequested
	return s.exerciseRepo.UpdateField(ctx, exerciseID, path, value, markChanged)
}

// DeleteDraft removes a draft together with any relation edges touching
// it, so edges never reference a deleted exercise.
func (s *exerciseService) DeleteDraft(ctx context.Context, actor Actor, exerciseID primitive.ObjectID) error {
	ex, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	if ex.Status != domain.StatusDraft {
		return &GuardViolationError{Event: "delete", State: ex.Status}
	}
	if actor.Role != domain.RoleReviewer && ex.OrganizationID != actor.OrganizationID {
		return ErrExerciseAccessDenied
	}

	if err := s.exerciseRepo.Delete(ctx, exerciseID, ex.OrganizationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	return s.relationRepo.DeleteAllFor(ctx, exerciseID)
}

// SubmitForGlobal opens the promotion request. The submission record is
// created first; the status transition then runs through the state
// machine so its guards and side effects apply unchanged.
func (s *exerciseService) SubmitForGlobal(ctx context.Context, actor Actor, exerciseID primitive.ObjectID) (*domain.GlobalSubmission, error) {
	ex, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if ex.OrganizationID != actor.OrganizationID {
		return nil, ErrExerciseAccessDenied
	}
	if ex.Locked() {
		return nil, ErrExerciseLocked
	}
	if existing, err := s.submissionRepo.GetOpenByExercise(ctx, exerciseID); err == nil && existing != nil {
		return nil, ErrExerciseLocked
	}

	sub := &domain.GlobalSubmission{
		ExerciseID:     exerciseID,
		OrganizationID: ex.OrganizationID,
		SubmittedBy:    actor.ID,
		Status:         domain.StatusPendingReview,
	}
	subID, err := s.submissionRepo.Create(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.ID = subID

	if err := s.exerciseRepo.UpdateField(ctx, exerciseID, "globalSubmissionId", subID, false); err != nil {
		return nil, err
	}

	if _, err := s.review.Dispatch(ctx, EventSubmit, exerciseID, actor, DispatchPayload{}); err != nil {
		// Roll the lock back; the submission stays visible as abandoned
		// history rather than silently deleted.
		_ = s.exerciseRepo.UpdateField(ctx, exerciseID, "globalSubmissionId", nil, false)
		sub.Status = domain.StatusArchived
		_ = s.submissionRepo.Update(ctx, sub)
		return nil, err
	}

	return sub, nil
}
