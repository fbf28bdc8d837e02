package repository

import (
	"context"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	// ErrConflict means the record changed underneath the caller (for
	// example its status no longer matches a transition's from-state).
	// Callers should refetch and re-evaluate, not blindly retry.
	ErrConflict = RepositoryError("conflict: record changed concurrently")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ExerciseRepository defines the interface for interacting with exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByOrganization(ctx context.Context, orgID primitive.ObjectID, status domain.ExerciseStatus) ([]domain.Exercise, error)
	GetByStatus(ctx context.Context, status domain.ExerciseStatus) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	// UpdateField sets a single named field; the workbench's optimistic
	// fields persist through this so edits to different fields never
	// contend with each other.
	UpdateField(ctx context.Context, id primitive.ObjectID, field string, value interface{}, markChanged bool) error
	// UpdateStatus advances the workflow status only when the stored
	// status still equals from; returns ErrConflict otherwise.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.ExerciseStatus, set map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID, orgID primitive.ObjectID) error
}

// RelationRepository maintains the progression/regression edge slots.
// Implementations must keep the forward/inverse pair atomic: the swap
// in ReplacePair either fully applies or not at all.
type RelationRepository interface {
	GetBySource(ctx context.Context, sourceID primitive.ObjectID) (domain.RelationPair, error)
	// ReplacePair installs (source, relType, target) and its inverse
	// (target, relType.Inverse(), source), retiring whatever edges
	// previously occupied either slot together with their inverses.
	ReplacePair(ctx context.Context, sourceID, targetID primitive.ObjectID, relType domain.RelationType, provenance domain.RelationProvenance) error
	// RemovePair clears the source's slot of the given type and the
	// linked target's inverse slot in one atomic operation.
	RemovePair(ctx context.Context, sourceID primitive.ObjectID, relType domain.RelationType) error
	// DeleteAllFor removes every edge touching the exercise; called on
	// exercise deletion so edges never outlive their endpoints.
	DeleteAllFor(ctx context.Context, exerciseID primitive.ObjectID) error
}

// SubmissionRepository defines the interface for global-submission records.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.GlobalSubmission) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GlobalSubmission, error)
	GetOpenByExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.GlobalSubmission, error)
	Update(ctx context.Context, sub *domain.GlobalSubmission) error
}

// UploadRepository defines the interface for media upload metadata.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.MediaUpload) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MediaUpload, error)
	GetByExercise(ctx context.Context, exerciseID primitive.ObjectID) ([]domain.MediaUpload, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// NotificationRepository persists workflow notifications so authors can
// retrieve reviewer feedback later.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error)
	GetByRecipient(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID primitive.ObjectID) error
}
