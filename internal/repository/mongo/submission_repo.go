package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const submissionCollectionName = "global_submissions"

// mongoSubmissionRepository implements repository.SubmissionRepository
type mongoSubmissionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubmissionRepository creates a new GlobalSubmission repository backed by MongoDB.
func NewMongoSubmissionRepository(db *mongo.Database) repository.SubmissionRepository {
	return &mongoSubmissionRepository{
		collection: db.Collection(submissionCollectionName),
	}
}

// Create inserts a new submission record.
func (r *mongoSubmissionRepository) Create(ctx context.Context, sub *domain.GlobalSubmission) (primitive.ObjectID, error) {
	if sub.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise ID is required")
	}

	sub.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	sub.SubmittedAt = now
	sub.UpdatedAt = now
	if sub.Status == "" {
		sub.Status = domain.StatusPendingReview
	}

	result, err := r.collection.InsertOne(ctx, sub)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a submission by its ID.
func (r *mongoSubmissionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GlobalSubmission, error) {
	var sub domain.GlobalSubmission
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// GetOpenByExercise returns the unresolved submission for an exercise,
// if one exists. At most one submission per exercise may be open.
func (r *mongoSubmissionRepository) GetOpenByExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.GlobalSubmission, error) {
	filter := bson.M{
		"exerciseId": exerciseID,
		"status": bson.M{"$in": []domain.ExerciseStatus{
			domain.StatusPendingReview,
			domain.StatusChangesRequested,
		}},
	}

	var sub domain.GlobalSubmission
	err := r.collection.FindOne(ctx, filter).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// Update replaces the mutable decision fields of a submission.
func (r *mongoSubmissionRepository) Update(ctx context.Context, sub *domain.GlobalSubmission) error {
	if sub.ID == primitive.NilObjectID {
		return errors.New("submission ID is required for update")
	}

	update := bson.M{
		"$set": bson.M{
			"status":      sub.Status,
			"reviewerId":  sub.ReviewerID,
			"reviewNotes": sub.ReviewNotes,
			"reasonCode":  sub.ReasonCode,
			"decidedAt":   sub.DecidedAt,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": sub.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSubmissionIndexes creates necessary indexes for the global_submissions collection.
func EnsureSubmissionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "exerciseId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "organizationId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
