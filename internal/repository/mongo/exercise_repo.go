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

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Create inserts a new exercise into the database.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.OrganizationID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise name and organization ID are required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	if exercise.Status == "" {
		exercise.Status = domain.StatusDraft
	}
	if exercise.Scope == "" {
		exercise.Scope = domain.ScopeOrganization
	}

	result, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves an exercise by its ID.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// GetByOrganization retrieves an organization's exercises, optionally
// filtered by workflow status.
func (r *mongoExerciseRepository) GetByOrganization(ctx context.Context, orgID primitive.ObjectID, status domain.ExerciseStatus) ([]domain.Exercise, error) {
	filter := bson.M{"organizationId": orgID}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter)
}

// GetByStatus retrieves exercises in a given workflow status across all
// organizations; the review queue is GetByStatus(pending_review).
func (r *mongoExerciseRepository) GetByStatus(ctx context.Context, status domain.ExerciseStatus) ([]domain.Exercise, error) {
	return r.find(ctx, bson.M{"status": status})
}

func (r *mongoExerciseRepository) find(ctx context.Context, filter bson.M) ([]domain.Exercise, error) {
	var exercises []domain.Exercise
	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return exercises, nil
}

// Update replaces the mutable content fields of an exercise. Workflow
// status is deliberately excluded; transitions go through UpdateStatus.
func (r *mongoExerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}
	if exercise.Name == "" {
		return errors.New("exercise name cannot be empty")
	}

	filter := bson.M{"_id": exercise.ID}
	update := bson.M{
		"$set": bson.M{
			"name":                 exercise.Name,
			"patientDescription":   exercise.PatientDescription,
			"clinicianDescription": exercise.ClinicianDescription,
			"type":                 exercise.Type,
			"bodySide":             exercise.BodySide,
			"params":               exercise.Params,
			"mainTags":             exercise.MainTags,
			"additionalTags":       exercise.AdditionalTags,
			"media":                exercise.Media,
			"difficulty":           exercise.Difficulty,
			"updatedAt":            time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateField sets one named field. markChanged also flips the
// changedSinceReview flag used by the resubmit guard.
func (r *mongoExerciseRepository) UpdateField(ctx context.Context, id primitive.ObjectID, field string, value interface{}, markChanged bool) error {
	if id == primitive.NilObjectID || field == "" {
		return errors.New("exercise ID and field name are required")
	}

	set := bson.M{
		field:       value,
		"updatedAt": time.Now().UTC(),
	}
	if markChanged {
		set["changedSinceReview"] = true
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateStatus performs a compare-and-set on the workflow status. The
// filter includes the expected from-status, so a record already moved
// by another reviewer matches nothing and surfaces as ErrConflict.
func (r *mongoExerciseRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.ExerciseStatus, set map[string]interface{}) error {
	filter := bson.M{"_id": id, "status": from}

	fields := bson.M{
		"status":    to,
		"updatedAt": time.Now().UTC(),
	}
	for k, v := range set {
		fields[k] = v
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Distinguish "gone" from "status moved underneath us".
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if countErr == nil && count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	return nil
}

// Delete removes an exercise, ensuring it belongs to the organization.
func (r *mongoExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID, orgID primitive.ObjectID) error {
	filter := bson.M{
		"_id":            id,
		"organizationId": orgID,
	}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organizationId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			// Review queue scan
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
