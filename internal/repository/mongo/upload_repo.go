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

const uploadCollectionName = "media_uploads"

// mongoUploadRepository implements repository.UploadRepository
type mongoUploadRepository struct {
	collection *mongo.Collection
}

// NewMongoUploadRepository creates a new MediaUpload repository backed by MongoDB.
func NewMongoUploadRepository(db *mongo.Database) repository.UploadRepository {
	return &mongoUploadRepository{
		collection: db.Collection(uploadCollectionName),
	}
}

// Create inserts upload metadata after the object landed in storage.
func (r *mongoUploadRepository) Create(ctx context.Context, upload *domain.MediaUpload) (primitive.ObjectID, error) {
	if upload.ExerciseID == primitive.NilObjectID || upload.S3ObjectKey == "" {
		return primitive.NilObjectID, errors.New("exercise ID and object key are required")
	}

	upload.ID = primitive.NewObjectID()
	upload.UploadedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, upload)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves upload metadata by ID.
func (r *mongoUploadRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MediaUpload, error) {
	var upload domain.MediaUpload
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&upload)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &upload, nil
}

// GetByExercise lists all media attached to an exercise.
func (r *mongoUploadRepository) GetByExercise(ctx context.Context, exerciseID primitive.ObjectID) ([]domain.MediaUpload, error) {
	var uploads []domain.MediaUpload

	cursor, err := r.collection.Find(ctx, bson.M{"exerciseId": exerciseID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &uploads); err != nil {
		return nil, err
	}
	return uploads, nil
}

// Delete removes upload metadata (the S3 object is deleted separately).
func (r *mongoUploadRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUploadIndexes creates necessary indexes for the media_uploads collection.
func EnsureUploadIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "exerciseId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
