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

const notificationCollectionName = "notifications"

// mongoNotificationRepository implements repository.NotificationRepository
type mongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new Notification repository backed by MongoDB.
func NewMongoNotificationRepository(db *mongo.Database) repository.NotificationRepository {
	return &mongoNotificationRepository{
		collection: db.Collection(notificationCollectionName),
	}
}

// Create inserts a workflow notification.
func (r *mongoNotificationRepository) Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	if n.RecipientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("recipient ID is required")
	}

	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, n)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByRecipient lists a user's notifications, newest first.
func (r *mongoNotificationRepository) GetByRecipient(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error) {
	filter := bson.M{"recipientId": recipientID}
	if unreadOnly {
		filter["read"] = false
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []domain.Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead flags a notification as read, scoped to its recipient.
func (r *mongoNotificationRepository) MarkRead(ctx context.Context, id, recipientID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "recipientId": recipientID}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureNotificationIndexes creates necessary indexes for the notifications collection.
func EnsureNotificationIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "recipientId", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
