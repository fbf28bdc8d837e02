package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is a persisted message to an author or reviewer about a
// workflow event on one of their exercises.
type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RecipientID primitive.ObjectID `bson:"recipientId" json:"recipientId"`
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Event       string             `bson:"event" json:"event"`
	Message     string             `bson:"message,omitempty" json:"message,omitempty"`
	Read        bool               `bson:"read" json:"read"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
