package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaKind distinguishes the media slots an exercise can reference.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaLoop  MediaKind = "loop" // animated loop shown in the patient app
)

// MediaUpload stores metadata about a media asset attached to an
// exercise. The actual file resides in S3.
type MediaUpload struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	UploaderID  primitive.ObjectID `bson:"uploaderId" json:"uploaderId"`
	Kind        MediaKind          `bson:"kind" json:"kind"`
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"` // internal use only
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
