package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReasonCode classifies a rejection decision.
type ReasonCode string

const (
	ReasonDuplicate     ReasonCode = "duplicate"
	ReasonUnsafe        ReasonCode = "unsafe"
	ReasonLowQuality    ReasonCode = "low_quality"
	ReasonOutOfScope    ReasonCode = "out_of_scope"
	ReasonPolicyBreach  ReasonCode = "policy_breach"
)

// GlobalSubmission records an organization's request to promote one of
// its exercises into the shared global catalog. While a submission is
// unresolved the organization's own copy is read-only.
type GlobalSubmission struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ExerciseID     primitive.ObjectID  `bson:"exerciseId" json:"exerciseId"`
	OrganizationID primitive.ObjectID  `bson:"organizationId" json:"organizationId"`
	SubmittedBy    primitive.ObjectID  `bson:"submittedBy" json:"submittedBy"`
	Status         ExerciseStatus      `bson:"status" json:"status"` // mirrors the exercise workflow status
	ReviewerID     *primitive.ObjectID `bson:"reviewerId,omitempty" json:"reviewerId,omitempty"`
	ReviewNotes    string              `bson:"reviewNotes,omitempty" json:"reviewNotes,omitempty"`
	ReasonCode     ReasonCode          `bson:"reasonCode,omitempty" json:"reasonCode,omitempty"`
	SubmittedAt    time.Time           `bson:"submittedAt" json:"submittedAt"`
	DecidedAt      *time.Time          `bson:"decidedAt,omitempty" json:"decidedAt,omitempty"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Resolved reports whether the submission reached a terminal decision.
func (s *GlobalSubmission) Resolved() bool {
	switch s.Status {
	case StatusPublished, StatusRejected, StatusArchived:
		return true
	}
	return false
}
