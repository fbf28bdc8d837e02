package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	// RoleAuthor creates and maintains exercises for its organization.
	RoleAuthor Role = "author"
	// RoleReviewer is the verification role; it moderates submissions
	// and is the only role allowed to touch GLOBAL-scoped records.
	RoleReviewer Role = "reviewer"
)

// User represents a user in the system (either an Author or a Reviewer).
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash   string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role           Role               `bson:"role" json:"role"`
	OrganizationID primitive.ObjectID `bson:"organizationId,omitempty" json:"organizationId,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAuthor() bool {
	return u.Role == RoleAuthor
}

func (u *User) IsReviewer() bool {
	return u.Role == RoleReviewer
}
