// internal/domain/relation.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RelationType is the direction of a progression-ladder link.
type RelationType string

const (
	RelationRegression  RelationType = "regression"
	RelationProgression RelationType = "progression"
)

// Inverse returns the relation type the target must hold back to the
// source: (A, progression, B) always pairs with (B, regression, A).
func (t RelationType) Inverse() RelationType {
	if t == RelationProgression {
		return RelationRegression
	}
	return RelationProgression
}

// RelationProvenance records whether a link was set by a human or
// proposed by a suggestion service.
type RelationProvenance string

const (
	ProvenanceHuman     RelationProvenance = "human"
	ProvenanceSuggested RelationProvenance = "suggested"
)

// RelationEdge is a directed, typed link between two exercises.
// Each exercise holds at most one outgoing edge per relation type.
type RelationEdge struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SourceID   primitive.ObjectID `bson:"sourceId" json:"sourceId"`
	TargetID   primitive.ObjectID `bson:"targetId" json:"targetId"`
	Type       RelationType       `bson:"type" json:"type"`
	Provenance RelationProvenance `bson:"provenance" json:"provenance"`
	Confirmed  bool               `bson:"confirmed" json:"confirmed"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RelationPair is the pair of outgoing slots an exercise can hold.
type RelationPair struct {
	Regression  *RelationEdge `json:"regression,omitempty"`
	Progression *RelationEdge `json:"progression,omitempty"`
}

// Slot returns the edge occupying the given type's slot, or nil.
func (p RelationPair) Slot(t RelationType) *RelationEdge {
	if t == RelationRegression {
		return p.Regression
	}
	return p.Progression
}
