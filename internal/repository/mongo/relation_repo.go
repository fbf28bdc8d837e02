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

const relationCollectionName = "relations"

// mongoRelationRepository implements repository.RelationRepository.
//
// The collection holds one document per directed edge, with a unique
// index on (sourceId, type): each exercise owns at most one outgoing
// slot per relation type. Every mutation runs inside a session
// transaction so the forward/inverse pair can never be observed
// half-applied after commit.
type mongoRelationRepository struct {
	collection *mongo.Collection
	client     *mongo.Client
}

// NewMongoRelationRepository creates a new Relation repository backed by MongoDB.
func NewMongoRelationRepository(db *mongo.Database) repository.RelationRepository {
	return &mongoRelationRepository{
		collection: db.Collection(relationCollectionName),
		client:     db.Client(),
	}
}

// GetBySource returns the exercise's outgoing regression/progression slots.
func (r *mongoRelationRepository) GetBySource(ctx context.Context, sourceID primitive.ObjectID) (domain.RelationPair, error) {
	var pair domain.RelationPair

	cursor, err := r.collection.Find(ctx, bson.M{"sourceId": sourceID})
	if err != nil {
		return pair, err
	}
	defer cursor.Close(ctx)

	var edges []domain.RelationEdge
	if err = cursor.All(ctx, &edges); err != nil {
		return pair, err
	}

	for i := range edges {
		switch edges[i].Type {
		case domain.RelationRegression:
			pair.Regression = &edges[i]
		case domain.RelationProgression:
			pair.Progression = &edges[i]
		}
	}
	return pair, nil
}

// ReplacePair installs the forward edge and its inverse in one
// transaction, retiring the edges that previously occupied either slot
// together with their own inverses. Four deletes, two inserts, all or
// nothing.
func (r *mongoRelationRepository) ReplacePair(ctx context.Context, sourceID, targetID primitive.ObjectID, relType domain.RelationType, provenance domain.RelationProvenance) error {
	if sourceID == primitive.NilObjectID || targetID == primitive.NilObjectID {
		return errors.New("source and target IDs are required")
	}
	if sourceID == targetID {
		return errors.New("an exercise cannot relate to itself")
	}

	inverse := relType.Inverse()

	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// Retire the source's old forward edge and the old target's
		// inverse back-reference.
		var old domain.RelationEdge
		findErr := r.collection.FindOne(sc, bson.M{"sourceId": sourceID, "type": relType}).Decode(&old)
		if findErr == nil {
			if _, err := r.collection.DeleteOne(sc, bson.M{"_id": old.ID}); err != nil {
				return nil, err
			}
			if _, err := r.collection.DeleteOne(sc, bson.M{"sourceId": old.TargetID, "targetId": sourceID, "type": inverse}); err != nil {
				return nil, err
			}
		} else if !errors.Is(findErr, mongo.ErrNoDocuments) {
			return nil, findErr
		}

		// Retire whatever previously occupied the target's inverse
		// slot, including that edge's counterpart forward edge.
		var displaced domain.RelationEdge
		findErr = r.collection.FindOne(sc, bson.M{"sourceId": targetID, "type": inverse}).Decode(&displaced)
		if findErr == nil {
			if _, err := r.collection.DeleteOne(sc, bson.M{"_id": displaced.ID}); err != nil {
				return nil, err
			}
			if _, err := r.collection.DeleteOne(sc, bson.M{"sourceId": displaced.TargetID, "targetId": targetID, "type": relType}); err != nil {
				return nil, err
			}
		} else if !errors.Is(findErr, mongo.ErrNoDocuments) {
			return nil, findErr
		}

		now := time.Now().UTC()
		forward := domain.RelationEdge{
			ID:         primitive.NewObjectID(),
			SourceID:   sourceID,
			TargetID:   targetID,
			Type:       relType,
			Provenance: provenance,
			Confirmed:  provenance == domain.ProvenanceHuman,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		back := domain.RelationEdge{
			ID:         primitive.NewObjectID(),
			SourceID:   targetID,
			TargetID:   sourceID,
			Type:       inverse,
			Provenance: provenance,
			Confirmed:  provenance == domain.ProvenanceHuman,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if _, err := r.collection.InsertMany(sc, []interface{}{forward, back}); err != nil {
			return nil, err
		}
		return nil, nil
	})

	return err
}

// RemovePair deletes the source's slot of the given type along with the
// target's inverse edge.
func (r *mongoRelationRepository) RemovePair(ctx context.Context, sourceID primitive.ObjectID, relType domain.RelationType) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var edge domain.RelationEdge
		findErr := r.collection.FindOne(sc, bson.M{"sourceId": sourceID, "type": relType}).Decode(&edge)
		if findErr != nil {
			if errors.Is(findErr, mongo.ErrNoDocuments) {
				return nil, repository.ErrNotFound
			}
			return nil, findErr
		}

		if _, err := r.collection.DeleteOne(sc, bson.M{"_id": edge.ID}); err != nil {
			return nil, err
		}
		if _, err := r.collection.DeleteOne(sc, bson.M{"sourceId": edge.TargetID, "targetId": sourceID, "type": relType.Inverse()}); err != nil {
			return nil, err
		}
		return nil, nil
	})

	return err
}

// DeleteAllFor removes every edge where the exercise is source or target.
func (r *mongoRelationRepository) DeleteAllFor(ctx context.Context, exerciseID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{
		"$or": []bson.M{
			{"sourceId": exerciseID},
			{"targetId": exerciseID},
		},
	})
	return err
}

// EnsureRelationIndexes creates necessary indexes for the relations collection.
func EnsureRelationIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Single slot per (exercise, type)
			Keys:    bson.D{{Key: "sourceId", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "targetId", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
