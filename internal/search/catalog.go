// Package search maintains the shared-catalog index that the patient
// and clinician apps query. Published exercises are mirrored into a
// dedicated collection with a text index; unpublishing removes them.
package search

import (
	"context"
	"time"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const catalogCollectionName = "catalog"

// catalogEntry is the denormalized, searchable projection of a
// published exercise.
type catalogEntry struct {
	ExerciseID         primitive.ObjectID  `bson:"_id"`
	Name               string              `bson:"name"`
	PatientDescription string              `bson:"patientDescription,omitempty"`
	Type               domain.ExerciseType `bson:"type,omitempty"`
	Difficulty         domain.Difficulty   `bson:"difficulty,omitempty"`
	Tags               []string            `bson:"tags,omitempty"`
	IndexedAt          time.Time           `bson:"indexedAt"`
}

// CatalogIndex implements service.CatalogIndexer on MongoDB.
type CatalogIndex struct {
	collection *mongo.Collection
}

// NewCatalogIndex creates the index over the catalog collection.
func NewCatalogIndex(db *mongo.Database) *CatalogIndex {
	return &CatalogIndex{collection: db.Collection(catalogCollectionName)}
}

// Index upserts the exercise's catalog entry.
func (c *CatalogIndex) Index(ctx context.Context, ex *domain.Exercise) error {
	tags := make([]string, 0, len(ex.MainTags)+len(ex.AdditionalTags))
	tags = append(tags, ex.MainTags...)
	tags = append(tags, ex.AdditionalTags...)

	entry := catalogEntry{
		ExerciseID:         ex.ID,
		Name:               ex.Name,
		PatientDescription: ex.PatientDescription,
		Type:               ex.Type,
		Difficulty:         ex.Difficulty,
		Tags:               tags,
		IndexedAt:          time.Now().UTC(),
	}

	opts := options.Replace().SetUpsert(true)
	_, err := c.collection.ReplaceOne(ctx, bson.M{"_id": ex.ID}, entry, opts)
	return err
}

// Remove drops the exercise from the catalog.
func (c *CatalogIndex) Remove(ctx context.Context, exerciseID primitive.ObjectID) error {
	_, err := c.collection.DeleteOne(ctx, bson.M{"_id": exerciseID})
	return err
}

// Search runs a text query over the catalog, best matches first.
func (c *CatalogIndex) Search(ctx context.Context, query string, limit int64) ([]domain.Exercise, error) {
	if limit <= 0 {
		limit = 25
	}

	filter := bson.M{"$text": bson.M{"$search": query}}
	findOptions := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(limit)

	cursor, err := c.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []catalogEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}

	results := make([]domain.Exercise, 0, len(entries))
	for _, e := range entries {
		results = append(results, domain.Exercise{
			ID:                 e.ExerciseID,
			Name:               e.Name,
			PatientDescription: e.PatientDescription,
			Type:               e.Type,
			Difficulty:         e.Difficulty,
			MainTags:           e.Tags,
			Status:             domain.StatusPublished,
			Scope:              domain.ScopeGlobal,
		})
	}
	return results, nil
}

// EnsureCatalogIndexes creates the text index backing Search.
func EnsureCatalogIndexes(ctx context.Context, db *mongo.Database) {
	collection := db.Collection(catalogCollectionName)
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "patientDescription", Value: "text"},
				{Key: "tags", Value: "text"},
			},
			Options: options.Index().SetName("catalog_text_search"),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
