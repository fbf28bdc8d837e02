package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Service Interface ---

// RelationGraph maintains the progression/regression ladder. Every
// mutation goes through SetRelation/RemoveRelation; nothing else may
// write edges, otherwise two callers could grant two different targets
// the same inverse slot.
type RelationGraph interface {
	GetEdges(ctx context.Context, exerciseID primitive.ObjectID) (domain.RelationPair, error)
	// SetRelation links source to target and returns a difficulty
	// warning when the soft ordering invariant is violated. The
	// warning never blocks the operation.
	SetRelation(ctx context.Context, sourceID, targetID primitive.ObjectID, relType domain.RelationType, provenance domain.RelationProvenance) (string, error)
	RemoveRelation(ctx context.Context, sourceID primitive.ObjectID, relType domain.RelationType) error
	ValidateDifficulty(source, target *domain.Exercise, relType domain.RelationType) string
}

// --- Service Implementation ---

type relationGraph struct {
	relationRepo repository.RelationRepository
	exerciseRepo repository.ExerciseRepository
}

// NewRelationGraph creates a new instance of relationGraph.
func NewRelationGraph(relationRepo repository.RelationRepository, exerciseRepo repository.ExerciseRepository) RelationGraph {
	return &relationGraph{
		relationRepo: relationRepo,
		exerciseRepo: exerciseRepo,
	}
}

// GetEdges returns the exercise's outgoing slots.
func (s *relationGraph) GetEdges(ctx context.Context, exerciseID primitive.ObjectID) (domain.RelationPair, error) {
	if exerciseID == primitive.NilObjectID {
		return domain.RelationPair{}, errors.New("exercise ID is required")
	}
	return s.relationRepo.GetBySource(ctx, exerciseID)
}

// SetRelation installs (source, relType, target) plus its inverse in
// one server-side transaction. Replacement semantics: each exercise has
// a single slot per relation type, so whatever previously occupied the
// source's forward slot or the target's inverse slot is retired along
// with its counterpart edge.
func (s *relationGraph) SetRelation(ctx context.Context, sourceID, targetID primitive.ObjectID, relType domain.RelationType, provenance domain.RelationProvenance) (string, error) {
	if sourceID == primitive.NilObjectID || targetID == primitive.NilObjectID {
		return "", errors.New("source and target IDs are required")
	}
	if sourceID == targetID {
		return "", ErrSelfRelation
	}

	source, err := s.exerciseRepo.GetByID(ctx, sourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrExerciseNotFound
		}
		return "", err
	}
	target, err := s.exerciseRepo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrExerciseNotFound
		}
		return "", err
	}

	// Guard against a self-contradictory pair: A cannot hold B as both
	// its progression and its regression.
	pair, err := s.relationRepo.GetBySource(ctx, sourceID)
	if err != nil {
		return "", err
	}
	if other := pair.Slot(relType.Inverse()); other != nil && other.TargetID == targetID {
		return "", ErrContradictoryRelation
	}

	if err := s.relationRepo.ReplacePair(ctx, sourceID, targetID, relType, provenance); err != nil {
		return "", err
	}

	// Soft invariant, checked after the successful write: surfaced as a
	// warning badge, never silently corrected.
	return s.ValidateDifficulty(source, target, relType), nil
}

// RemoveRelation clears the slot and its inverse.
func (s *relationGraph) RemoveRelation(ctx context.Context, sourceID primitive.ObjectID, relType domain.RelationType) error {
	if sourceID == primitive.NilObjectID {
		return errors.New("source ID is required")
	}
	return s.relationRepo.RemovePair(ctx, sourceID, relType)
}

// ValidateDifficulty checks the soft ordering invariant: a regression
// target should be strictly easier than the source, a progression
// target strictly harder. Returns a warning string, or "" when the
// ordering holds or either difficulty is unset.
func (s *relationGraph) ValidateDifficulty(source, target *domain.Exercise, relType domain.RelationType) string {
	srcRank := source.Difficulty.Rank()
	tgtRank := target.Difficulty.Rank()
	if srcRank == 0 || tgtRank == 0 {
		return ""
	}

	switch relType {
	case domain.RelationRegression:
		if tgtRank >= srcRank {
			return fmt.Sprintf("regression %q (%s) is not easier than %q (%s)",
				target.Name, target.Difficulty, source.Name, source.Difficulty)
		}
	case domain.RelationProgression:
		if tgtRank <= srcRank {
			return fmt.Sprintf("progression %q (%s) is not harder than %q (%s)",
				target.Name, target.Difficulty, source.Name, source.Difficulty)
		}
	}
	return ""
}
