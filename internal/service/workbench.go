package service

import (
	"context"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/optimistic"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// graphSnapshot is the workbench's local view of every relation slot it
// has touched. Mutations stage a full next-snapshot so a failed write
// rolls back the source's forward slot and the displaced target's
// inverse slot together; a rollback that only undid the forward edge
// would leave the local graph asymmetric.
type graphSnapshot map[primitive.ObjectID]domain.RelationPair

func (s graphSnapshot) clone() graphSnapshot {
	next := make(graphSnapshot, len(s))
	for id, pair := range s {
		next[id] = pair
	}
	return next
}

// Workbench is one reviewer-and-record editing session. Every editable
// value gets its own optimistic field, so a save in flight on one field
// never blocks edits on another; relation mutations share the same
// primitive with a graph snapshot as the value.
type Workbench struct {
	actor      Actor
	exerciseID primitive.ObjectID

	exercises ExerciseService
	graph     RelationGraph

	fieldOpts []optimistic.Option[interface{}]
	fields    map[string]*optimistic.Field[interface{}]

	edgeCache graphSnapshot
	edgeField *optimistic.Field[graphSnapshot]
	// pendingEdgeOp carries the server mutation for the edge commit in
	// flight; commits are serialized by the field itself.
	pendingEdgeOp func(ctx context.Context) (string, error)
	lastWarning   string
}

// NewWorkbench opens an editing session for one exercise.
func NewWorkbench(actor Actor, exerciseID primitive.ObjectID, exercises ExerciseService, graph RelationGraph, opts ...optimistic.Option[interface{}]) *Workbench {
	w := &Workbench{
		actor:      actor,
		exerciseID: exerciseID,
		exercises:  exercises,
		graph:      graph,
		fieldOpts:  opts,
		fields:     make(map[string]*optimistic.Field[interface{}]),
		edgeCache:  make(graphSnapshot),
	}
	w.edgeField = optimistic.New(func(ctx context.Context, _ graphSnapshot) error {
		warning, err := w.pendingEdgeOp(ctx)
		if err == nil {
			w.lastWarning = warning
		}
		return err
	})
	return w
}

// Field returns the optimistic field bound to one editable value,
// creating it on first use. Its persist function runs the edit guard
// and writes that single field, nothing else.
func (w *Workbench) Field(name string) *optimistic.Field[interface{}] {
	if f, ok := w.fields[name]; ok {
		return f
	}
	f := optimistic.New(func(ctx context.Context, value interface{}) error {
		return w.exercises.CommitField(ctx, w.actor, w.exerciseID, name, value)
	}, w.fieldOpts...)
	w.fields[name] = f
	return f
}

// Edges returns the session's view of an exercise's slots, loading them
// on first access.
func (w *Workbench) Edges(ctx context.Context, exerciseID primitive.ObjectID) (domain.RelationPair, error) {
	if pair, ok := w.edgeCache[exerciseID]; ok {
		return pair, nil
	}
	pair, err := w.graph.GetEdges(ctx, exerciseID)
	if err != nil {
		return domain.RelationPair{}, err
	}
	w.edgeCache[exerciseID] = pair
	return pair, nil
}

// SetRelation links the session's exercise to target. The local view
// updates optimistically; if the server-side transaction fails, every
// touched slot reverts to the pre-call snapshot, so the caller never
// sees a half-edge. Returns the difficulty warning, if any.
func (w *Workbench) SetRelation(ctx context.Context, targetID primitive.ObjectID, relType domain.RelationType) (string, error) {
	if _, err := w.Edges(ctx, w.exerciseID); err != nil {
		return "", err
	}
	if _, err := w.Edges(ctx, targetID); err != nil {
		return "", err
	}

	next := w.edgeCache.clone()
	now := domain.RelationEdge{
		SourceID:   w.exerciseID,
		TargetID:   targetID,
		Type:       relType,
		Provenance: domain.ProvenanceHuman,
		Confirmed:  true,
	}
	back := domain.RelationEdge{
		SourceID:   targetID,
		TargetID:   w.exerciseID,
		Type:       relType.Inverse(),
		Provenance: domain.ProvenanceHuman,
		Confirmed:  true,
	}

	// Retire the source's old forward edge and its inverse.
	if old := next[w.exerciseID].Slot(relType); old != nil {
		w.clearSlot(next, old.TargetID, relType.Inverse())
	}
	// Retire whatever held the target's inverse slot, and that edge's
	// own forward counterpart.
	if displaced := next[targetID].Slot(relType.Inverse()); displaced != nil {
		w.clearSlot(next, displaced.TargetID, relType)
	}
	w.setSlot(next, w.exerciseID, relType, &now)
	w.setSlot(next, targetID, relType.Inverse(), &back)

	w.pendingEdgeOp = func(ctx context.Context) (string, error) {
		return w.graph.SetRelation(ctx, w.exerciseID, targetID, relType, domain.ProvenanceHuman)
	}
	w.edgeField.BeginEdit(w.edgeCache)
	w.edgeField.UpdateDraft(next)
	err := w.edgeField.Commit(ctx)

	// Whatever the outcome, the field's value is the consistent view:
	// the new snapshot on success, the pre-call snapshot on rollback.
	w.edgeCache = w.edgeField.Value()
	if err != nil {
		return "", err
	}
	return w.lastWarning, nil
}

// RemoveRelation unlinks the slot and its inverse, optimistically.
func (w *Workbench) RemoveRelation(ctx context.Context, relType domain.RelationType) error {
	pair, err := w.Edges(ctx, w.exerciseID)
	if err != nil {
		return err
	}
	edge := pair.Slot(relType)
	if edge == nil {
		return nil
	}

	next := w.edgeCache.clone()
	w.setSlot(next, w.exerciseID, relType, nil)
	w.clearSlot(next, edge.TargetID, relType.Inverse())

	w.pendingEdgeOp = func(ctx context.Context) (string, error) {
		return "", w.graph.RemoveRelation(ctx, w.exerciseID, relType)
	}
	w.edgeField.BeginEdit(w.edgeCache)
	w.edgeField.UpdateDraft(next)
	err = w.edgeField.Commit(ctx)

	w.edgeCache = w.edgeField.Value()
	return err
}

func (w *Workbench) setSlot(snap graphSnapshot, id primitive.ObjectID, relType domain.RelationType, edge *domain.RelationEdge) {
	pair := snap[id]
	if relType == domain.RelationRegression {
		pair.Regression = edge
	} else {
		pair.Progression = edge
	}
	snap[id] = pair
}

// clearSlot drops an edge from the local view when its owner is cached;
// uncached owners are simply refetched on next access.
func (w *Workbench) clearSlot(snap graphSnapshot, id primitive.ObjectID, relType domain.RelationType) {
	if _, ok := snap[id]; !ok {
		return
	}
	w.setSlot(snap, id, relType, nil)
}
