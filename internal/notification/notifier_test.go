package notification

import (
	"context"
	"testing"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryNotificationRepo struct {
	records map[primitive.ObjectID]*domain.Notification
}

func newMemoryNotificationRepo() *memoryNotificationRepo {
	return &memoryNotificationRepo{records: make(map[primitive.ObjectID]*domain.Notification)}
}

func (r *memoryNotificationRepo) Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	n.ID = primitive.NewObjectID()
	stored := *n
	r.records[n.ID] = &stored
	return n.ID, nil
}

func (r *memoryNotificationRepo) GetByRecipient(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range r.records {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (r *memoryNotificationRepo) MarkRead(ctx context.Context, id, recipientID primitive.ObjectID) error {
	n, ok := r.records[id]
	if !ok || n.RecipientID != recipientID {
		return repository.ErrNotFound
	}
	n.Read = true
	return nil
}

func TestNotifyWritesInboxRecord(t *testing.T) {
	repo := newMemoryNotificationRepo()
	notifier := NewInboxNotifier(repo)

	recipient := primitive.NewObjectID()
	exercise := primitive.NewObjectID()
	err := notifier.Notify(context.Background(), recipient, exercise, "request_changes", "Simplify the patient description.")
	require.NoError(t, err)

	inbox, err := repo.GetByRecipient(context.Background(), recipient, true)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, exercise, inbox[0].ExerciseID)
	assert.Equal(t, "request_changes", inbox[0].Event)
	assert.Equal(t, "Simplify the patient description.", inbox[0].Message)
	assert.False(t, inbox[0].Read)
}

func TestNotifyForOtherRecipientStaysOut(t *testing.T) {
	repo := newMemoryNotificationRepo()
	notifier := NewInboxNotifier(repo)

	require.NoError(t, notifier.Notify(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "approve", ""))

	inbox, err := repo.GetByRecipient(context.Background(), primitive.NewObjectID(), false)
	require.NoError(t, err)
	assert.Empty(t, inbox)
}
