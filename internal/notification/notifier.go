// Package notification persists workflow messages so authors can
// retrieve reviewer feedback after the fact. Delivery channels beyond
// the in-app inbox (email, push) hang off the same records.
package notification

import (
	"context"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InboxNotifier satisfies service.Notifier by writing notification
// records through the repository.
type InboxNotifier struct {
	repo repository.NotificationRepository
}

// NewInboxNotifier creates a notifier backed by the notifications collection.
func NewInboxNotifier(repo repository.NotificationRepository) *InboxNotifier {
	return &InboxNotifier{repo: repo}
}

// Notify records one workflow message for the recipient.
func (n *InboxNotifier) Notify(ctx context.Context, recipientID, exerciseID primitive.ObjectID, event, message string) error {
	_, err := n.repo.Create(ctx, &domain.Notification{
		RecipientID: recipientID,
		ExerciseID:  exerciseID,
		Event:       event,
		Message:     message,
	})
	return err
}
