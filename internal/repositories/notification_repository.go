package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/store"
	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	AddNotification(ctx context.Context, n models.Notification) (*models.Notification, error)
	GetNotifications(ctx context.Context) []models.Notification
	GetNotificationsFor(ctx context.Context, username string) []models.Notification
	MarkNotificationAsRead(ctx context.Context, id string) error
	MarkAllNotificationsAsRead(ctx context.Context) error
	MarkAllNotificationsAsReadFor(ctx context.Context, username string) error
	GetUnreadNotificationCount(ctx context.Context, username string) (int, error)
	RemoveByPost(ctx context.Context, postID string) (int, error)
}

// CollectionNotificationRepository implements NotificationRepository over the
// notifications collection. The array is kept newest first by inserting at the head.
type CollectionNotificationRepository struct {
	notifications *store.Collection[models.Notification]
	ids           *models.IDGenerator
}

// NewCollectionNotificationRepository creates a new CollectionNotificationRepository
func NewCollectionNotificationRepository(s *store.Store, ids *models.IDGenerator) *CollectionNotificationRepository {
	return &CollectionNotificationRepository{
		notifications: store.NewCollection[models.Notification](s, store.KeyNotifications),
		ids:           ids,
	}
}

// Key returns the storage key of the notifications collection
func (r *CollectionNotificationRepository) Key() string {
	return r.notifications.Key()
}

// AddNotification stamps id, timestamp and read=false on n and inserts it at the head
func (r *CollectionNotificationRepository) AddNotification(ctx context.Context, n models.Notification) (*models.Notification, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	n.ID, n.Timestamp = r.ids.Next()
	n.Read = false

	err := r.notifications.Mutate(ctx, func(notifications []models.Notification) ([]models.Notification, error) {
		return append([]models.Notification{n}, notifications...), nil
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNotifications retrieves every notification, most recent first
func (r *CollectionNotificationRepository) GetNotifications(ctx context.Context) []models.Notification {
	return r.notifications.All(ctx)
}

// GetNotificationsFor retrieves the notifications addressed to username, most recent first
func (r *CollectionNotificationRepository) GetNotificationsFor(ctx context.Context, username string) []models.Notification {
	matched := []models.Notification{}
	for _, n := range r.notifications.All(ctx) {
		if n.To == username {
			matched = append(matched, n)
		}
	}
	return matched
}

// MarkNotificationAsRead flags notification id as read. Unknown ids are a no-op.
func (r *CollectionNotificationRepository) MarkNotificationAsRead(ctx context.Context, id string) error {
	return r.markRead(ctx, func(n models.Notification) bool { return n.ID == id })
}

// MarkAllNotificationsAsRead flags every notification in the store as read,
// whoever it is addressed to
func (r *CollectionNotificationRepository) MarkAllNotificationsAsRead(ctx context.Context) error {
	return r.markRead(ctx, func(models.Notification) bool { return true })
}

// MarkAllNotificationsAsReadFor flags the notifications addressed to username as read
func (r *CollectionNotificationRepository) MarkAllNotificationsAsReadFor(ctx context.Context, username string) error {
	if username == "" {
		return apperrors.New(apperrors.ErrCodeValidation, "username is required")
	}
	return r.markRead(ctx, func(n models.Notification) bool { return n.To == username })
}

// GetUnreadNotificationCount counts the unread notifications addressed to username
func (r *CollectionNotificationRepository) GetUnreadNotificationCount(ctx context.Context, username string) (int, error) {
	if username == "" {
		return 0, apperrors.New(apperrors.ErrCodeValidation, "username is required")
	}
	count := 0
	for _, n := range r.notifications.All(ctx) {
		if n.To == username && !n.Read {
			count++
		}
	}
	return count, nil
}

// RemoveByPost removes the notifications that snapshot postID
func (r *CollectionNotificationRepository) RemoveByPost(ctx context.Context, postID string) (int, error) {
	if postID == "" {
		return 0, nil
	}
	return removeWhere(ctx, r.notifications, func(n models.Notification) bool { return n.PostID == postID })
}

func (r *CollectionNotificationRepository) markRead(ctx context.Context, match func(models.Notification) bool) error {
	return r.notifications.Mutate(ctx, func(notifications []models.Notification) ([]models.Notification, error) {
		changed := false
		for i := range notifications {
			if !notifications[i].Read && match(notifications[i]) {
				notifications[i].Read = true
				changed = true
			}
		}
		if !changed {
			return nil, store.ErrUnchanged
		}
		return notifications, nil
	})
}
