package services

import (
	"context"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/repositories"
)

// NotificationService exposes the session user's notifications
type NotificationService struct {
	notifications repositories.NotificationRepository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifications repositories.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns the session user's notifications, most recent first
func (s *NotificationService) List(ctx context.Context, session *models.Session) ([]models.Notification, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	return s.notifications.GetNotificationsFor(ctx, session.Username), nil
}

// MarkRead flags one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.notifications.MarkNotificationAsRead(ctx, id)
}

// MarkAllRead flags every notification addressed to the session user as read
func (s *NotificationService) MarkAllRead(ctx context.Context, session *models.Session) error {
	if err := requireSession(session); err != nil {
		return err
	}
	return s.notifications.MarkAllNotificationsAsReadFor(ctx, session.Username)
}

// UnreadCount counts the session user's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, session *models.Session) (int, error) {
	if err := requireSession(session); err != nil {
		return 0, err
	}
	return s.notifications.GetUnreadNotificationCount(ctx, session.Username)
}
