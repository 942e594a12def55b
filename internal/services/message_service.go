package services

import (
	"context"
	"sort"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/repositories"
	"github.com/anonto42/nano-midea/localstore/internal/security"
	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
)

// MessageService handles direct messages between users
type MessageService struct {
	messages      repositories.MessageRepository
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	sanitizer     security.Sanitizer
}

// NewMessageService creates a new MessageService
func NewMessageService(messages repositories.MessageRepository, users repositories.UserRepository, notifications repositories.NotificationRepository, sanitizer security.Sanitizer) *MessageService {
	return &MessageService{messages: messages, users: users, notifications: notifications, sanitizer: sanitizer}
}

// Send delivers text from the session user to the user named to
func (s *MessageService) Send(ctx context.Context, session *models.Session, to, text string) (*models.Message, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if to == session.Username {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "cannot message yourself")
	}
	if s.users.GetUserByUsername(ctx, to) == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "user "+to+" not found")
	}

	msg, err := s.messages.SendMessage(ctx, session.Username, to, s.sanitizer.Clean(text))
	if err != nil {
		return nil, err
	}
	if _, err := s.notifications.AddNotification(ctx, models.NewMessageNotification(msg.From, msg.To)); err != nil {
		return msg, err
	}
	return msg, nil
}

// OpenConversation marks the messages peer sent to the session user as read
// and returns the whole conversation, oldest first
func (s *MessageService) OpenConversation(ctx context.Context, session *models.Session, peer string) ([]models.Message, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if _, err := s.messages.MarkMessagesAsRead(ctx, peer, session.Username); err != nil {
		return nil, err
	}
	return s.messages.GetConversation(ctx, session.Username, peer), nil
}

// Threads summarizes every conversation of the session user, most recent first
func (s *MessageService) Threads(ctx context.Context, session *models.Session) ([]models.Thread, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	me := session.Username

	byPeer := map[string]*models.Thread{}
	for _, m := range s.messages.GetMessages(ctx) {
		var peer string
		switch me {
		case m.From:
			peer = m.To
		case m.To:
			peer = m.From
		default:
			continue
		}

		t, ok := byPeer[peer]
		if !ok {
			t = &models.Thread{Peer: s.compact(ctx, peer)}
			byPeer[peer] = t
		}
		if !m.Timestamp.Before(t.Timestamp) {
			t.LastMessage = m.Text
			t.LastMessageID = m.ID
			t.Timestamp = m.Timestamp
		}
		if m.From == peer && !m.Read {
			t.UnreadCount++
		}
	}

	threads := make([]models.Thread, 0, len(byPeer))
	for _, t := range byPeer {
		threads = append(threads, *t)
	}
	sort.Slice(threads, func(i, j int) bool {
		if !threads[i].Timestamp.Equal(threads[j].Timestamp) {
			return threads[i].Timestamp.After(threads[j].Timestamp)
		}
		return threads[i].Peer.Username < threads[j].Peer.Username
	})
	return threads, nil
}

// UnreadCount counts the unread messages addressed to the session user
func (s *MessageService) UnreadCount(ctx context.Context, session *models.Session) (int, error) {
	if err := requireSession(session); err != nil {
		return 0, err
	}
	return s.messages.GetUnreadCount(ctx, session.Username), nil
}

func (s *MessageService) compact(ctx context.Context, username string) models.UserCompact {
	if u := s.users.GetUserByUsername(ctx, username); u != nil {
		return u.ToCompact()
	}
	return models.UserCompact{Username: username, DisplayName: username}
}
