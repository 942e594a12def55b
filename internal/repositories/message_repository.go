package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/store"
)

// MessageRepository defines the interface for direct message operations
type MessageRepository interface {
	SendMessage(ctx context.Context, from, to, text string) (*models.Message, error)
	GetMessages(ctx context.Context) []models.Message
	GetConversation(ctx context.Context, a, b string) []models.Message
	MarkMessagesAsRead(ctx context.Context, from, to string) (int, error)
	GetUnreadCount(ctx context.Context, username string) int
}

// CollectionMessageRepository implements MessageRepository over the messages collection
type CollectionMessageRepository struct {
	messages *store.Collection[models.Message]
	ids      *models.IDGenerator
}

// NewCollectionMessageRepository creates a new CollectionMessageRepository
func NewCollectionMessageRepository(s *store.Store, ids *models.IDGenerator) *CollectionMessageRepository {
	return &CollectionMessageRepository{
		messages: store.NewCollection[models.Message](s, store.KeyMessages),
		ids:      ids,
	}
}

// SendMessage appends an unread message from one user to another
func (r *CollectionMessageRepository) SendMessage(ctx context.Context, from, to, text string) (*models.Message, error) {
	msg := models.Message{From: from, To: to, Text: text}
	if err := models.Validate(msg); err != nil {
		return nil, err
	}
	msg.ID, msg.Timestamp = r.ids.Next()

	err := r.messages.Mutate(ctx, func(messages []models.Message) ([]models.Message, error) {
		return append(messages, msg), nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMessages retrieves every message in insertion order
func (r *CollectionMessageRepository) GetMessages(ctx context.Context) []models.Message {
	return r.messages.All(ctx)
}

// GetConversation retrieves the messages exchanged between a and b in either
// direction, oldest first
func (r *CollectionMessageRepository) GetConversation(ctx context.Context, a, b string) []models.Message {
	thread := []models.Message{}
	for _, m := range r.messages.All(ctx) {
		if (m.From == a && m.To == b) || (m.From == b && m.To == a) {
			thread = append(thread, m)
		}
	}
	return oldestFirst(thread, func(m models.Message) time.Time { return m.Timestamp })
}

// MarkMessagesAsRead flags every unread message sent by from to to as read.
// Messages in the opposite direction are left alone.
func (r *CollectionMessageRepository) MarkMessagesAsRead(ctx context.Context, from, to string) (int, error) {
	marked := 0
	err := r.messages.Mutate(ctx, func(messages []models.Message) ([]models.Message, error) {
		marked = 0
		for i := range messages {
			if messages[i].From == from && messages[i].To == to && !messages[i].Read {
				messages[i].Read = true
				marked++
			}
		}
		if marked == 0 {
			return nil, store.ErrUnchanged
		}
		return messages, nil
	})
	if err != nil {
		return 0, err
	}
	return marked, nil
}

// GetUnreadCount counts the unread messages addressed to username
func (r *CollectionMessageRepository) GetUnreadCount(ctx context.Context, username string) int {
	count := 0
	for _, m := range r.messages.All(ctx) {
		if m.To == username && !m.Read {
			count++
		}
	}
	return count
}
