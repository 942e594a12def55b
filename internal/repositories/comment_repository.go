package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/store"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	AddComment(ctx context.Context, postID, username, text string) (*models.Comment, error)
	GetComments(ctx context.Context) []models.Comment
	GetPostComments(ctx context.Context, postID string) []models.Comment
	GetCommentByID(ctx context.Context, id string) *models.Comment
	DeleteComment(ctx context.Context, id string) error
	DeleteCommentBy(ctx context.Context, id, author string) (bool, error)
	RemoveByPost(ctx context.Context, postID string) (int, error)
}

// CollectionCommentRepository implements CommentRepository over the comments collection
type CollectionCommentRepository struct {
	comments *store.Collection[models.Comment]
	ids      *models.IDGenerator
}

// NewCollectionCommentRepository creates a new CollectionCommentRepository
func NewCollectionCommentRepository(s *store.Store, ids *models.IDGenerator) *CollectionCommentRepository {
	return &CollectionCommentRepository{
		comments: store.NewCollection[models.Comment](s, store.KeyComments),
		ids:      ids,
	}
}

// Key returns the storage key of the comments collection
func (r *CollectionCommentRepository) Key() string {
	return r.comments.Key()
}

// AddComment appends a comment by username on postID
func (r *CollectionCommentRepository) AddComment(ctx context.Context, postID, username, text string) (*models.Comment, error) {
	comment := models.Comment{PostID: postID, Username: username, Text: text}
	if err := models.Validate(comment); err != nil {
		return nil, err
	}
	comment.ID, comment.Timestamp = r.ids.Next()

	err := r.comments.Mutate(ctx, func(comments []models.Comment) ([]models.Comment, error) {
		return append(comments, comment), nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetComments retrieves every comment in insertion order
func (r *CollectionCommentRepository) GetComments(ctx context.Context) []models.Comment {
	return r.comments.All(ctx)
}

// GetPostComments retrieves the comments on postID, newest first
func (r *CollectionCommentRepository) GetPostComments(ctx context.Context, postID string) []models.Comment {
	matched := []models.Comment{}
	for _, c := range r.comments.All(ctx) {
		if c.PostID == postID {
			matched = append(matched, c)
		}
	}
	return newestFirst(matched, func(c models.Comment) time.Time { return c.Timestamp })
}

// GetCommentByID retrieves a comment by ID, or nil when there is none
func (r *CollectionCommentRepository) GetCommentByID(ctx context.Context, id string) *models.Comment {
	for _, c := range r.comments.All(ctx) {
		if c.ID == id {
			return &c
		}
	}
	return nil
}

// DeleteComment removes comment id regardless of author. Unknown ids are a no-op.
func (r *CollectionCommentRepository) DeleteComment(ctx context.Context, id string) error {
	return r.comments.Mutate(ctx, func(comments []models.Comment) ([]models.Comment, error) {
		kept, removed := without(comments, func(c models.Comment) bool { return c.ID == id })
		if removed == 0 {
			return nil, store.ErrUnchanged
		}
		return kept, nil
	})
}

// DeleteCommentBy removes comment id only when author wrote it
func (r *CollectionCommentRepository) DeleteCommentBy(ctx context.Context, id, author string) (bool, error) {
	deleted := false
	err := r.comments.Mutate(ctx, func(comments []models.Comment) ([]models.Comment, error) {
		kept, removed := without(comments, func(c models.Comment) bool { return c.ID == id && c.Username == author })
		if removed == 0 {
			return nil, store.ErrUnchanged
		}
		deleted = true
		return kept, nil
	})
	return deleted, err
}

// RemoveByPost removes every comment on postID and reports how many were removed
func (r *CollectionCommentRepository) RemoveByPost(ctx context.Context, postID string) (int, error) {
	return removeWhere(ctx, r.comments, func(c models.Comment) bool { return c.PostID == postID })
}
