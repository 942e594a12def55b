package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/store"
	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	ToggleLike(ctx context.Context, postID, username string) (bool, error)
	GetLikes(ctx context.Context) []models.Like
	GetPostLikes(ctx context.Context, postID string) []models.Like
	IsPostLiked(ctx context.Context, postID, username string) bool
	RemoveByPost(ctx context.Context, postID string) (int, error)
}

// CollectionLikeRepository implements LikeRepository over the likes collection
type CollectionLikeRepository struct {
	likes *store.Collection[models.Like]
	ids   *models.IDGenerator
}

// NewCollectionLikeRepository creates a new CollectionLikeRepository
func NewCollectionLikeRepository(s *store.Store, ids *models.IDGenerator) *CollectionLikeRepository {
	return &CollectionLikeRepository{
		likes: store.NewCollection[models.Like](s, store.KeyLikes),
		ids:   ids,
	}
}

// Key returns the storage key of the likes collection
func (r *CollectionLikeRepository) Key() string {
	return r.likes.Key()
}

// ToggleLike likes postID for username, or removes the like when one exists.
// It returns whether the post is liked afterwards.
func (r *CollectionLikeRepository) ToggleLike(ctx context.Context, postID, username string) (bool, error) {
	if postID == "" || username == "" {
		return false, apperrors.New(apperrors.ErrCodeValidation, "postId and username are required")
	}

	liked := false
	err := r.likes.Mutate(ctx, func(likes []models.Like) ([]models.Like, error) {
		kept, removed := without(likes, func(l models.Like) bool {
			return l.PostID == postID && l.Username == username
		})
		if removed > 0 {
			liked = false
			return kept, nil
		}

		like := models.Like{PostID: postID, Username: username}
		like.ID, like.Timestamp = r.ids.Next()
		liked = true
		return append(likes, like), nil
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

// GetLikes retrieves every like in insertion order
func (r *CollectionLikeRepository) GetLikes(ctx context.Context) []models.Like {
	return r.likes.All(ctx)
}

// GetPostLikes retrieves the likes on postID
func (r *CollectionLikeRepository) GetPostLikes(ctx context.Context, postID string) []models.Like {
	matched := []models.Like{}
	for _, l := range r.likes.All(ctx) {
		if l.PostID == postID {
			matched = append(matched, l)
		}
	}
	return matched
}

// IsPostLiked reports whether username likes postID
func (r *CollectionLikeRepository) IsPostLiked(ctx context.Context, postID, username string) bool {
	for _, l := range r.likes.All(ctx) {
		if l.PostID == postID && l.Username == username {
			return true
		}
	}
	return false
}

// RemoveByPost removes every like on postID and reports how many were removed
func (r *CollectionLikeRepository) RemoveByPost(ctx context.Context, postID string) (int, error) {
	return removeWhere(ctx, r.likes, func(l models.Like) bool { return l.PostID == postID })
}
