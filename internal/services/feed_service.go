package services

import (
	"context"
	"strings"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/repositories"
	"github.com/anonto42/nano-midea/localstore/internal/security"
	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
	"github.com/anonto42/nano-midea/localstore/pkg/logger"
)

// FeedService handles posts and the likes and comments on them
type FeedService struct {
	posts         repositories.PostRepository
	comments      repositories.CommentRepository
	likes         repositories.LikeRepository
	notifications repositories.NotificationRepository
	sanitizer     security.Sanitizer
}

// NewFeedService creates a new FeedService
func NewFeedService(posts repositories.PostRepository, comments repositories.CommentRepository, likes repositories.LikeRepository, notifications repositories.NotificationRepository, sanitizer security.Sanitizer) *FeedService {
	return &FeedService{
		posts:         posts,
		comments:      comments,
		likes:         likes,
		notifications: notifications,
		sanitizer:     sanitizer,
	}
}

// CreatePost publishes a post owned by the session user
func (s *FeedService) CreatePost(ctx context.Context, session *models.Session, images []string, caption string) (*models.Post, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			kept = append(kept, img)
		}
	}

	post, err := s.posts.CreatePost(ctx, models.Post{
		Username: session.Username,
		Images:   kept,
		Caption:  s.sanitizer.Clean(caption),
	})
	if err != nil {
		return nil, err
	}
	logger.Info("post created", "post_id", post.ID, "username", post.Username)
	return post, nil
}

// DeletePost removes a post owned by the session user. Posts owned by others are left alone.
func (s *FeedService) DeletePost(ctx context.Context, session *models.Session, id string) (bool, error) {
	if err := requireSession(session); err != nil {
		return false, err
	}
	return s.posts.DeletePost(ctx, id, session.Username)
}

// Feed lists every post, newest first
func (s *FeedService) Feed(ctx context.Context) []models.Post {
	return s.posts.GetPosts(ctx)
}

// UserPosts lists the posts of username, newest first
func (s *FeedService) UserPosts(ctx context.Context, username string) []models.Post {
	return s.posts.GetPostsByUsername(ctx, username)
}

// PostStats counts the likes and comments on postID and whether viewer liked it
func (s *FeedService) PostStats(ctx context.Context, postID, viewer string) models.PostStats {
	return models.PostStats{
		PostID:       postID,
		LikeCount:    len(s.likes.GetPostLikes(ctx, postID)),
		CommentCount: len(s.comments.GetPostComments(ctx, postID)),
		LikedByMe:    viewer != "" && s.likes.IsPostLiked(ctx, postID, viewer),
	}
}

// ToggleLike flips the session user's like on postID and returns whether the
// post is now liked. The owner is notified when someone else likes the post.
func (s *FeedService) ToggleLike(ctx context.Context, session *models.Session, postID string) (bool, error) {
	if err := requireSession(session); err != nil {
		return false, err
	}
	post := s.posts.GetPostByID(ctx, postID)
	if post == nil {
		return false, apperrors.New(apperrors.ErrCodeNotFound, "post not found")
	}

	liked, err := s.likes.ToggleLike(ctx, postID, session.Username)
	if err != nil {
		return false, err
	}
	if liked && post.Username != session.Username {
		if _, err := s.notifications.AddNotification(ctx, models.NewLikeNotification(session.Username, *post)); err != nil {
			return liked, err
		}
	}
	return liked, nil
}

// PostComments lists the comments on postID, newest first
func (s *FeedService) PostComments(ctx context.Context, postID string) []models.Comment {
	return s.comments.GetPostComments(ctx, postID)
}

// AddComment comments on postID as the session user and notifies the post's
// owner when it is someone else
func (s *FeedService) AddComment(ctx context.Context, session *models.Session, postID, text string) (*models.Comment, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	post := s.posts.GetPostByID(ctx, postID)
	if post == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "post not found")
	}

	comment, err := s.comments.AddComment(ctx, postID, session.Username, s.sanitizer.Clean(text))
	if err != nil {
		return nil, err
	}
	if post.Username != session.Username {
		if _, err := s.notifications.AddNotification(ctx, models.NewCommentNotification(session.Username, *post)); err != nil {
			return comment, err
		}
	}
	return comment, nil
}

// DeleteComment removes a comment written by the session user
func (s *FeedService) DeleteComment(ctx context.Context, session *models.Session, id string) (bool, error) {
	if err := requireSession(session); err != nil {
		return false, err
	}
	return s.comments.DeleteCommentBy(ctx, id, session.Username)
}
