package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/store"
	"github.com/anonto42/nano-midea/localstore/pkg/logger"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, id string) *models.Post
	GetPosts(ctx context.Context) []models.Post
	GetPostsByUsername(ctx context.Context, username string) []models.Post
	DeletePost(ctx context.Context, id, owner string) (bool, error)
}

// PostDependent is a collection holding records that reference posts
type PostDependent interface {
	Key() string
	RemoveByPost(ctx context.Context, postID string) (int, error)
}

// CollectionPostRepository implements PostRepository over the posts collection
type CollectionPostRepository struct {
	store      *store.Store
	posts      *store.Collection[models.Post]
	ids        *models.IDGenerator
	policy     models.CascadePolicy
	dependents []PostDependent
}

// NewCollectionPostRepository creates a new CollectionPostRepository. Dependents
// are only consulted when policy is CascadeDelete.
func NewCollectionPostRepository(s *store.Store, ids *models.IDGenerator, policy models.CascadePolicy, dependents ...PostDependent) *CollectionPostRepository {
	if !policy.Valid() {
		policy = models.CascadePreserve
	}
	return &CollectionPostRepository{
		store:      s,
		posts:      store.NewCollection[models.Post](s, store.KeyPosts),
		ids:        ids,
		policy:     policy,
		dependents: dependents,
	}
}

// CreatePost stamps id and timestamp on post and appends it
func (r *CollectionPostRepository) CreatePost(ctx context.Context, post models.Post) (*models.Post, error) {
	if err := models.Validate(post); err != nil {
		return nil, err
	}
	post.ID, post.Timestamp = r.ids.Next()
	if post.Images == nil {
		post.Images = []string{}
	}

	err := r.posts.Mutate(ctx, func(posts []models.Post) ([]models.Post, error) {
		return append(posts, post), nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostByID retrieves a post by ID, or nil when there is none
func (r *CollectionPostRepository) GetPostByID(ctx context.Context, id string) *models.Post {
	for _, p := range r.posts.All(ctx) {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// GetPosts retrieves every post, newest first
func (r *CollectionPostRepository) GetPosts(ctx context.Context) []models.Post {
	return newestFirst(r.posts.All(ctx), postTime)
}

// GetPostsByUsername retrieves the posts owned by username, newest first
func (r *CollectionPostRepository) GetPostsByUsername(ctx context.Context, username string) []models.Post {
	owned := []models.Post{}
	for _, p := range r.posts.All(ctx) {
		if p.Username == username {
			owned = append(owned, p)
		}
	}
	return newestFirst(owned, postTime)
}

// DeletePost removes post id when owner owns it. It reports false without
// writing when the post is missing or owned by someone else.
func (r *CollectionPostRepository) DeletePost(ctx context.Context, id, owner string) (bool, error) {
	keys := []string{store.KeyPosts}
	if r.policy == models.CascadeDelete {
		for _, d := range r.dependents {
			keys = append(keys, d.Key())
		}
	}

	deleted := false
	err := r.store.Atomically(ctx, keys, func(ctx context.Context) error {
		err := r.posts.Mutate(ctx, func(posts []models.Post) ([]models.Post, error) {
			for i, p := range posts {
				if p.ID == id && p.Username == owner {
					deleted = true
					return append(posts[:i], posts[i+1:]...), nil
				}
			}
			return nil, store.ErrUnchanged
		})
		if err != nil || !deleted || r.policy != models.CascadeDelete {
			return err
		}

		for _, d := range r.dependents {
			n, err := d.RemoveByPost(ctx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Debug("cascade removed post dependents", "post_id", id, "collection", d.Key(), "removed", n)
			}
		}
		return nil
	})
	return deleted, err
}

func postTime(p models.Post) time.Time { return p.Timestamp }
