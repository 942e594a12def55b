package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/store"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	SaveUser(ctx context.Context, user models.User) (*models.User, error)
	GetUsers(ctx context.Context) []models.User
	GetUserByUsername(ctx context.Context, username string) *models.User
	GetUserByEmail(ctx context.Context, email string) *models.User
	SearchUsers(ctx context.Context, query string) []models.User
	UpdateUser(ctx context.Context, username string, patch models.UserPatch) (*models.User, error)
	Befriend(ctx context.Context, a, b string) error
	GetCurrentUser(ctx context.Context) *models.User
	SetCurrentUser(ctx context.Context, user *models.User) error
	UpdateCurrentUser(ctx context.Context, patch models.UserPatch) (*models.User, error)
	ClearCurrentUser(ctx context.Context) error
}

// CollectionUserRepository implements UserRepository over the users collection
// and the currentUser session pointer
type CollectionUserRepository struct {
	store   *store.Store
	users   *store.Collection[models.User]
	current *store.Record[models.User]
}

// NewCollectionUserRepository creates a new CollectionUserRepository
func NewCollectionUserRepository(s *store.Store) *CollectionUserRepository {
	return &CollectionUserRepository{
		store:   s,
		users:   store.NewCollection[models.User](s, store.KeyUsers),
		current: store.NewRecord[models.User](s, store.KeyCurrentUser),
	}
}

// SaveUser upserts user by username, shallow-merging its non-zero fields over
// any existing record, and points the session at the result
func (r *CollectionUserRepository) SaveUser(ctx context.Context, user models.User) (*models.User, error) {
	if err := models.Validate(user); err != nil {
		return nil, err
	}

	var saved models.User
	err := r.store.Atomically(ctx, []string{store.KeyUsers, store.KeyCurrentUser}, func(ctx context.Context) error {
		err := r.users.Mutate(ctx, func(users []models.User) ([]models.User, error) {
			for i := range users {
				if users[i].Username == user.Username {
					users[i] = users[i].Merge(user)
					saved = users[i]
					return users, nil
				}
			}
			saved = user
			if saved.Friends == nil {
				saved.Friends = []string{}
			}
			return append(users, saved), nil
		})
		if err != nil {
			return err
		}
		return r.current.Put(ctx, &saved)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetUsers retrieves all users in registration order
func (r *CollectionUserRepository) GetUsers(ctx context.Context) []models.User {
	return r.users.All(ctx)
}

// GetUserByUsername retrieves a user by username, or nil when there is none
func (r *CollectionUserRepository) GetUserByUsername(ctx context.Context, username string) *models.User {
	for _, u := range r.users.All(ctx) {
		if u.Username == username {
			return &u
		}
	}
	return nil
}

// GetUserByEmail retrieves a user by email, ignoring case
func (r *CollectionUserRepository) GetUserByEmail(ctx context.Context, email string) *models.User {
	if email == "" {
		return nil
	}
	for _, u := range r.users.All(ctx) {
		if strings.EqualFold(u.Email, email) {
			return &u
		}
	}
	return nil
}

// SearchUsers matches query case-insensitively against username and display name
func (r *CollectionUserRepository) SearchUsers(ctx context.Context, query string) []models.User {
	q := strings.ToLower(strings.TrimSpace(query))
	matches := []models.User{}
	if q == "" {
		return matches
	}
	for _, u := range r.users.All(ctx) {
		if strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.DisplayName), q) {
			matches = append(matches, u)
		}
	}
	return matches
}

// UpdateUser applies patch to the stored user. It returns nil without writing
// when the user does not exist. The session pointer follows the update when it
// refers to the same user.
func (r *CollectionUserRepository) UpdateUser(ctx context.Context, username string, patch models.UserPatch) (*models.User, error) {
	if err := models.Validate(patch); err != nil {
		return nil, err
	}

	var updated *models.User
	err := r.store.Atomically(ctx, []string{store.KeyUsers, store.KeyCurrentUser}, func(ctx context.Context) error {
		err := r.users.Mutate(ctx, func(users []models.User) ([]models.User, error) {
			for i := range users {
				if users[i].Username == username {
					users[i] = users[i].Apply(patch)
					u := users[i]
					updated = &u
					return users, nil
				}
			}
			return nil, store.ErrUnchanged
		})
		if err != nil || updated == nil {
			return err
		}
		if current := r.current.Get(ctx); current != nil && current.Username == username {
			return r.current.Put(ctx, updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Befriend adds a and b to each other's friends lists. Nothing is written
// unless both users exist. The session pointer is refreshed when it refers to
// either party.
func (r *CollectionUserRepository) Befriend(ctx context.Context, a, b string) error {
	return r.store.Atomically(ctx, []string{store.KeyUsers, store.KeyCurrentUser}, func(ctx context.Context) error {
		var updated []models.User
		err := r.users.Mutate(ctx, func(users []models.User) ([]models.User, error) {
			ia, ib := -1, -1
			for i := range users {
				switch users[i].Username {
				case a:
					if ia < 0 {
						ia = i
					}
				case b:
					if ib < 0 {
						ib = i
					}
				}
			}
			if ia < 0 || ib < 0 {
				return nil, store.ErrUnchanged
			}

			changed := false
			for _, pair := range [][2]int{{ia, ib}, {ib, ia}} {
				u, other := &users[pair[0]], users[pair[1]].Username
				if !u.HasFriend(other) {
					u.Friends = append(u.Friends, other)
					changed = true
				}
				updated = append(updated, *u)
			}
			if !changed {
				return nil, store.ErrUnchanged
			}
			return users, nil
		})
		if err != nil {
			return err
		}

		current := r.current.Get(ctx)
		if current == nil {
			return nil
		}
		for _, u := range updated {
			if u.Username == current.Username {
				return r.current.Put(ctx, &u)
			}
		}
		return nil
	})
}

// GetCurrentUser retrieves the session user, or nil when nobody is signed in
func (r *CollectionUserRepository) GetCurrentUser(ctx context.Context) *models.User {
	return r.current.Get(ctx)
}

// SetCurrentUser points the session at user without touching the users collection
func (r *CollectionUserRepository) SetCurrentUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return r.ClearCurrentUser(ctx)
	}
	return r.current.Put(ctx, user)
}

// UpdateCurrentUser applies patch to the session user and upserts the result.
// It returns nil without writing when nobody is signed in.
func (r *CollectionUserRepository) UpdateCurrentUser(ctx context.Context, patch models.UserPatch) (*models.User, error) {
	if err := models.Validate(patch); err != nil {
		return nil, err
	}

	var saved *models.User
	err := r.store.Atomically(ctx, []string{store.KeyUsers, store.KeyCurrentUser}, func(ctx context.Context) error {
		current := r.current.Get(ctx)
		if current == nil {
			return nil
		}
		updated := current.Apply(patch)

		err := r.users.Mutate(ctx, func(users []models.User) ([]models.User, error) {
			for i := range users {
				if users[i].Username == updated.Username {
					users[i] = users[i].Apply(patch)
					updated = users[i]
					return users, nil
				}
			}
			if updated.Friends == nil {
				updated.Friends = []string{}
			}
			return append(users, updated), nil
		})
		if err != nil {
			return err
		}
		if err := r.current.Put(ctx, &updated); err != nil {
			return err
		}
		saved = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ClearCurrentUser signs the session user out
func (r *CollectionUserRepository) ClearCurrentUser(ctx context.Context) error {
	return r.store.Atomically(ctx, []string{store.KeyCurrentUser}, func(ctx context.Context) error {
		return r.current.Remove(ctx)
	})
}
