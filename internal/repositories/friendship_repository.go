package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/store"
	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
)

// FriendshipRepository defines the interface for friend request operations
type FriendshipRepository interface {
	SendFriendRequest(ctx context.Context, from, to string) (*models.FriendRequest, bool, error)
	GetFriendRequests(ctx context.Context) []models.FriendRequest
	GetFriendRequestByID(ctx context.Context, id string) *models.FriendRequest
	GetPendingRequestsTo(ctx context.Context, username string) []models.FriendRequest
	HasPendingRequest(ctx context.Context, from, to string) bool
	SetStatus(ctx context.Context, id string, status models.FriendRequestStatus) (*models.FriendRequest, error)
	RejectFriendRequest(ctx context.Context, id string) (bool, error)
}

// CollectionFriendshipRepository implements FriendshipRepository over the friendRequests collection
type CollectionFriendshipRepository struct {
	requests *store.Collection[models.FriendRequest]
	ids      *models.IDGenerator
}

// NewCollectionFriendshipRepository creates a new CollectionFriendshipRepository
func NewCollectionFriendshipRepository(s *store.Store, ids *models.IDGenerator) *CollectionFriendshipRepository {
	return &CollectionFriendshipRepository{
		requests: store.NewCollection[models.FriendRequest](s, store.KeyFriendRequests),
		ids:      ids,
	}
}

// SendFriendRequest appends a pending request from -> to. When a pending
// request for the same ordered pair exists it is returned unchanged and the
// second result is false.
func (r *CollectionFriendshipRepository) SendFriendRequest(ctx context.Context, from, to string) (*models.FriendRequest, bool, error) {
	if from == "" || to == "" {
		return nil, false, apperrors.New(apperrors.ErrCodeValidation, "from and to are required")
	}
	if from == to {
		return nil, false, apperrors.New(apperrors.ErrCodeValidation, "cannot send a friend request to yourself")
	}

	var (
		result  models.FriendRequest
		created bool
	)
	err := r.requests.Mutate(ctx, func(requests []models.FriendRequest) ([]models.FriendRequest, error) {
		for _, req := range requests {
			if req.From == from && req.To == to && req.Status == models.FriendRequestPending {
				result = req
				return nil, store.ErrUnchanged
			}
		}
		result = models.FriendRequest{From: from, To: to, Status: models.FriendRequestPending}
		result.ID, result.Timestamp = r.ids.Next()
		created = true
		return append(requests, result), nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, created, nil
}

// GetFriendRequests retrieves every friend request in insertion order
func (r *CollectionFriendshipRepository) GetFriendRequests(ctx context.Context) []models.FriendRequest {
	return r.requests.All(ctx)
}

// GetFriendRequestByID retrieves a friend request by ID, or nil when there is none
func (r *CollectionFriendshipRepository) GetFriendRequestByID(ctx context.Context, id string) *models.FriendRequest {
	for _, req := range r.requests.All(ctx) {
		if req.ID == id {
			return &req
		}
	}
	return nil
}

// GetPendingRequestsTo retrieves the pending requests addressed to username
func (r *CollectionFriendshipRepository) GetPendingRequestsTo(ctx context.Context, username string) []models.FriendRequest {
	pending := []models.FriendRequest{}
	for _, req := range r.requests.All(ctx) {
		if req.To == username && req.Status == models.FriendRequestPending {
			pending = append(pending, req)
		}
	}
	return pending
}

// HasPendingRequest reports whether a pending request from -> to exists
func (r *CollectionFriendshipRepository) HasPendingRequest(ctx context.Context, from, to string) bool {
	for _, req := range r.requests.All(ctx) {
		if req.From == from && req.To == to && req.Status == models.FriendRequestPending {
			return true
		}
	}
	return false
}

// SetStatus updates the status of request id. It returns nil without writing
// when the request does not exist.
func (r *CollectionFriendshipRepository) SetStatus(ctx context.Context, id string, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	if status != models.FriendRequestPending && status != models.FriendRequestAccepted {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "unknown friend request status "+string(status))
	}

	var updated *models.FriendRequest
	err := r.requests.Mutate(ctx, func(requests []models.FriendRequest) ([]models.FriendRequest, error) {
		for i := range requests {
			if requests[i].ID != id {
				continue
			}
			req := requests[i]
			updated = &req
			if req.Status == status {
				return nil, store.ErrUnchanged
			}
			requests[i].Status = status
			updated.Status = status
			return requests, nil
		}
		return nil, store.ErrUnchanged
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RejectFriendRequest deletes request id outright and reports whether it existed
func (r *CollectionFriendshipRepository) RejectFriendRequest(ctx context.Context, id string) (bool, error) {
	n, err := removeWhere(ctx, r.requests, func(req models.FriendRequest) bool { return req.ID == id })
	return n > 0, err
}
