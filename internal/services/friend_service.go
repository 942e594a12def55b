package services

import (
	"context"

	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/repositories"
	"github.com/anonto42/nano-midea/localstore/internal/store"
	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
	"github.com/anonto42/nano-midea/localstore/pkg/logger"
)

// FriendService manages friend requests and the friend graph
type FriendService struct {
	store         *store.Store
	users         repositories.UserRepository
	requests      repositories.FriendshipRepository
	notifications repositories.NotificationRepository
}

// NewFriendService creates a new FriendService
func NewFriendService(s *store.Store, users repositories.UserRepository, requests repositories.FriendshipRepository, notifications repositories.NotificationRepository) *FriendService {
	return &FriendService{store: s, users: users, requests: requests, notifications: notifications}
}

// SendFriendRequest sends a request from the session user to the user named to.
// Repeating a pending request returns the existing one without notifying again.
func (s *FriendService) SendFriendRequest(ctx context.Context, session *models.Session, to string) (*models.FriendRequest, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if s.users.GetUserByUsername(ctx, to) == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "user "+to+" not found")
	}

	req, created, err := s.requests.SendFriendRequest(ctx, session.Username, to)
	if err != nil {
		return nil, err
	}
	if !created {
		return req, nil
	}

	if _, err := s.notifications.AddNotification(ctx, models.NewFriendRequestNotification(req.From, req.To)); err != nil {
		return req, err
	}
	logger.Info("friend request sent", "from", req.From, "to", req.To, "request_id", req.ID)
	return req, nil
}

// AcceptFriendRequest marks request id accepted and adds each party to the
// other's friends list. An unknown id is a no-op and returns nil.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, id string) (*models.FriendRequest, error) {
	var accepted *models.FriendRequest
	keys := []string{store.KeyFriendRequests, store.KeyUsers, store.KeyCurrentUser}
	err := s.store.Atomically(ctx, keys, func(ctx context.Context) error {
		req, err := s.requests.SetStatus(ctx, id, models.FriendRequestAccepted)
		if err != nil || req == nil {
			return err
		}
		accepted = req
		return s.users.Befriend(ctx, req.From, req.To)
	})
	if err != nil {
		return accepted, err
	}
	if accepted != nil {
		logger.Info("friend request accepted", "from", accepted.From, "to", accepted.To, "request_id", accepted.ID)
	}
	return accepted, nil
}

// RejectFriendRequest deletes request id and reports whether it existed
func (s *FriendService) RejectFriendRequest(ctx context.Context, id string) (bool, error) {
	return s.requests.RejectFriendRequest(ctx, id)
}

// IncomingRequests lists the pending requests addressed to the session user
func (s *FriendService) IncomingRequests(ctx context.Context, session *models.Session) ([]models.FriendRequest, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	return s.requests.GetPendingRequestsTo(ctx, session.Username), nil
}

// Friends lists the session user's friends in the order they were added.
// Friends whose records are missing are shown by username alone.
func (s *FriendService) Friends(ctx context.Context, session *models.Session) ([]models.UserCompact, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	me := s.users.GetUserByUsername(ctx, session.Username)
	if me == nil {
		return []models.UserCompact{}, nil
	}

	friends := make([]models.UserCompact, 0, len(me.Friends))
	for _, name := range me.Friends {
		if u := s.users.GetUserByUsername(ctx, name); u != nil {
			friends = append(friends, u.ToCompact())
			continue
		}
		friends = append(friends, models.UserCompact{Username: name, DisplayName: name})
	}
	return friends, nil
}

// AreFriends reports whether a lists b as a friend
func (s *FriendService) AreFriends(ctx context.Context, a, b string) bool {
	u := s.users.GetUserByUsername(ctx, a)
	return u != nil && u.HasFriend(b)
}

// Relationship describes how the session user relates to other
func (s *FriendService) Relationship(ctx context.Context, session *models.Session, other string) (models.Relationship, error) {
	if err := requireSession(session); err != nil {
		return "", err
	}
	me := session.Username
	switch {
	case me == other:
		return models.RelationshipSelf, nil
	case s.AreFriends(ctx, me, other):
		return models.RelationshipFriends, nil
	case s.requests.HasPendingRequest(ctx, me, other):
		return models.RelationshipRequestSent, nil
	case s.requests.HasPendingRequest(ctx, other, me):
		return models.RelationshipRequestReceived, nil
	default:
		return models.RelationshipNone, nil
	}
}
