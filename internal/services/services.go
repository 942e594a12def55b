package services

import (
	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/repositories"
	"github.com/anonto42/nano-midea/localstore/internal/security"
	"github.com/anonto42/nano-midea/localstore/internal/store"
	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
)

// Options configures the service layer
type Options struct {
	Cascade   models.CascadePolicy
	Hasher    security.PasswordHasher
	Sanitizer security.Sanitizer
	Clock     models.Clock
}

// Services bundles every service over one store
type Services struct {
	Accounts      *AccountService
	Friends       *FriendService
	Feed          *FeedService
	Messages      *MessageService
	Notifications *NotificationService

	Repos Repositories
}

// Repositories holds the per-collection repositories the services share
type Repositories struct {
	Users         *repositories.CollectionUserRepository
	Posts         *repositories.CollectionPostRepository
	Comments      *repositories.CollectionCommentRepository
	Likes         *repositories.CollectionLikeRepository
	Messages      *repositories.CollectionMessageRepository
	FriendRequest *repositories.CollectionFriendshipRepository
	Notifications *repositories.CollectionNotificationRepository
}

// New wires repositories and services over s
func New(s *store.Store, opts Options) *Services {
	if opts.Hasher == nil {
		opts.Hasher = security.PlaintextHasher{}
	}
	if opts.Sanitizer == nil {
		opts.Sanitizer = security.NopSanitizer{}
	}
	ids := models.NewIDGenerator(opts.Clock)

	comments := repositories.NewCollectionCommentRepository(s, ids)
	likes := repositories.NewCollectionLikeRepository(s, ids)
	notifications := repositories.NewCollectionNotificationRepository(s, ids)
	repos := Repositories{
		Users:         repositories.NewCollectionUserRepository(s),
		Posts:         repositories.NewCollectionPostRepository(s, ids, opts.Cascade, comments, likes, notifications),
		Comments:      comments,
		Likes:         likes,
		Messages:      repositories.NewCollectionMessageRepository(s, ids),
		FriendRequest: repositories.NewCollectionFriendshipRepository(s, ids),
		Notifications: notifications,
	}

	return &Services{
		Accounts:      NewAccountService(repos.Users, ids, opts.Hasher, opts.Sanitizer),
		Friends:       NewFriendService(s, repos.Users, repos.FriendRequest, repos.Notifications),
		Feed:          NewFeedService(repos.Posts, repos.Comments, repos.Likes, repos.Notifications, opts.Sanitizer),
		Messages:      NewMessageService(repos.Messages, repos.Users, repos.Notifications, opts.Sanitizer),
		Notifications: NewNotificationService(repos.Notifications),
		Repos:         repos,
	}
}

func requireSession(session *models.Session) error {
	if session == nil || session.Username == "" {
		return apperrors.New(apperrors.ErrCodeForbidden, "no user is signed in")
	}
	return nil
}
