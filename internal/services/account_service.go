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

// AccountService handles registration, sign-in and profile edits
type AccountService struct {
	users     repositories.UserRepository
	ids       *models.IDGenerator
	hasher    security.PasswordHasher
	sanitizer security.Sanitizer
}

// NewAccountService creates a new AccountService
func NewAccountService(users repositories.UserRepository, ids *models.IDGenerator, hasher security.PasswordHasher, sanitizer security.Sanitizer) *AccountService {
	return &AccountService{users: users, ids: ids, hasher: hasher, sanitizer: sanitizer}
}

// Register creates an account and signs it in
func (s *AccountService) Register(ctx context.Context, email, username, password string) (*models.Session, *models.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, nil, apperrors.New(apperrors.ErrCodeValidation, "email, username and password are required")
	}
	if s.users.GetUserByEmail(ctx, email) != nil {
		return nil, nil, apperrors.New(apperrors.ErrCodeAlreadyExists, "email is already registered")
	}
	if s.users.GetUserByUsername(ctx, username) != nil {
		return nil, nil, apperrors.New(apperrors.ErrCodeAlreadyExists, "username is already taken")
	}

	stored, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeInternalError, "failed to hash password")
	}
	id, _ := s.ids.Next()
	user, err := s.users.SaveUser(ctx, models.User{
		ID:       id,
		Username: username,
		Email:    email,
		Password: stored,
		Friends:  []string{},
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("user registered", "username", username)
	return models.NewSession(username), user, nil
}

// Login signs in the account registered under email
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Session, *models.User, error) {
	user := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if user == nil || !s.hasher.Verify(user.Password, password) {
		return nil, nil, apperrors.New(apperrors.ErrCodeInvalidCredentials, "invalid email or password")
	}
	if err := s.users.SetCurrentUser(ctx, user); err != nil {
		return nil, nil, err
	}

	logger.Info("user signed in", "username", user.Username)
	return models.NewSession(user.Username), user, nil
}

// Logout clears the persisted session user
func (s *AccountService) Logout(ctx context.Context) error {
	return s.users.ClearCurrentUser(ctx)
}

// CurrentSession resumes the persisted session, or returns nil when nobody is signed in
func (s *AccountService) CurrentSession(ctx context.Context) *models.Session {
	user := s.users.GetCurrentUser(ctx)
	if user == nil || user.Username == "" {
		return nil
	}
	return models.NewSession(user.Username)
}

// Profile returns the session user's stored record
func (s *AccountService) Profile(ctx context.Context, session *models.Session) (*models.User, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	user := s.users.GetUserByUsername(ctx, session.Username)
	if user == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "user not found")
	}
	return user, nil
}

// UpdateProfile applies patch to the session user. A provided display name
// must not be blank; a provided password is hashed.
func (s *AccountService) UpdateProfile(ctx context.Context, session *models.Session, patch models.UserPatch) (*models.User, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return nil, apperrors.New(apperrors.ErrCodeValidation, "displayName must not be blank")
		}
		patch.DisplayName = &name
	}
	if patch.Bio != nil {
		bio := s.sanitizer.Clean(*patch.Bio)
		patch.Bio = &bio
	}
	if patch.Password != nil {
		stored, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternalError, "failed to hash password")
		}
		patch.Password = &stored
	}
	patch.Friends = nil

	user, err := s.users.UpdateUser(ctx, session.Username, patch)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "user not found")
	}
	return user, nil
}

// SearchUsers finds users by username or display name
func (s *AccountService) SearchUsers(ctx context.Context, query string) []models.UserCompact {
	found := s.users.SearchUsers(ctx, query)
	compact := make([]models.UserCompact, 0, len(found))
	for _, u := range found {
		compact = append(compact, u.ToCompact())
	}
	return compact
}
