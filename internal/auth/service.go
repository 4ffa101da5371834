// Package auth implements the authentication collaborator: credential
// sign-up/sign-in and opaque bearer-token sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kombinator/garant/internal/common"
	"github.com/kombinator/garant/internal/entity"
	"github.com/kombinator/garant/internal/repository"
)

// ErrInvalidCredentials is returned on a failed sign-in. It deliberately
// does not distinguish an unknown email from a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLength = 8

// Service handles accounts and sessions.
type Service struct {
	users      repository.UserRepository
	sessions   SessionStore
	sessionTTL time.Duration
	logger     *zap.Logger
}

func NewService(users repository.UserRepository, sessions SessionStore, sessionTTL time.Duration, logger *zap.Logger) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// SignUp registers a new account and opens a session for it.
func (s *Service) SignUp(ctx context.Context, email, password string) (*entity.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateCredentials(email, password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", common.WrapError(err, "hashing password")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.Create(ctx, id, email, string(hash))
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("creating user: %w", common.ErrPersistence)
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

// SignIn verifies credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*entity.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("looking up user: %w", common.ErrPersistence)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user signed in", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

// SignOut invalidates a session token. Unknown tokens are a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a bearer token to the principal's user ID.
func (s *Service) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, common.ErrAuthRequired
	}
	userID, ok := s.sessions.Lookup(ctx, token)
	if !ok {
		return uuid.Nil, common.ErrAuthRequired
	}
	return userID, nil
}

func (s *Service) openSession(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	if err := s.sessions.Save(ctx, token, userID, s.sessionTTL); err != nil {
		return "", common.WrapError(err, "saving session")
	}
	return token, nil
}

func validateCredentials(email, password string) error {
	v := common.NewValidator()
	v.Field("email", email, common.Required, common.MaxLength(254))
	if email != "" && !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email is not valid", common.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	}
	return v.Err()
}
