package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/BookReviewGo/internal/auth"
	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/event"
	"github.com/utafrali/BookReviewGo/internal/repository"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/validator"
)

// TokenIssuer issues session tokens for a user ID.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// AuthService registers users and logs them in.
type AuthService struct {
	users    repository.UserRepository
	hasher   auth.PasswordHasher
	tokens   TokenIssuer
	producer *event.Producer
	logger   *slog.Logger

	dummyMu   sync.Mutex
	dummyHash string
}

// NewAuthService creates a new auth service.
func NewAuthService(users repository.UserRepository, hasher auth.PasswordHasher, tokens TokenIssuer, producer *event.Producer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		producer: producer,
		logger:   logger,
	}
}

// SignupInput holds the parameters for creating an account.
type SignupInput struct {
	Username string `json:"username" validate:"notblank,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6,maxbytes=72"`
}

// LoginInput holds the parameters for logging in. Identifier is either a
// username or an email address.
type LoginInput struct {
	Identifier string `json:"loginIdentifier" validate:"notblank"`
	Password   string `json:"password" validate:"required"`
}

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Signup creates an account and returns a token for it.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := validator.Validate(&input); err != nil {
		authAttemptsTotal.WithLabelValues(opSignup, outcomeRejected).Inc()
		return nil, err
	}

	existing, err := s.users.FindByIdentifier(ctx, input.Username, input.Email)
	switch {
	case err == nil && existing != nil:
		authAttemptsTotal.WithLabelValues(opSignup, outcomeDuplicate).Inc()
		return nil, duplicateUser()
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		authAttemptsTotal.WithLabelValues(opSignup, outcomeError).Inc()
		return nil, apperrors.Internal(err)
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		authAttemptsTotal.WithLabelValues(opSignup, outcomeError).Inc()
		return nil, apperrors.Internal(err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			authAttemptsTotal.WithLabelValues(opSignup, outcomeDuplicate).Inc()
			return nil, duplicateUser()
		}
		authAttemptsTotal.WithLabelValues(opSignup, outcomeError).Inc()
		return nil, apperrors.Internal(err)
	}

	result, err := s.result(user)
	if err != nil {
		authAttemptsTotal.WithLabelValues(opSignup, outcomeError).Inc()
		return nil, err
	}
	authAttemptsTotal.WithLabelValues(opSignup, outcomeSuccess).Inc()

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "failed to publish user registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return result, nil
}

// Login checks the password of the account whose username or email equals
// the identifier. An unknown identifier and a wrong password fail the same
// way.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Identifier = strings.TrimSpace(input.Identifier)
	if err := validator.Validate(&input); err != nil {
		authAttemptsTotal.WithLabelValues(opLogin, outcomeRejected).Inc()
		return nil, err
	}

	user, err := s.users.FindByIdentifier(ctx, input.Identifier, input.Identifier)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			authAttemptsTotal.WithLabelValues(opLogin, outcomeError).Inc()
			return nil, apperrors.Internal(err)
		}
		// Keep the unknown-identifier path as slow as a wrong password.
		s.hasher.Verify(input.Password, s.dummyDigest())
		authAttemptsTotal.WithLabelValues(opLogin, outcomeRejected).Inc()
		return nil, invalidCredentials()
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		authAttemptsTotal.WithLabelValues(opLogin, outcomeRejected).Inc()
		return nil, invalidCredentials()
	}

	result, err := s.result(user)
	if err != nil {
		authAttemptsTotal.WithLabelValues(opLogin, outcomeError).Inc()
		return nil, err
	}
	authAttemptsTotal.WithLabelValues(opLogin, outcomeSuccess).Inc()
	return result, nil
}

func (s *AuthService) result(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &AuthResult{Token: token, Username: user.Username, Email: user.Email}, nil
}

// fallbackDigest is a valid bcrypt digest that no password is expected to
// match. It stands in when a fresh dummy digest cannot be built.
const fallbackDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// dummyDigest returns a digest to compare against when the identifier is
// unknown. A failed build is retried on the next call.
func (s *AuthService) dummyDigest() string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash != "" {
		return s.dummyHash
	}
	digest, err := s.hasher.Hash(uuid.New().String())
	if err != nil {
		s.logger.Error("failed to build dummy password digest", slog.String("error", err.Error()))
		return fallbackDigest
	}
	s.dummyHash = digest
	return s.dummyHash
}

func duplicateUser() *apperrors.AppError {
	return apperrors.Conflict("DUPLICATE_USER", "User with that username or email already exists", domain.ErrDuplicateUser)
}

func invalidCredentials() *apperrors.AppError {
	return apperrors.Conflict("INVALID_CREDENTIALS", "Invalid credentials", domain.ErrInvalidCredentials)
}
