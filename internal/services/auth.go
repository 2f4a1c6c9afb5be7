package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"eventmanager/internal/domain"
	"eventmanager/internal/metrics"
)

const maxUsernameLen = 150

type authService struct {
	userRepo       domain.UserRepository
	hasher         domain.PasswordHasher
	tokens         domain.TokenIssuer
	logger         *slog.Logger
	contextTimeout time.Duration

	dummyOnce sync.Once
	dummySalt string
	dummyHash string
}

// NewAuthService creates an AuthService that stores credentials through userRepo
// and issues tokens for successful logins.
func NewAuthService(userRepo domain.UserRepository, hasher domain.PasswordHasher, tokens domain.TokenIssuer, logger *slog.Logger, timeout time.Duration) domain.AuthService {
	return &authService{
		userRepo:       userRepo,
		hasher:         hasher,
		tokens:         tokens,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *authService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	username = strings.TrimSpace(username)
	var msgs []string
	switch {
	case username == "":
		msgs = append(msgs, "username is required")
	case !utf8.ValidString(username):
		msgs = append(msgs, "username must be valid UTF-8")
	case utf8.RuneCountInString(username) > maxUsernameLen:
		msgs = append(msgs, fmt.Sprintf("username must be at most %d characters", maxUsernameLen))
	}
	if password == "" {
		msgs = append(msgs, "password is required")
	}
	if len(msgs) > 0 {
		return nil, domain.NewValidationError(msgs...)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(username, hash, salt, time.Now().UTC())
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login returns domain.ErrInvalidCredentials for both an unknown username and
// a wrong password. Unknown usernames still cost one hash comparison.
func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return "", fmt.Errorf("load user: %w", err)
		}
		s.compareDummy(password)
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", domain.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			s.logger.ErrorContext(ctx, "password comparison failed", "user_id", user.ID, "error", err)
		}
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return token, nil
}

func (s *authService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		salt, err := s.hasher.GenerateSalt()
		if err != nil {
			return
		}
		hash, err := s.hasher.Hash(salt, "dummy-password")
		if err != nil {
			return
		}
		s.dummySalt, s.dummyHash = salt, hash
	})
	if s.dummyHash == "" {
		return
	}
	_ = s.hasher.Compare(s.dummyHash, s.dummySalt, password)
}
