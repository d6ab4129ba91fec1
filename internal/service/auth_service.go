package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// AuthService exchanges upstream credentials for storefront sessions.
type AuthService struct {
	users    clients.UserClient
	sessions repository.SessionStore
	ttl      time.Duration
	logger   *logging.LoggerV2
	now      func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(users clients.UserClient, sessions repository.SessionStore, cfg *config.Config) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      cfg.Session.TTL,
		logger:   logging.NewLoggerV2("auth-service"),
		now:      time.Now,
	}
}

// Login authenticates against the user API and opens a session for the requested role.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !req.Role.Valid() {
		return nil, errors.NewValidationError("role", "role must be customer, vendor or driver")
	}

	result, err := s.users.Login(ctx, req)
	if err != nil {
		s.logger.Warn("Login failed", logging.Fields{
			"role":  req.Role,
			"error": err.Error(),
		})
		return nil, err
	}

	now := s.now().UTC()
	session := &models.Session{
		Token:         uuid.NewString(),
		UserID:        result.User.ID,
		Role:          result.User.Role,
		Name:          result.User.Name,
		UpstreamToken: result.Token,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error("Failed to store session", logging.Fields{
			"user_id": session.UserID,
			"error":   err.Error(),
		})
		return nil, err
	}

	s.logger.Info("User logged in", logging.Fields{
		"user_id": session.UserID,
		"role":    session.Role,
	})

	return &models.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      result.User,
	}, nil
}

// Authenticate resolves a bearer token to its session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, errors.ErrUnauthorized
	}

	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, errors.ErrUnauthorized
	}
	return session, nil
}

// Logout ends the session. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Me returns the signed-in user's profile. ctx must carry the session.
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	return s.users.GetMe(ctx)
}
