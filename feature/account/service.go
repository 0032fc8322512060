package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hardware-manager/core/client"
	"hardware-manager/core/session"

	"go.uber.org/zap"
)

var (
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrNoToken is returned when the remote service accepted a login without a token.
	ErrNoToken = errors.New("login response did not include a token")
	// ErrNotAuthenticated is returned by WhoAmI when nobody is logged in.
	ErrNotAuthenticated = errors.New("not logged in")
)

// API is the part of the remote inventory service used by this feature.
type API interface {
	Login(ctx context.Context, username, password string) (*client.LoginResponse, error)
	Register(ctx context.Context, username, password string) (*client.MessageResponse, error)
	CurrentUser(ctx context.Context) (client.UserProfile, error)
}

// Service handles login, registration and logout.
type Service struct {
	api     API
	session *session.Session
	logger  *zap.Logger
}

// NewService creates an account service.
func NewService(api API, sess *session.Session, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, session: sess, logger: logger.Named("account")}
}

func credentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrMissingCredentials
	}
	return username, nil
}

// Login authenticates and starts a session. It returns the service's message.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username, err := credentials(username, password)
	if err != nil {
		return "", err
	}

	resp, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.logger.Warn("Login rejected", zap.String("user", username), zap.Error(err))
		return "", err
	}
	if resp.Token == "" {
		return "", ErrNoToken
	}
	if err := s.session.Begin(ctx, username, resp.Token); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("Logged in", zap.String("user", username))
	return resp.Message, nil
}

// Register creates an account. It does not log in.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	username, err := credentials(username, password)
	if err != nil {
		return "", err
	}

	resp, err := s.api.Register(ctx, username, password)
	if err != nil {
		s.logger.Warn("Registration rejected", zap.String("user", username), zap.Error(err))
		return "", err
	}
	return resp.Message, nil
}

// Logout ends the session.
func (s *Service) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

// WhoAmI fetches the operator's profile. A 401 ends the session.
func (s *Service) WhoAmI(ctx context.Context) (client.UserProfile, error) {
	if !s.session.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	profile, err := s.api.CurrentUser(ctx)
	if client.IsUnauthorized(err) {
		if logoutErr := s.session.Logout(context.WithoutCancel(ctx)); logoutErr != nil {
			s.logger.Error("Failed to clear stored session", zap.Error(logoutErr))
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if profile.Username() == "" {
		profile["username"] = s.session.Username()
	}
	return profile, nil
}
