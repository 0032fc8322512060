package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrMissingCredentials is returned by Begin when username or token is empty.
var ErrMissingCredentials = errors.New("username and token are required")

// Session is the authenticated operator context.
type Session struct {
	mu       sync.RWMutex
	store    Store
	username string
	token    string
	hooks    []func()
	logger   *zap.Logger
}

// New creates an anonymous session backed by store.
func New(store Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: store, logger: logger}
}

// Restore loads a stored session. An empty store leaves the session anonymous.
func (s *Session) Restore(ctx context.Context) error {
	rec, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.username = rec.Username
	s.token = rec.Token
	s.mu.Unlock()

	s.logger.Debug("Restored session", zap.String("user", rec.Username))
	return nil
}

// Begin starts an authenticated session and persists it.
func (s *Session) Begin(ctx context.Context, username, token string) error {
	if username == "" || token == "" {
		return ErrMissingCredentials
	}
	if err := s.store.Save(ctx, &Record{Username: username, Token: token}); err != nil {
		return err
	}

	s.mu.Lock()
	s.username = username
	s.token = token
	s.mu.Unlock()
	return nil
}

// Token returns the bearer token, or "" when anonymous.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Username returns the authenticated username, or "" when anonymous.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// OnLogout registers fn to run on every logout.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Logout clears the session, its stored token and all dependent state.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	user := s.username
	s.username = ""
	s.token = ""
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()

	err := s.store.Clear(ctx)
	for _, fn := range hooks {
		fn()
	}

	s.logger.Info("Logged out", zap.String("user", user))
	return err
}
