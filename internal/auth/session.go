package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

// TokenStore persists the access token between runs
type TokenStore interface {
	SaveToken(ctx context.Context, token string) error
	Token(ctx context.Context) (string, bool)
	RemoveToken(ctx context.Context) error
}

// DefaultSignInTimeout bounds a background sign-in started with BeginSignIn
const DefaultSignInTimeout = 15 * time.Minute

// SignInStatus reports the sign-in started with BeginSignIn
type SignInStatus struct {
	InProgress bool        `json:"inProgress"`
	Code       *DeviceCode `json:"code,omitempty"`
	// Error is the category of the last failed attempt
	Error string `json:"error,omitempty"`
}

// Session is the process-wide signed-in state. Identity and token are always
// written together under the lock.
type Session struct {
	mu        sync.RWMutex
	state     domain.AuthSession
	signingIn atomic.Bool
	provider  Provider
	tokens    TokenStore
	logger    *zap.Logger

	// background sign-in
	pending    *DeviceCode
	lastErr    error
	cancelFlow context.CancelFunc
	timeout    time.Duration
}

func NewSession(provider Provider, tokens TokenStore, logger *zap.Logger) *Session {
	return &Session{
		provider: provider,
		tokens:   tokens,
		logger:   logger,
		timeout:  DefaultSignInTimeout,
	}
}

// Snapshot returns a copy of the current session
func (s *Session) Snapshot() domain.AuthSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.state
	if s.state.UserInfo != nil {
		user := *s.state.UserInfo
		out.UserInfo = &user
	}
	return out
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated()
}

// BeginSignIn starts the provider flow in the background. Only one flow may
// run at a time; a second caller gets ErrSignInInProgress. It returns once the
// provider has a device code for the user to enter, once the flow has ended,
// or when ctx is done, whichever comes first. The flow itself is not bound to
// ctx; it runs until it completes, times out or CancelSignIn is called.
// Callers follow it with SignInStatus and Snapshot.
func (s *Session) BeginSignIn(ctx context.Context) (SignInStatus, error) {
	if !s.signingIn.CompareAndSwap(false, true) {
		s.logger.Debug("Sign-in already in progress")
		return s.SignInStatus(), ErrSignInInProgress
	}

	flowCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	shown := make(chan struct{})
	var once sync.Once
	flowCtx = WithPrompt(flowCtx, func(ctx context.Context, code DeviceCode) error {
		s.mu.Lock()
		s.pending = &code
		s.mu.Unlock()
		once.Do(func() { close(shown) })
		return nil
	})

	s.mu.Lock()
	s.pending = nil
	s.lastErr = nil
	s.cancelFlow = cancel
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		err := s.signIn(flowCtx)
		cancel()

		s.mu.Lock()
		s.pending = nil
		s.lastErr = err
		s.cancelFlow = nil
		s.mu.Unlock()
		s.signingIn.Store(false)

		done <- err
	}()

	select {
	case <-shown:
		return s.SignInStatus(), nil
	case err := <-done:
		return s.SignInStatus(), err
	case <-ctx.Done():
		return s.SignInStatus(), nil
	}
}

// SignInStatus reports whether a background sign-in is running, the code the
// user has to enter, and how the last attempt failed
func (s *Session) SignInStatus() SignInStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SignInStatus{InProgress: s.signingIn.Load()}
	if s.pending != nil {
		code := *s.pending
		status.Code = &code
	}
	if s.lastErr != nil {
		status.Error = Categorize(s.lastErr).String()
	}
	return status
}

// CancelSignIn stops a sign-in started with BeginSignIn
func (s *Session) CancelSignIn() {
	s.mu.RLock()
	cancel := s.cancelFlow
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
}

// signIn runs the provider flow. A token that cannot be persisted still signs
// the user in for this run.
func (s *Session) signIn(ctx context.Context) error {
	user, token, err := s.provider.SignIn(ctx)
	if err == nil && (user == nil || token == "") {
		err = ErrNotAuthenticated
	}
	if err != nil {
		s.logSignInFailure(err)
		return err
	}

	if err := s.tokens.SaveToken(ctx, token); err != nil {
		s.logger.Error("Failed to persist access token", zap.Error(err))
	}

	s.set(user, token)
	s.logger.Info("User signed in", zap.String("user_id", user.ID))
	return nil
}

// SignOut stops any background sign-in and clears the persisted token and the
// in-memory session. Provider and storage failures are logged; the session
// always ends up empty.
func (s *Session) SignOut(ctx context.Context) {
	s.CancelSignIn()

	s.mu.RLock()
	token := s.state.AccessToken
	s.mu.RUnlock()

	if err := s.provider.SignOut(ctx, token); err != nil {
		s.logger.Warn("Provider sign-out failed", zap.Error(err))
	}
	if err := s.tokens.RemoveToken(ctx); err != nil {
		s.logger.Error("Failed to remove access token", zap.Error(err))
	}

	s.mu.Lock()
	s.state = domain.AuthSession{}
	s.mu.Unlock()

	s.logger.Info("User signed out")
}

// Restore rehydrates the session from a persisted token. The token alone is
// not enough: the provider must still resolve an identity for it.
func (s *Session) Restore(ctx context.Context) (domain.AuthSession, bool) {
	token, ok := s.tokens.Token(ctx)
	if !ok {
		return domain.AuthSession{}, false
	}

	user, err := s.provider.CurrentUser(ctx, token)
	if err != nil || user == nil {
		s.logger.Info("Stored token did not resolve to a user", zap.Error(err))
		return domain.AuthSession{}, false
	}

	s.set(user, token)
	s.logger.Info("Session restored", zap.String("user_id", user.ID))
	return s.Snapshot(), true
}

func (s *Session) set(user *domain.UserInfo, token string) {
	u := *user
	s.mu.Lock()
	s.state = domain.AuthSession{UserInfo: &u, AccessToken: token}
	s.mu.Unlock()
}

func (s *Session) logSignInFailure(err error) {
	switch Categorize(err) {
	case CategoryCancelled, CategoryInProgress:
		s.logger.Debug("Sign-in not completed", zap.Error(err))
	case CategoryUnavailable:
		s.logger.Warn("Sign-in provider unavailable", zap.Error(err))
	default:
		s.logger.Error("Sign-in error", zap.Error(err))
	}
}
