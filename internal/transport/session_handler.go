package transport

import (
	"context"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/navigation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SessionService is the signed-in state; auth.Session satisfies it
type SessionService interface {
	BeginSignIn(ctx context.Context) (auth.SignInStatus, error)
	SignInStatus() auth.SignInStatus
	CancelSignIn()
	SignOut(ctx context.Context)
	Snapshot() domain.AuthSession
}

// Navigator is the screen stack; navigation.Stack satisfies it
type Navigator interface {
	Navigate(route navigation.Route, params interface{}) error
	Back() (navigation.Entry, bool)
	Current() navigation.Entry
	Entries() []navigation.Entry
	Reset(route navigation.Route) error
}

// SessionResponse never carries the access token
type SessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.UserInfo `json:"user,omitempty"`
	Route         navigation.Route `json:"route"`
	// SignIn is set while a sign-in runs or after one failed
	SignIn *auth.SignInStatus `json:"signIn,omitempty"`
}

// SessionHandler handles sign-in and sign-out
type SessionHandler struct {
	session SessionService
	nav     Navigator
	logger  *zap.Logger
}

func NewSessionHandler(session SessionService, nav Navigator, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		session: session,
		nav:     nav,
		logger:  logger,
	}
}

// RegisterRoutes registers the session routes; none of them are gated
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/session", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/sign-in", h.SignIn)
		r.Delete("/sign-in", h.CancelSignIn)
		r.Post("/sign-out", h.SignOut)
	})
}

func (h *SessionHandler) response() SessionResponse {
	snap := h.session.Snapshot()
	resp := SessionResponse{
		Authenticated: snap.Authenticated(),
		User:          snap.UserInfo,
		Route:         h.nav.Current().Route,
	}
	if status := h.session.SignInStatus(); status.InProgress || status.Error != "" {
		resp.SignIn = &status
	}
	return resp
}

// enterProducts leaves the sign-in screen once a background sign-in has
// completed
func (h *SessionHandler) enterProducts() {
	if !h.session.Snapshot().Authenticated() || h.nav.Current().Route != navigation.SignIn {
		return
	}
	if err := h.nav.Navigate(navigation.Products, nil); err != nil {
		h.logger.Warn("Failed to open products after sign-in", zap.Error(err))
	}
}

// GetSession returns the current identity and the state of a pending sign-in.
// Clients poll it after a sign-in answered 202.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.enterProducts()
	middleware.RespondWithJSON(w, http.StatusOK, h.response())
}

// SignIn starts the provider flow. When the user has to enter a device code
// elsewhere it answers 202 with the code while the flow continues in the
// background; otherwise it answers once the flow has ended.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if _, err := h.session.BeginSignIn(r.Context()); err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.enterProducts()

	resp := h.response()
	if !resp.Authenticated {
		middleware.RespondWithJSON(w, http.StatusAccepted, resp)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

// CancelSignIn abandons a pending sign-in
func (h *SessionHandler) CancelSignIn(w http.ResponseWriter, r *http.Request) {
	h.session.CancelSignIn()
	middleware.RespondWithJSON(w, http.StatusOK, h.response())
}

// SignOut always succeeds and returns to the sign-in screen
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.session.SignOut(r.Context())

	if err := h.nav.Reset(navigation.SignIn); err != nil {
		h.logger.Warn("Failed to reset navigation after sign-out", zap.Error(err))
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.response())
}
