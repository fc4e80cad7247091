package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/navigation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NavigateRequest opens a screen. Product is required for ProductDetails;
// CartScreen receives the current cart.
type NavigateRequest struct {
	Route   navigation.Route `json:"route" validate:"required"`
	Product *domain.Product  `json:"product"`
}

type NavigationResponse struct {
	Current navigation.Entry   `json:"current"`
	Stack   []navigation.Route `json:"stack"`
}

// NavigationHandler exposes the screen stack to the UI shell
type NavigationHandler struct {
	nav    Navigator
	cart   CartService
	logger *zap.Logger
}

func NewNavigationHandler(nav Navigator, cart CartService, logger *zap.Logger) *NavigationHandler {
	return &NavigationHandler{
		nav:    nav,
		cart:   cart,
		logger: logger,
	}
}

// RegisterRoutes registers navigation routes behind gate
func (h *NavigationHandler) RegisterRoutes(r chi.Router, gate func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(gate)

		r.Route("/api/navigation", func(r chi.Router) {
			r.Get("/", h.GetNavigation)
			r.Post("/", h.Navigate)
			r.Post("/back", h.Back)
		})
	})
}

func (h *NavigationHandler) response() NavigationResponse {
	entries := h.nav.Entries()
	stack := make([]navigation.Route, 0, len(entries))
	for _, e := range entries {
		stack = append(stack, e.Route)
	}
	return NavigationResponse{
		Current: entries[len(entries)-1],
		Stack:   stack,
	}
}

// GetNavigation returns the top screen and the route stack
func (h *NavigationHandler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.response())
}

// Navigate opens a screen with its params
func (h *NavigationHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	var params interface{}
	switch req.Route {
	case navigation.ProductDetails:
		if req.Product != nil {
			params = navigation.DetailsParams{Product: *req.Product}
		}
	case navigation.CartScreen:
		params = navigation.CartParams{Items: h.cart.Snapshot().Items}
	}

	if err := h.nav.Navigate(req.Route, params); err != nil {
		respondError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.response())
}

// Back pops the top screen; the root stays
func (h *NavigationHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.nav.Back()
	middleware.RespondWithJSON(w, http.StatusOK, h.response())
}
