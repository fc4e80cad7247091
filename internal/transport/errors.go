package transport

import (
	"errors"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/middleware"
	"storefront/internal/navigation"
	"storefront/internal/scanner"

	"go.uber.org/zap"
)

// respondError maps a domain error onto the HTTP error envelope. Anything not
// recognised is logged and reported as a 500.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		middleware.RespondWithAlert(w, http.StatusNotFound, "Not Found", "No product found for this barcode.")
	case errors.Is(err, catalog.ErrFetchFailed):
		middleware.RespondWithAlert(w, http.StatusBadGateway, "Error", "Failed to load products.")
	case errors.Is(err, catalog.ErrInvalidPage),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, navigation.ErrInvalidParams),
		errors.Is(err, navigation.ErrUnknownRoute):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scanner.ErrEmptyCode):
		middleware.RespondWithAlert(w, http.StatusBadRequest, "Enter a barcode", err.Error())
	case errors.Is(err, navigation.ErrUnauthenticated),
		errors.Is(err, auth.ErrNotAuthenticated):
		middleware.RespondWithError(w, http.StatusUnauthorized, "sign in required")
	case errors.Is(err, scanner.ErrBusy),
		errors.Is(err, auth.ErrSignInInProgress):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrSignInCancelled):
		middleware.RespondWithError(w, http.StatusBadRequest, "sign-in cancelled")
	case errors.Is(err, auth.ErrProviderUnavailable):
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "sign-in provider unavailable")
	default:
		logger.Error("Unhandled request error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
