package transport

import (
	"context"
	"net/http"
	"strconv"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/navigation"
	"storefront/internal/scanner"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Searcher is the stateless catalog search; catalog.Client satisfies it
type Searcher interface {
	Search(ctx context.Context, query string, page, pageSize int) (*catalog.Page, error)
}

// ProductBrowser is the debounced product list; catalog.Browser satisfies it
type ProductBrowser interface {
	State() catalog.BrowseState
	SetQuery(query string)
	Refresh(ctx context.Context) catalog.BrowseState
	LoadMore(ctx context.Context) bool
}

// CodeScanner is the barcode lookup state machine; scanner.Scanner satisfies it
type CodeScanner interface {
	State() scanner.State
	HandleDecode(ctx context.Context, code string) scanner.Outcome
	Submit(ctx context.Context, code string) (scanner.Outcome, error)
}

type QueryRequest struct {
	Query string `json:"query" validate:"max=200"`
}

type LookupRequest struct {
	Code string `json:"code" validate:"required,notblank,max=128"`
}

type DecodeRequest struct {
	Code      string `json:"code" validate:"max=4096"`
	Symbology string `json:"symbology"`
}

type ProductRequest struct {
	Product domain.Product `json:"product"`
}

type ShareResponse struct {
	Message string `json:"message"`
}

type ScannerResponse struct {
	State scanner.State `json:"state"`
}

// OutcomeResponse is returned for decode events and manual lookups
type OutcomeResponse struct {
	Outcome scanner.Outcome  `json:"outcome"`
	Route   navigation.Route `json:"route"`
}

// CatalogHandler serves product search, the product list, barcode lookups
// and sharing
type CatalogHandler struct {
	searcher        Searcher
	browser         ProductBrowser
	scanner         CodeScanner
	nav             Navigator
	defaultPageSize int
	logger          *zap.Logger
}

func NewCatalogHandler(searcher Searcher, browser ProductBrowser, scanner CodeScanner, nav Navigator, defaultPageSize int, logger *zap.Logger) *CatalogHandler {
	if defaultPageSize < 1 {
		defaultPageSize = 10
	}
	return &CatalogHandler{
		searcher:        searcher,
		browser:         browser,
		scanner:         scanner,
		nav:             nav,
		defaultPageSize: defaultPageSize,
		logger:          logger,
	}
}

// CatalogLimiter meters remote catalog calls; middleware.CatalogLimiter
// satisfies it
type CatalogLimiter interface {
	Limit(op middleware.CatalogOperation) func(http.Handler) http.Handler
}

// RegisterRoutes registers catalog and scanner routes behind gate. limiter,
// when set, charges the routes that call the remote catalog directly. Query
// edits are debounced and camera decodes are spaced by the scanner cooldown,
// so neither is charged.
func (h *CatalogHandler) RegisterRoutes(r chi.Router, gate func(http.Handler) http.Handler, limiter CatalogLimiter) {
	charge := func(op middleware.CatalogOperation) func(http.Handler) http.Handler {
		if limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return limiter.Limit(op)
	}

	r.Group(func(r chi.Router) {
		r.Use(gate)

		r.Route("/api/products", func(r chi.Router) {
			r.With(charge(middleware.CatalogSearch)).Get("/", h.Search)
			r.Get("/browse", h.BrowseState)
			r.Post("/browse/query", h.SetQuery)
			r.With(charge(middleware.CatalogSearch)).Post("/browse/more", h.LoadMore)
			r.With(charge(middleware.CatalogSearch)).Post("/browse/refresh", h.Refresh)
			r.With(charge(middleware.CatalogLookup)).Post("/lookup", h.Lookup)
			r.Post("/share", h.Share)
		})

		r.Route("/api/scanner", func(r chi.Router) {
			r.Get("/", h.ScannerState)
			r.Post("/decode", h.Decode)
		})
	})
}

// Search returns one page of products for ?q=&page=&pageSize=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "page must be a number")
		return
	}
	pageSize, err := intParam(q.Get("pageSize"), h.defaultPageSize)
	if err != nil || pageSize < 1 || pageSize > 100 {
		middleware.RespondWithError(w, http.StatusBadRequest, "pageSize must be between 1 and 100")
		return
	}

	result, err := h.searcher.Search(r.Context(), q.Get("q"), page, pageSize)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// BrowseState returns the current product list
func (h *CatalogHandler) BrowseState(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.browser.State())
}

// SetQuery schedules a debounced reload; the caller polls BrowseState
func (h *CatalogHandler) SetQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	h.browser.SetQuery(req.Query)
	middleware.RespondWithJSON(w, http.StatusAccepted, h.browser.State())
}

// LoadMore appends the next page when one exists
func (h *CatalogHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	h.browser.LoadMore(r.Context())
	middleware.RespondWithJSON(w, http.StatusOK, h.browser.State())
}

// Refresh reloads the first page; used as the retry action
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.browser.Refresh(r.Context()))
}

// Lookup resolves a typed barcode
func (h *CatalogHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	out, err := h.scanner.Submit(r.Context(), req.Code)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respondOutcome(w, out)
}

// ScannerState reports whether the scanner is ready for another code
func (h *CatalogHandler) ScannerState(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, ScannerResponse{State: h.scanner.State()})
}

// Decode receives a camera decode event
func (h *CatalogHandler) Decode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	if !scanner.Supported(req.Symbology) {
		h.respondOutcome(w, scanner.Outcome{Kind: scanner.Ignored, Code: req.Code})
		return
	}
	h.respondOutcome(w, h.scanner.HandleDecode(r.Context(), req.Code))
}

// Share returns the text shared for a product
func (h *CatalogHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ShareResponse{Message: req.Product.ShareMessage()})
}

// respondOutcome opens the details screen for a found product and turns the
// other outcomes into alerts
func (h *CatalogHandler) respondOutcome(w http.ResponseWriter, out scanner.Outcome) {
	switch out.Kind {
	case scanner.Found:
		if err := h.nav.Navigate(navigation.ProductDetails, navigation.DetailsParams{Product: *out.Product}); err != nil {
			respondError(w, h.logger, err)
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, OutcomeResponse{Outcome: out, Route: h.nav.Current().Route})
	case scanner.NotFound:
		middleware.RespondWithAlert(w, http.StatusNotFound, out.Title, out.Message)
	case scanner.Failed:
		middleware.RespondWithAlert(w, http.StatusBadGateway, out.Title, out.Message)
	default:
		middleware.RespondWithJSON(w, http.StatusAccepted, OutcomeResponse{Outcome: out, Route: h.nav.Current().Route})
	}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
