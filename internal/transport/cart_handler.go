package transport

import (
	"context"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartService owns the cart and wishlist; cart.Service satisfies it
type CartService interface {
	Snapshot() cart.Snapshot
	Add(ctx context.Context, product domain.Product, quantity int) (cart.Snapshot, error)
	Remove(ctx context.Context, id string) cart.Snapshot
	ChangeQuantity(ctx context.Context, id string, delta int) cart.Snapshot
	Clear(ctx context.Context) cart.Snapshot
	Wishlist() []domain.CartItem
	ToggleWishlist(ctx context.Context, product domain.Product) (bool, error)
}

// AddItemRequest adds quantity of product; a missing quantity means 1
type AddItemRequest struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity" validate:"gte=0,lte=999"`
}

// QuantityRequest is one press of the increment or decrement control
type QuantityRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

type WishlistResponse struct {
	InWishlist bool              `json:"inWishlist"`
	Items      []domain.CartItem `json:"items"`
}

// CartHandler serves the cart and wishlist
type CartHandler struct {
	cart   CartService
	logger *zap.Logger
}

func NewCartHandler(cart CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cart:   cart,
		logger: logger,
	}
}

// RegisterRoutes registers cart and wishlist routes behind gate
func (h *CartHandler) RegisterRoutes(r chi.Router, gate func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(gate)

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Patch("/items/{id}", h.ChangeQuantity)
			r.Delete("/items/{id}", h.RemoveItem)
		})

		r.Route("/api/wishlist", func(r chi.Router) {
			r.Get("/", h.GetWishlist)
			r.Post("/toggle", h.ToggleWishlist)
		})
	})
}

// GetCart returns items, count and subtotal
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.cart.Snapshot())
}

// AddItem merges a product into the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Add to cart validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	snap, err := h.cart.Add(r.Context(), req.Product, req.Quantity)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Added to cart",
		zap.String("product_id", req.Product.ID),
		zap.Int("quantity", req.Quantity),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, snap)
}

// ChangeQuantity applies a delta; quantities never drop below 1
func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	middleware.RespondWithJSON(w, http.StatusOK, h.cart.ChangeQuantity(r.Context(), id, req.Delta))
}

// RemoveItem drops a line; unknown ids are a no-op
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	middleware.RespondWithJSON(w, http.StatusOK, h.cart.Remove(r.Context(), id))
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.cart.Clear(r.Context()))
}

func (h *CartHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, WishlistResponse{Items: h.cart.Wishlist()})
}

// ToggleWishlist adds the product or removes it if already present
func (h *CartHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	in, err := h.cart.ToggleWishlist(r.Context(), req.Product)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, WishlistResponse{InWishlist: in, Items: h.cart.Wishlist()})
}
