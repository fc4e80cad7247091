package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidProduct = errors.New("product id is required")
)

// Store persists a list of cart lines
type Store interface {
	Load(ctx context.Context) []domain.CartItem
	Save(ctx context.Context, items []domain.CartItem) error
	Clear(ctx context.Context) error
}

// Snapshot is the cart as rendered by the cart view
type Snapshot struct {
	Items    []domain.CartItem `json:"items"`
	Count    int               `json:"count"`
	Subtotal decimal.Decimal   `json:"subtotal"`
}

// Service owns the in-memory cart and wishlist. Every mutation is applied as
// one read-modify-write under the lock and then persisted. A failed write
// leaves the in-memory state authoritative for the rest of the process.
type Service struct {
	mu            sync.Mutex
	items         []domain.CartItem
	wishlist      []domain.CartItem
	store         Store
	wishlistStore Store
	logger        *zap.Logger
}

// NewService creates a cart service. Call Load to pick up persisted state.
func NewService(store, wishlistStore Store, logger *zap.Logger) *Service {
	return &Service{
		items:         []domain.CartItem{},
		wishlist:      []domain.CartItem{},
		store:         store,
		wishlistStore: wishlistStore,
		logger:        logger,
	}
}

// Load replaces the in-memory state with the persisted cart and wishlist
func (s *Service) Load(ctx context.Context) {
	items := s.store.Load(ctx)
	wishlist := s.wishlistStore.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.wishlist = wishlist

	s.logger.Info("Cart loaded",
		zap.Int("items", len(items)),
		zap.Int("wishlist", len(wishlist)),
	)
}

// Snapshot returns a copy of the current cart with its subtotal
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Items returns a copy of the current cart lines
func (s *Service) Items() []domain.CartItem {
	return s.Snapshot().Items
}

// Subtotal returns the cart subtotal
func (s *Service) Subtotal() decimal.Decimal {
	return s.Snapshot().Subtotal
}

// Contains reports whether the product is in the cart
func (s *Service) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Contains(s.items, id)
}

// Add merges product into the cart
func (s *Service) Add(ctx context.Context, product domain.Product, quantity int) (Snapshot, error) {
	if strings.TrimSpace(product.ID) == "" {
		return Snapshot{}, ErrInvalidProduct
	}
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		return AddToCart(items, product, quantity)
	}), nil
}

// Remove drops a line from the cart
func (s *Service) Remove(ctx context.Context, id string) Snapshot {
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		return RemoveFromCart(items, id)
	})
}

// ChangeQuantity applies the increment/decrement controls to a line
func (s *Service) ChangeQuantity(ctx context.Context, id string, delta int) Snapshot {
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		return SetQuantity(items, id, delta)
	})
}

// Clear empties the cart and removes the persisted key
func (s *Service) Clear(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []domain.CartItem{}
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("Cart cleared in memory only", zap.Error(err))
	}
	return s.snapshotLocked()
}

// Wishlist returns a copy of the wishlist
func (s *Service) Wishlist() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.wishlist)
}

// ToggleWishlist adds or removes a product from the wishlist and reports
// whether it is now present
func (s *Service) ToggleWishlist(ctx context.Context, product domain.Product) (bool, error) {
	if strings.TrimSpace(product.ID) == "" {
		return false, ErrInvalidProduct
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.wishlist = ToggleWishlist(s.wishlist, product)
	if err := s.wishlistStore.Save(ctx, s.wishlist); err != nil {
		s.logger.Warn("Wishlist kept in memory only", zap.Error(err))
	}
	return Contains(s.wishlist, product.ID), nil
}

func (s *Service) mutate(ctx context.Context, fn func([]domain.CartItem) []domain.CartItem) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = fn(s.items)
	if err := s.store.Save(ctx, s.items); err != nil {
		s.logger.Warn("Cart kept in memory only", zap.Error(err))
	}
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() Snapshot {
	items := cloneItems(s.items)
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return Snapshot{
		Items:    items,
		Count:    count,
		Subtotal: ComputeSubtotal(items),
	}
}

func cloneItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}
