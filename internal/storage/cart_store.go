package storage

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	CartKey     = "APP_CART"
	WishlistKey = "APP_WISHLIST"
)

// CartStore persists a list of cart items as a JSON array under a single key
type CartStore struct {
	kv     KV
	key    string
	logger *zap.Logger
}

// NewCartStore creates a store for the cart list
func NewCartStore(kv KV, logger *zap.Logger) *CartStore {
	return &CartStore{kv: kv, key: CartKey, logger: logger}
}

// NewWishlistStore creates a store for the wishlist, which shares the cart format
func NewWishlistStore(kv KV, logger *zap.Logger) *CartStore {
	return &CartStore{kv: kv, key: WishlistKey, logger: logger}
}

// Load returns the persisted list. Read and decode failures are logged and
// reported as an empty list.
func (s *CartStore) Load(ctx context.Context) []domain.CartItem {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("Error loading cart", zap.String("key", s.key), zap.Error(err))
		}
		return []domain.CartItem{}
	}

	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Error("Error decoding cart", zap.String("key", s.key), zap.Error(err))
		return []domain.CartItem{}
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	return items
}

// Save replaces the persisted list
func (s *CartStore) Save(ctx context.Context, items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		s.logger.Error("Error saving cart", zap.String("key", s.key), zap.Error(err))
		return err
	}
	return nil
}

// Clear removes the persisted list; a following Load returns an empty list
func (s *CartStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.logger.Error("Error clearing cart", zap.String("key", s.key), zap.Error(err))
		return err
	}
	return nil
}
