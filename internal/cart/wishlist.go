package cart

import "storefront/internal/domain"

// ToggleWishlist removes product from the list when present and appends it
// otherwise
func ToggleWishlist(current []domain.CartItem, product domain.Product) []domain.CartItem {
	if Contains(current, product.ID) {
		return RemoveFromCart(current, product.ID)
	}
	out := make([]domain.CartItem, 0, len(current)+1)
	out = append(out, current...)
	return append(out, domain.CartItem{Product: product, Quantity: MinQuantity})
}
