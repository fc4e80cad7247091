// Package cart holds the cart line reconciliation rules and the service that
// owns the in-memory cart and persists it after every mutation.
package cart

import (
	"math"
	"regexp"
	"strings"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// MinQuantity is the lowest quantity a cart line can hold
const MinQuantity = 1

// AddToCart merges product into current. An existing line with the same id
// has its quantity increased by quantity; otherwise a new line is appended.
// Untouched lines keep their order. current is not modified.
func AddToCart(current []domain.CartItem, product domain.Product, quantity int) []domain.CartItem {
	if quantity < MinQuantity {
		quantity = MinQuantity
	}

	out := make([]domain.CartItem, 0, len(current)+1)
	merged := false
	for _, item := range current {
		if !merged && item.ID == product.ID {
			item.Quantity += quantity
			merged = true
		}
		out = append(out, item)
	}

	if !merged {
		out = append(out, domain.CartItem{Product: product, Quantity: quantity})
	}
	return out
}

// RemoveFromCart drops the line with the given id. Unknown ids are a no-op.
func RemoveFromCart(current []domain.CartItem, id string) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(current))
	for _, item := range current {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

// SetQuantity adjusts the line with the given id by delta, never going below
// MinQuantity. Unknown ids are a no-op.
func SetQuantity(current []domain.CartItem, id string, delta int) []domain.CartItem {
	out := make([]domain.CartItem, len(current))
	copy(out, current)

	for i := range out {
		if out[i].ID != id {
			continue
		}
		next := out[i].Quantity + delta
		switch {
		case delta > 0 && next < out[i].Quantity:
			next = math.MaxInt
		case delta < 0 && next > out[i].Quantity:
			next = MinQuantity
		}
		if next < MinQuantity {
			next = MinQuantity
		}
		out[i].Quantity = next
	}
	return out
}

// Contains reports whether a line with the given id exists
func Contains(current []domain.CartItem, id string) bool {
	for _, item := range current {
		if item.ID == id {
			return true
		}
	}
	return false
}

// ComputeSubtotal sums price * quantity over all lines. Unparseable prices
// count as zero.
func ComputeSubtotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(ParsePrice(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// ParsePrice reads the leading decimal number of a price string, ignoring a
// currency symbol and thousands separators. Anything else parses as zero.
func ParsePrice(price string) decimal.Decimal {
	s := strings.TrimSpace(price)
	s = strings.TrimLeft(s, "₹$€£ ")
	s = strings.ReplaceAll(s, ",", "")

	match := numericPrefix.FindString(s)
	if match == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(strings.TrimSuffix(match, "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}
