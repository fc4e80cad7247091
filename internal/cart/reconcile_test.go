package cart

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"storefront/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// genCart builds a duplicate-free cart
func genCart() gopter.Gen {
	return gen.SliceOf(gen.IntRange(1, 50)).Map(func(quantities []int) []domain.CartItem {
		items := make([]domain.CartItem, len(quantities))
		for i, q := range quantities {
			items[i] = domain.CartItem{
				Product: domain.Product{
					ID:    fmt.Sprintf("p-%d", i),
					Name:  fmt.Sprintf("Product %d", i),
					Price: fmt.Sprintf("%d", i*5),
				},
				Quantity: q,
			}
		}
		return items
	})
}

func TestProperty_AddExistingAccumulatesQuantity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adding a product already in the cart only increases its quantity", prop.ForAll(
		func(current []domain.CartItem, pick int, quantity int) bool {
			if len(current) == 0 {
				return true
			}
			idx := pick % len(current)
			product := current[idx].Product

			next := AddToCart(current, product, quantity)

			if len(next) != len(current) {
				t.Logf("FAIL: length changed from %d to %d", len(current), len(next))
				return false
			}
			for i := range current {
				want := current[i]
				if i == idx {
					want.Quantity += quantity
				}
				if !reflect.DeepEqual(next[i], want) {
					t.Logf("FAIL: line %d expected %+v, got %+v", i, want, next[i])
					return false
				}
			}
			return true
		},
		genCart(),
		gen.IntRange(0, 1000),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_AddNewAppendsOneLine(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adding a new product appends exactly one line", prop.ForAll(
		func(current []domain.CartItem, quantity int) bool {
			product := domain.Product{ID: "new-product", Name: "New", Price: "3"}
			next := AddToCart(current, product, quantity)

			if len(next) != len(current)+1 {
				return false
			}
			if !reflect.DeepEqual(next[:len(current)], current) && len(current) > 0 {
				return false
			}
			last := next[len(next)-1]
			return last.Product.ID == product.ID && last.Quantity == quantity
		},
		genCart(),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAddToCartDoesNotModifyInput(t *testing.T) {
	current := []domain.CartItem{{Product: domain.Product{ID: "a"}, Quantity: 1}}
	_ = AddToCart(current, domain.Product{ID: "a"}, 4)

	if current[0].Quantity != 1 {
		t.Errorf("input mutated: quantity %d", current[0].Quantity)
	}
}

func TestAddToCartClampsQuantity(t *testing.T) {
	next := AddToCart(nil, domain.Product{ID: "a"}, 0)
	if len(next) != 1 || next[0].Quantity != MinQuantity {
		t.Errorf("expected one line with quantity %d, got %+v", MinQuantity, next)
	}
}

func TestProperty_RemoveNonMemberIsNoOp(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("removing an unknown id returns an equal list", prop.ForAll(
		func(current []domain.CartItem) bool {
			next := RemoveFromCart(current, "not-in-cart")
			if len(current) == 0 {
				return len(next) == 0
			}
			return reflect.DeepEqual(next, current)
		},
		genCart(),
	))

	properties.Property("removing a member drops exactly that line", prop.ForAll(
		func(current []domain.CartItem, pick int) bool {
			if len(current) == 0 {
				return true
			}
			id := current[pick%len(current)].ID
			next := RemoveFromCart(current, id)
			return len(next) == len(current)-1 && !Contains(next, id)
		},
		genCart(),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_SetQuantityNeverBelowOne(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("quantity stays at least 1 for any delta", prop.ForAll(
		func(current []domain.CartItem, pick int, delta int) bool {
			if len(current) == 0 {
				return true
			}
			idx := pick % len(current)
			next := SetQuantity(current, current[idx].ID, delta)

			for i, item := range next {
				if item.Quantity < MinQuantity {
					t.Logf("FAIL: line %d has quantity %d after delta %d", i, item.Quantity, delta)
					return false
				}
				if i != idx && item.Quantity != current[i].Quantity {
					return false
				}
			}

			want := current[idx].Quantity + delta
			if want < MinQuantity {
				want = MinQuantity
			}
			return next[idx].Quantity == want
		},
		genCart(),
		gen.IntRange(0, 1000),
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSetQuantityExtremeDeltas(t *testing.T) {
	current := []domain.CartItem{{Product: domain.Product{ID: "a"}, Quantity: 3}}

	if got := SetQuantity(current, "a", math.MinInt)[0].Quantity; got != MinQuantity {
		t.Errorf("MinInt delta: expected %d, got %d", MinQuantity, got)
	}
	if got := SetQuantity(current, "a", math.MaxInt)[0].Quantity; got != math.MaxInt {
		t.Errorf("MaxInt delta: expected saturation, got %d", got)
	}
	if got := SetQuantity(current, "missing", -5); !reflect.DeepEqual(got, current) {
		t.Errorf("unknown id should be a no-op, got %+v", got)
	}
}

func TestComputeSubtotal(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.CartItem
		want  string
	}{
		{
			name: "malformed price contributes zero",
			items: []domain.CartItem{
				{Product: domain.Product{ID: "1", Price: "10"}, Quantity: 2},
				{Product: domain.Product{ID: "2", Price: "bad"}, Quantity: 3},
			},
			want: "20",
		},
		{
			name: "absent price contributes zero",
			items: []domain.CartItem{
				{Product: domain.Product{ID: "1"}, Quantity: 4},
				{Product: domain.Product{ID: "2", Price: "N/A"}, Quantity: 1},
			},
			want: "0",
		},
		{
			name: "decimal and formatted prices",
			items: []domain.CartItem{
				{Product: domain.Product{ID: "1", Price: "19.99"}, Quantity: 3},
				{Product: domain.Product{ID: "2", Price: "₹1,299"}, Quantity: 1},
			},
			want: "1358.97",
		},
		{
			name: "empty cart",
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSubtotal(tt.items)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := map[string]string{
		"1299":     "1299",
		" 12.50 ":  "12.5",
		"$7":       "7",
		"10abc":    "10",
		"5.":       "5",
		"-3":       "-3",
		"":         "0",
		"free":     "0",
		"N/A":      "0",
		"1,000.25": "1000.25",
	}

	for in, want := range tests {
		if got := ParsePrice(in); !got.Equal(decimal.RequireFromString(want)) {
			t.Errorf("ParsePrice(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestToggleWishlist(t *testing.T) {
	product := domain.Product{ID: "w1", Name: "Headphones"}

	list := ToggleWishlist(nil, product)
	if !Contains(list, "w1") || len(list) != 1 {
		t.Fatalf("expected product added, got %+v", list)
	}

	list = ToggleWishlist(list, product)
	if Contains(list, "w1") || len(list) != 0 {
		t.Fatalf("expected product removed, got %+v", list)
	}
}
