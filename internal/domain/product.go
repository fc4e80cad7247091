package domain

import (
	"fmt"
	"strings"
)

const (
	// PriceUnavailable is shown in listings when a product has no price
	PriceUnavailable = "N/A"

	// PriceUnavailableDetail is shown on the details view when a product has no price
	PriceUnavailableDetail = "—"

	// PlaceholderImageURL is substituted by the catalog when a record carries no image.
	// It is treated as "no image" everywhere downstream.
	PlaceholderImageURL = "https://via.placeholder.com/150"
)

// Product represents a normalized catalog record
type Product struct {
	ID          string   `json:"id" validate:"required"`
	Name        string   `json:"name"`
	Price       string   `json:"price,omitempty"`
	Description string   `json:"description,omitempty"`
	BrandName   string   `json:"brandName,omitempty"`
	Images      []string `json:"images,omitempty"`
	Barcode     string   `json:"barcode,omitempty"`
}

// DisplayName returns the product name, or a fallback for unnamed records
func (p Product) DisplayName() string {
	if strings.TrimSpace(p.Name) == "" {
		return "No Name"
	}
	return p.Name
}

// DisplayPrice returns the listing price label
func (p Product) DisplayPrice() string {
	if !p.HasPrice() {
		return PriceUnavailable
	}
	return p.Price
}

// DetailPrice returns the price label used on the details view
func (p Product) DetailPrice() string {
	if !p.HasPrice() {
		return PriceUnavailableDetail
	}
	return p.Price
}

// HasPrice reports whether the record carried a usable price
func (p Product) HasPrice() bool {
	price := strings.TrimSpace(p.Price)
	return price != "" && price != PriceUnavailable
}

// DisplayImage returns the first renderable image URL, or "" when a local
// placeholder should be used instead
func (p Product) DisplayImage() string {
	for _, img := range p.Images {
		img = strings.TrimSpace(img)
		if img == "" || img == PlaceholderImageURL {
			continue
		}
		return img
	}
	return ""
}

// ShareMessage is the text used when sharing a product
func (p Product) ShareMessage() string {
	return fmt.Sprintf("Check out this product: %s\nPrice: ₹%s\n", p.DisplayName(), p.DetailPrice())
}

// CartItem is a product line in the cart
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}
