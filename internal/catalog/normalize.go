package catalog

import (
	"strings"

	"storefront/internal/domain"

	"github.com/spf13/cast"
)

// rawProduct mirrors a catalog record. Field types vary between records
// (ids and prices arrive as numbers or strings, image and barcode lists as a
// list or a single string), so they are decoded loosely and coerced here.
type rawProduct struct {
	ID               interface{}  `json:"id"`
	ProductID        interface{}  `json:"productId"`
	Name             interface{}  `json:"name"`
	Price            interface{}  `json:"price"`
	ShortDescription interface{}  `json:"shortDescription"`
	Description      interface{}  `json:"description"`
	BrandName        interface{}  `json:"brandName"`
	ImageURLs        interface{}  `json:"imageUrls"`
	Variants         []rawVariant `json:"variants"`
}

type rawVariant struct {
	Images   interface{} `json:"images"`
	Barcodes interface{} `json:"barcodes"`
}

func (r rawProduct) normalize() domain.Product {
	p := domain.Product{
		ID:        firstNonEmpty(cast.ToString(r.ID), cast.ToString(r.ProductID)),
		Name:      strings.TrimSpace(cast.ToString(r.Name)),
		Price:     domain.PriceUnavailable,
		BrandName: strings.TrimSpace(cast.ToString(r.BrandName)),
	}

	if r.Price != nil {
		if price := strings.TrimSpace(cast.ToString(r.Price)); price != "" {
			p.Price = price
		}
	}

	p.Description = firstNonEmpty(
		strings.TrimSpace(cast.ToString(r.ShortDescription)),
		strings.TrimSpace(cast.ToString(r.Description)),
	)

	images := toList(r.ImageURLs)
	var barcodes []string
	for _, v := range r.Variants {
		images = append(images, toList(v.Images)...)
		barcodes = append(barcodes, toList(v.Barcodes)...)
	}
	if len(images) == 0 {
		images = []string{domain.PlaceholderImageURL}
	}
	p.Images = images

	if len(barcodes) > 0 {
		p.Barcode = barcodes[0]
	}

	return p
}

// toList accepts a list of values or a single string and drops blanks
func toList(v interface{}) []string {
	if v == nil {
		return nil
	}

	var values []string
	if s, ok := v.(string); ok {
		values = []string{s}
	} else {
		values = cast.ToStringSlice(v)
	}

	out := make([]string, 0, len(values))
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// toCount coerces a numeric-or-string count, falling back to def
func toCount(v interface{}, def int) int {
	raw := cast.ToString(v)
	n, err := cast.ToIntE(raw)
	if err != nil {
		f, ferr := cast.ToFloat64E(raw)
		if ferr != nil {
			return def
		}
		n = int(f)
	}
	if n < def {
		return def
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
