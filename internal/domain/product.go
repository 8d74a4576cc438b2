package domain

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrProductIDEmpty       = errors.New("product id is required")
	ErrProductIDTooLong     = errors.New("product id must be 128 characters or less")
	ErrProductNameEmpty     = errors.New("product name is required")
	ErrProductNameTooLong   = errors.New("product name must be 255 characters or less")
	ErrProductPriceNegative = errors.New("product price cannot be negative")
	ErrProductOriginalPrice = errors.New("original price must not be lower than price")
)

// Product is a catalog entry. Prices are whole currency units.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         int64    `json:"price"`
	OriginalPrice *int64   `json:"originalPrice,omitempty"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Collection    string   `json:"collection,omitempty"`
	Image         string   `json:"image"`
	Colors        []string `json:"colors,omitempty"`
	Trending      bool     `json:"trending,omitempty"`
	Features      []string `json:"features,omitempty"`
}

// Validate checks the fields a cart line or catalog row cannot do without
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrProductIDEmpty
	}
	if len(p.ID) > MaxProductIDLength {
		return ErrProductIDTooLong
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrProductNameEmpty
	}
	if len(p.Name) > MaxProductNameLength {
		return ErrProductNameTooLong
	}
	if p.Price < 0 {
		return ErrProductPriceNegative
	}
	if p.OriginalPrice != nil && *p.OriginalPrice < p.Price {
		return ErrProductOriginalPrice
	}
	return nil
}

// OnSale reports whether the product carries a list price above its current price
func (p *Product) OnSale() bool {
	return p.OriginalPrice != nil && *p.OriginalPrice > p.Price
}

// Clone returns a deep copy so callers cannot alias slices held by the store
func (p Product) Clone() Product {
	out := p
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		out.OriginalPrice = &v
	}
	if p.Colors != nil {
		out.Colors = append([]string(nil), p.Colors...)
	}
	if p.Features != nil {
		out.Features = append([]string(nil), p.Features...)
	}
	return out
}

// ProductFilter narrows catalog listings. Zero values mean "any".
type ProductFilter struct {
	Category     string
	Collection   string
	TrendingOnly bool
	Query        string
	Limit        int
	Offset       int
}

// ProductRepository defines the interface for catalog persistence
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]*Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Upsert(ctx context.Context, product *Product) (*Product, error)
	Delete(ctx context.Context, id string) error
}
