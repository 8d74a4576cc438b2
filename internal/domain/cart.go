package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the estimated sales tax shown on cart and checkout pages
var DefaultTaxRate = decimal.NewFromFloat(0.08)

// CartLine is a product paired with a purchase quantity.
// Product fields are flattened next to quantity in the JSON shape.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

// ValidQuantity reports whether q may be stored on a cart line
func ValidQuantity(q int) bool {
	return q >= 1 && q <= MaxLineQuantity
}

// LineTotal returns unit price times quantity, or ErrTotalOverflow when the
// product does not fit in an int64
func (l CartLine) LineTotal() (int64, error) {
	if l.Price < 0 || l.Quantity < 0 {
		return 0, fmt.Errorf("%w: negative line %s", ErrTotalOverflow, l.ID)
	}
	if l.Quantity > 0 && l.Price > math.MaxInt64/int64(l.Quantity) {
		return 0, fmt.Errorf("%w: line %s", ErrTotalOverflow, l.ID)
	}
	return l.Price * int64(l.Quantity), nil
}

// Clone returns a deep copy of the line
func (l CartLine) Clone() CartLine {
	return CartLine{Product: l.Product.Clone(), Quantity: l.Quantity}
}

// SumCart sums price × quantity over all lines, failing with
// ErrTotalOverflow instead of wrapping
func SumCart(lines []CartLine) (int64, error) {
	var total int64
	for _, line := range lines {
		lt, err := line.LineTotal()
		if err != nil {
			return 0, err
		}
		if total > math.MaxInt64-lt {
			return 0, fmt.Errorf("%w: %d lines", ErrTotalOverflow, len(lines))
		}
		total += lt
	}
	return total, nil
}

// CartTotal sums price × quantity over all lines. A sum that does not fit
// in an int64 saturates at math.MaxInt64.
func CartTotal(lines []CartLine) int64 {
	total, err := SumCart(lines)
	if err != nil {
		return math.MaxInt64
	}
	return total
}

// CartItemCount sums quantities over all lines
func CartItemCount(lines []CartLine) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

// CartSummary holds the derived cart figures shown at checkout
type CartSummary struct {
	LineCount    int   `json:"lineCount"`
	ItemCount    int   `json:"itemCount"`
	Subtotal     int64 `json:"subtotal"`
	EstimatedTax int64 `json:"estimatedTax"`
	Total        int64 `json:"total"`
}

// NewCartSummary derives a summary from cart lines. The grand total is
// rounded half-up to a whole unit and the tax is the difference.
func NewCartSummary(lines []CartLine, taxRate decimal.Decimal) CartSummary {
	subtotal := CartTotal(lines)
	total := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(1).Add(taxRate)).
		Round(0).
		IntPart()

	return CartSummary{
		LineCount:    len(lines),
		ItemCount:    CartItemCount(lines),
		Subtotal:     subtotal,
		EstimatedTax: total - subtotal,
		Total:        total,
	}
}

// productRecord is the loose shape of a persisted product. Pointer fields
// let the decoder tell a missing value from a zero one.
type productRecord struct {
	ID            *string  `json:"id"`
	Name          string   `json:"name"`
	Price         *int64   `json:"price"`
	OriginalPrice *int64   `json:"originalPrice"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Collection    string   `json:"collection"`
	Image         string   `json:"image"`
	Colors        []string `json:"colors"`
	Trending      bool     `json:"trending"`
	Features      []string `json:"features"`
	Quantity      *int     `json:"quantity"`
}

func (r *productRecord) toProduct() (Product, error) {
	if r.ID == nil || strings.TrimSpace(*r.ID) == "" {
		return Product{}, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if r.Price == nil {
		return Product{}, fmt.Errorf("%w: product %s has no price", ErrMalformedRecord, *r.ID)
	}
	if *r.Price < 0 {
		return Product{}, fmt.Errorf("%w: product %s has negative price", ErrMalformedRecord, *r.ID)
	}
	return Product{
		ID:            *r.ID,
		Name:          r.Name,
		Price:         *r.Price,
		OriginalPrice: r.OriginalPrice,
		Description:   r.Description,
		Category:      r.Category,
		Collection:    r.Collection,
		Image:         r.Image,
		Colors:        r.Colors,
		Trending:      r.Trending,
		Features:      r.Features,
	}, nil
}

// decodeRecords splits a JSON array into records. Elements that do not
// decode as objects are reported through skipped.
func decodeRecords(data []byte) (records []productRecord, skipped int, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	records = make([]productRecord, 0, len(raw))
	for _, elem := range raw {
		var rec productRecord
		if err := json.Unmarshal(elem, &rec); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// DecodeCart parses a persisted cart. Input that is not a JSON array fails
// as a whole; individual lines without id or price, with a negative price or
// with quantity outside 1..MaxLineQuantity are dropped, and a repeated product id keeps its
// first line.
func DecodeCart(data []byte) (lines []CartLine, dropped int, err error) {
	records, dropped, err := decodeRecords(data)
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[string]bool, len(records))
	lines = make([]CartLine, 0, len(records))
	for i := range records {
		product, err := records[i].toProduct()
		if err != nil || records[i].Quantity == nil || !ValidQuantity(*records[i].Quantity) || seen[product.ID] {
			dropped++
			continue
		}
		seen[product.ID] = true
		lines = append(lines, CartLine{Product: product, Quantity: *records[i].Quantity})
	}
	return lines, dropped, nil
}

// EncodeCart serializes cart lines for persistence
func EncodeCart(lines []CartLine) ([]byte, error) {
	if lines == nil {
		lines = []CartLine{}
	}
	return json.Marshal(lines)
}
