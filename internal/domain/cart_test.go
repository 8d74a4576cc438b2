package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func line(id string, price int64, qty int) CartLine {
	return CartLine{Product: Product{ID: id, Name: id, Price: price}, Quantity: qty}
}

func TestCartTotal(t *testing.T) {
	lines := []CartLine{line("a", 100, 2), line("b", 250, 1)}
	if got := CartTotal(lines); got != 450 {
		t.Errorf("CartTotal = %d, want 450", got)
	}
	if got := CartItemCount(lines); got != 3 {
		t.Errorf("CartItemCount = %d, want 3", got)
	}
	if got := CartTotal(nil); got != 0 {
		t.Errorf("CartTotal(nil) = %d, want 0", got)
	}
}

func TestSumCart_Overflow(t *testing.T) {
	tests := []struct {
		name  string
		lines []CartLine
	}{
		{"line product overflows", []CartLine{line("a", 100, 0), line("b", math.MaxInt64/50, 999)}},
		{"sum overflows", []CartLine{line("a", math.MaxInt64-10, 1), line("b", 11, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SumCart(tt.lines); !errors.Is(err, ErrTotalOverflow) {
				t.Errorf("Expected ErrTotalOverflow, got %v", err)
			}
			if got := CartTotal(tt.lines); got != math.MaxInt64 {
				t.Errorf("CartTotal = %d, want saturation at MaxInt64", got)
			}
		})
	}

	total, err := SumCart([]CartLine{line("a", math.MaxInt64-10, 1), line("b", 10, 1)})
	if err != nil || total != math.MaxInt64 {
		t.Errorf("SumCart at the limit = %d, %v", total, err)
	}
}

func TestValidQuantity(t *testing.T) {
	tests := []struct {
		q    int
		want bool
	}{
		{0, false},
		{1, true},
		{MaxLineQuantity, true},
		{MaxLineQuantity + 1, false},
		{math.MaxInt64 / 50, false},
	}
	for _, tt := range tests {
		if got := ValidQuantity(tt.q); got != tt.want {
			t.Errorf("ValidQuantity(%d) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestDecodeCart_DropsOversizedQuantity(t *testing.T) {
	data := []byte(`[{"id":"a","price":100,"quantity":1000},{"id":"b","price":100,"quantity":999}]`)

	lines, dropped, err := DecodeCart(data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if dropped != 1 || len(lines) != 1 || lines[0].ID != "b" {
		t.Errorf("Expected only line b to survive, got %+v (dropped %d)", lines, dropped)
	}
}

func TestNewCartSummary(t *testing.T) {
	tests := []struct {
		name      string
		lines     []CartLine
		rate      decimal.Decimal
		wantTotal int64
		wantTax   int64
	}{
		{"empty cart", nil, DefaultTaxRate, 0, 0},
		{"rounds half up", []CartLine{line("tote-1", 4319, 1)}, DefaultTaxRate, 4665, 346},
		{"exact", []CartLine{line("a", 100, 2), line("b", 250, 1)}, DefaultTaxRate, 486, 36},
		{"zero rate", []CartLine{line("a", 999, 3)}, decimal.Zero, 2997, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCartSummary(tt.lines, tt.rate)
			if s.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", s.Total, tt.wantTotal)
			}
			if s.EstimatedTax != tt.wantTax {
				t.Errorf("EstimatedTax = %d, want %d", s.EstimatedTax, tt.wantTax)
			}
			if s.Subtotal+s.EstimatedTax != s.Total {
				t.Errorf("Subtotal %d + tax %d != total %d", s.Subtotal, s.EstimatedTax, s.Total)
			}
		})
	}
}

func TestDecodeCart_Valid(t *testing.T) {
	data := []byte(`[{"id":"tote-1","name":"Denice 2.0 Tote","price":4319,"originalPrice":5999,"category":"Tote Bags","quantity":2}]`)

	lines, dropped, err := DecodeCart(data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if dropped != 0 {
		t.Errorf("Expected 0 dropped, got %d", dropped)
	}
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].ID != "tote-1" || lines[0].Quantity != 2 || lines[0].Price != 4319 {
		t.Errorf("Unexpected line %+v", lines[0])
	}
	if lines[0].OriginalPrice == nil || *lines[0].OriginalPrice != 5999 {
		t.Errorf("Expected original price 5999, got %v", lines[0].OriginalPrice)
	}
}

func TestDecodeCart_Unparseable(t *testing.T) {
	for _, input := range []string{`{not json`, `{"id":"a"}`, `"cart"`} {
		_, _, err := DecodeCart([]byte(input))
		if !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("DecodeCart(%s): expected ErrMalformedRecord, got %v", input, err)
		}
	}
}

func TestDecodeCart_DropsInvalidLines(t *testing.T) {
	data := []byte(`[
		{"id":"ok","price":10,"quantity":1},
		{"price":10,"quantity":1},
		{"id":"no-price","quantity":1},
		{"id":"neg","price":-1,"quantity":1},
		{"id":"zero-qty","price":5,"quantity":0},
		{"id":"no-qty","price":5},
		{"id":"ok","price":99,"quantity":7},
		42,
		null
	]`)

	lines, dropped, err := DecodeCart(data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("Expected 1 surviving line, got %d", len(lines))
	}
	if lines[0].Price != 10 || lines[0].Quantity != 1 {
		t.Errorf("Expected first occurrence to win, got %+v", lines[0])
	}
	if dropped != 8 {
		t.Errorf("Expected 8 dropped, got %d", dropped)
	}
}

func TestEncodeCart_RoundTrip(t *testing.T) {
	original := []CartLine{line("a", 100, 2)}
	data, err := EncodeCart(original)
	if err != nil {
		t.Fatalf("EncodeCart failed: %v", err)
	}
	decoded, dropped, err := DecodeCart(data)
	if err != nil || dropped != 0 {
		t.Fatalf("DecodeCart failed: err=%v dropped=%d", err, dropped)
	}
	if len(decoded) != 1 || decoded[0].ID != "a" || decoded[0].Quantity != 2 {
		t.Errorf("Round trip mismatch: %+v", decoded)
	}

	empty, _ := EncodeCart(nil)
	if string(empty) != "[]" {
		t.Errorf("Expected empty cart to encode as [], got %s", empty)
	}
}

func TestDecodeWishlist(t *testing.T) {
	data := []byte(`[{"id":"a","price":1},{"id":"a","price":2},{"id":"","price":3},{"id":"b","price":4}]`)

	products, dropped, err := DecodeWishlist(data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(products) != 2 || products[0].ID != "a" || products[1].ID != "b" {
		t.Errorf("Unexpected products %+v", products)
	}
	if dropped != 2 {
		t.Errorf("Expected 2 dropped, got %d", dropped)
	}
}

func TestProductValidate(t *testing.T) {
	low := int64(5)
	tests := []struct {
		name    string
		product Product
		want    error
	}{
		{"valid", Product{ID: "a", Name: "A", Price: 10}, nil},
		{"missing id", Product{Name: "A", Price: 10}, ErrProductIDEmpty},
		{"missing name", Product{ID: "a", Price: 10}, ErrProductNameEmpty},
		{"negative price", Product{ID: "a", Name: "A", Price: -1}, ErrProductPriceNegative},
		{"original below price", Product{ID: "a", Name: "A", Price: 10, OriginalPrice: &low}, ErrProductOriginalPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.product.Validate(); err != tt.want {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProductClone_DoesNotAlias(t *testing.T) {
	price := int64(20)
	p := Product{ID: "a", OriginalPrice: &price, Colors: []string{"x"}}
	c := p.Clone()
	c.Colors[0] = "y"
	*c.OriginalPrice = 30

	if p.Colors[0] != "x" || *p.OriginalPrice != 20 {
		t.Error("Clone shares memory with the original")
	}
}
