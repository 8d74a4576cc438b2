package domain

import "encoding/json"

// DecodeWishlist parses a persisted wishlist with the same rules as
// DecodeCart, minus quantity.
func DecodeWishlist(data []byte) (products []Product, dropped int, err error) {
	records, dropped, err := decodeRecords(data)
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[string]bool, len(records))
	products = make([]Product, 0, len(records))
	for i := range records {
		product, err := records[i].toProduct()
		if err != nil || seen[product.ID] {
			dropped++
			continue
		}
		seen[product.ID] = true
		products = append(products, product)
	}
	return products, dropped, nil
}

// EncodeWishlist serializes wishlist products for persistence
func EncodeWishlist(products []Product) ([]byte, error) {
	if products == nil {
		products = []Product{}
	}
	return json.Marshal(products)
}
