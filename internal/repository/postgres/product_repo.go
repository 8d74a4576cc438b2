package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
)

const productColumns = `id, name, price, original_price, description, category, collection, image, colors, trending, features`

// ProductRepository implements domain.ProductRepository using PostgreSQL
type ProductRepository struct {
	db DBTX
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// buildProductQuery turns a filter into a SELECT with positional arguments
func buildProductQuery(filter domain.ProductFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		where = append(where, "category = "+arg(filter.Category))
	}
	if filter.Collection != "" {
		where = append(where, "collection = "+arg(filter.Collection))
	}
	if filter.TrendingOnly {
		where = append(where, "trending = TRUE")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := arg("%" + q + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", p, p))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + productColumns + " FROM products")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY id")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
	}
	if filter.Offset > 0 {
		sb.WriteString(" OFFSET " + arg(filter.Offset))
	}
	return sb.String(), args
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.OriginalPrice, &p.Description,
		&p.Category, &p.Collection, &p.Image, &p.Colors, &p.Trending, &p.Features)
	if err != nil {
		return nil, err
	}
	if len(p.Colors) == 0 {
		p.Colors = nil
	}
	if len(p.Features) == 0 {
		p.Features = nil
	}
	return &p, nil
}

// List retrieves products matching the filter ordered by id
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	query, args := buildProductQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetByID retrieves a product by its ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// Upsert creates or replaces a product
func (r *ProductRepository) Upsert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	colors := product.Colors
	if colors == nil {
		colors = []string{}
	}
	features := product.Features
	if features == nil {
		features = []string{}
	}

	p, err := scanProduct(r.db.QueryRow(ctx, `
		INSERT INTO products (`+productColumns+`, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			collection = EXCLUDED.collection,
			image = EXCLUDED.image,
			colors = EXCLUDED.colors,
			trending = EXCLUDED.trending,
			features = EXCLUDED.features,
			updated_at = NOW()
		RETURNING `+productColumns,
		product.ID, product.Name, product.Price, product.OriginalPrice, product.Description,
		product.Category, product.Collection, product.Image, colors, product.Trending, features,
	))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
