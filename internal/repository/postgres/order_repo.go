package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
)

const orderColumns = `id, customer_id, items, total_amount, status, created_at, updated_at`

// OrderRepository implements domain.OrderRepository using PostgreSQL
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o     domain.Order
		items []byte
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &items, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("%w: order %s items: %v", domain.ErrMalformedRecord, o.ID, err)
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*domain.Order, error) {
	defer rows.Close()
	result := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

// Create stores a new order, assigning its id when unset
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	items, err := domain.EncodeCart(order.Items)
	if err != nil {
		return nil, err
	}

	created, err := scanOrder(r.db.QueryRow(ctx, `
		INSERT INTO orders (id, customer_id, items, total_amount, status)
		VALUES ($1, $2, $3::jsonb, $4, $5)
		RETURNING `+orderColumns,
		order.ID, order.CustomerID, string(items), order.TotalAmount, order.Status,
	))
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, fmt.Errorf("%w: duplicate order id", domain.ErrInvalidInput)
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves an order by its ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

// ListByCustomer retrieves a customer's orders newest first
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// List retrieves all orders newest first
func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// UpdateStatus sets an order's status
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+orderColumns,
		id, status,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}
