package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
)

// MockSnapshotStore is an in-memory store.SnapshotStore with failure injection
type MockSnapshotStore struct {
	mu        sync.Mutex
	Data      map[string][]byte
	LoadErr   map[string]error
	SaveErr   map[string]error
	SaveCalls map[string]int
}

// NewMockSnapshotStore creates a new MockSnapshotStore
func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{
		Data:      make(map[string][]byte),
		LoadErr:   make(map[string]error),
		SaveErr:   make(map[string]error),
		SaveCalls: make(map[string]int),
	}
}

func snapshotKey(sessionID, key string) string {
	return sessionID + "/" + key
}

// Load returns the stored snapshot
func (m *MockSnapshotStore) Load(ctx context.Context, sessionID, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.LoadErr[key]; err != nil {
		return nil, err
	}
	data, ok := m.Data[snapshotKey(sessionID, key)]
	if !ok {
		return nil, store.ErrSnapshotNotFound
	}
	return append([]byte(nil), data...), nil
}

// Save stores a snapshot unless a failure is injected for key
func (m *MockSnapshotStore) Save(ctx context.Context, sessionID, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls[key]++
	if err := m.SaveErr[key]; err != nil {
		return err
	}
	m.Data[snapshotKey(sessionID, key)] = append([]byte(nil), data...)
	return nil
}

// Delete removes a snapshot
func (m *MockSnapshotStore) Delete(ctx context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, snapshotKey(sessionID, key))
	return nil
}

// Put seeds a raw snapshot (helper for tests)
func (m *MockSnapshotStore) Put(sessionID, key string, data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[snapshotKey(sessionID, key)] = []byte(data)
}

// Get returns a raw snapshot and whether it exists (helper for tests)
func (m *MockSnapshotStore) Get(sessionID, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Data[snapshotKey(sessionID, key)]
	return string(data), ok
}

// FailSaves makes every Save for key return err
func (m *MockSnapshotStore) FailSaves(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveErr[key] = err
}

// MockAuthProvider is a scriptable store.AuthProvider
type MockAuthProvider struct {
	mu          sync.Mutex
	User        *domain.User
	Err         error
	LoginFn     func(ctx context.Context) (*domain.User, error)
	LoginCalls  int
	LogoutCalls int
}

// Login returns the scripted user or error
func (m *MockAuthProvider) Login(ctx context.Context) (*domain.User, error) {
	m.mu.Lock()
	m.LoginCalls++
	fn, user, err := m.LoginFn, m.User, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	u := *user
	return &u, nil
}

// Logout records the call
func (m *MockAuthProvider) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LogoutCalls++
}

// StateChange is one notification captured by RecordingObserver
type StateChange struct {
	SessionID string
	Slice     store.Slice
	State     interface{}
}

// RecordingObserver captures container change notifications
type RecordingObserver struct {
	mu      sync.Mutex
	Changes []StateChange
}

// StateChanged implements store.Observer
func (o *RecordingObserver) StateChanged(sessionID string, slice store.Slice, state interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Changes = append(o.Changes, StateChange{SessionID: sessionID, Slice: slice, State: state})
}

// Slices returns the slice names notified so far, in order
func (o *RecordingObserver) Slices() []store.Slice {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]store.Slice, len(o.Changes))
	for i, c := range o.Changes {
		out[i] = c.Slice
	}
	return out
}

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	Products map[string]*domain.Product
	ListErr  error
}

// NewMockProductRepository creates a new MockProductRepository
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{Products: make(map[string]*domain.Product)}
}

// List returns products matching the filter, ordered by id
func (m *MockProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	query := strings.ToLower(filter.Query)
	result := make([]*domain.Product, 0)
	for _, p := range m.Products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Collection != "" && p.Collection != filter.Collection {
			continue
		}
		if filter.TrendingOnly && !p.Trending {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*domain.Product{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// GetByID retrieves a product by id
func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if p, ok := m.Products[id]; ok {
		clone := p.Clone()
		return &clone, nil
	}
	return nil, domain.ErrProductNotFound
}

// Upsert inserts or replaces a product
func (m *MockProductRepository) Upsert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	clone := product.Clone()
	m.Products[product.ID] = &clone
	return product, nil
}

// Delete removes a product
func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.Products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.Products, id)
	return nil
}

// AddProduct adds a product to the mock repository (helper for tests)
func (m *MockProductRepository) AddProduct(p domain.Product) {
	clone := p.Clone()
	m.Products[p.ID] = &clone
}

// MockOrderRepository is a mock implementation of domain.OrderRepository
type MockOrderRepository struct {
	mu        sync.Mutex
	Orders    map[uuid.UUID]*domain.Order
	CreateErr error
	// OnCreate runs at the start of Create, before the repository lock
	OnCreate func(order *domain.Order)
}

// NewMockOrderRepository creates a new MockOrderRepository
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{Orders: make(map[uuid.UUID]*domain.Order)}
}

// Create stores an order, assigning id and timestamps
func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if m.OnCreate != nil {
		m.OnCreate(order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now()
	order.CreatedAt = now.Add(time.Duration(len(m.Orders)) * time.Millisecond)
	order.UpdatedAt = order.CreatedAt
	m.Orders[order.ID] = order
	return order, nil
}

// GetByID retrieves an order
func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.Orders[id]; ok {
		return o, nil
	}
	return nil, domain.ErrOrderNotFound
}

// ListByCustomer returns a customer's orders newest first
func (m *MockOrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Order, 0)
	for _, o := range m.Orders {
		if o.CustomerID == customerID {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// List returns all orders newest first
func (m *MockOrderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Order, 0, len(m.Orders))
	for _, o := range m.Orders {
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if offset >= len(result) {
		return []*domain.Order{}, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UpdateStatus sets an order's status
func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.Orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return o, nil
}

// MockOrderPublisher records published order events
type MockOrderPublisher struct {
	mu     sync.Mutex
	Orders []*domain.Order
	Err    error
}

// PublishOrderPlaced records the order
func (m *MockOrderPublisher) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Orders = append(m.Orders, order)
	return nil
}

// MockImageRepository is an in-memory storage.ImageRepository
type MockImageRepository struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	UploadErr error
}

// NewMockImageRepository creates a new MockImageRepository
func NewMockImageRepository() *MockImageRepository {
	return &MockImageRepository{Objects: make(map[string][]byte)}
}

// Upload stores the object and returns its URL
func (m *MockImageRepository) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	m.Objects[objectPath] = append([]byte(nil), data...)
	return m.GenerateURL(objectPath), nil
}

// Delete removes the object
func (m *MockImageRepository) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	return nil
}

// GenerateURL returns a fake public URL
func (m *MockImageRepository) GenerateURL(objectPath string) string {
	return fmt.Sprintf("https://images.test/%s", objectPath)
}
