package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
	"github.com/lorahalle/storefront/storefront-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingOrderObserver struct {
	mu       sync.Mutex
	sessions []string
}

func (o *recordingOrderObserver) OrderPlaced(sessionID string, order *domain.Order) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessions = append(o.sessions, sessionID)
}

func newCheckoutContainer(t *testing.T, auth store.AuthProvider) *store.Container {
	t.Helper()
	var opts []store.Option
	if auth != nil {
		opts = append(opts, store.WithAuthProvider(auth))
	}
	c, err := store.New(context.Background(), "s1", testutil.NewMockSnapshotStore(), opts...)
	require.NoError(t, err)
	return c
}

func TestPlaceOrder_Guest(t *testing.T) {
	ctx := context.Background()
	orders := testutil.NewMockOrderRepository()
	publisher := &testutil.MockOrderPublisher{}
	observer := &recordingOrderObserver{}
	svc := NewCheckoutService(orders, publisher, observer)

	c := newCheckoutContainer(t, nil)
	c.AddToCart(ctx, domain.Product{ID: "a", Name: "A", Price: 100})
	c.AddToCart(ctx, domain.Product{ID: "a", Name: "A", Price: 100})
	c.AddToCart(ctx, domain.Product{ID: "b", Name: "B", Price: 250})

	order, err := svc.PlaceOrder(ctx, c)
	require.NoError(t, err)

	assert.Equal(t, domain.GuestCustomerID, order.CustomerID)
	assert.Equal(t, int64(450), order.TotalAmount)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Len(t, order.Items, 2)
	assert.Empty(t, c.Cart())
	assert.Len(t, publisher.Orders, 1)
	assert.Equal(t, []string{"s1"}, observer.sessions)
}

func TestPlaceOrder_SignedInCustomer(t *testing.T) {
	ctx := context.Background()
	orders := testutil.NewMockOrderRepository()
	svc := NewCheckoutService(orders, nil, nil)

	c := newCheckoutContainer(t, &testutil.MockAuthProvider{User: &domain.User{ID: "u1", Role: domain.RoleUser}})
	_, err := c.Login(ctx)
	require.NoError(t, err)
	c.AddToCart(ctx, domain.Product{ID: "a", Name: "A", Price: 100})

	order, err := svc.PlaceOrder(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "u1", order.CustomerID)

	mine, err := svc.CustomerOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	svc := NewCheckoutService(testutil.NewMockOrderRepository(), nil, nil)

	_, err := svc.PlaceOrder(context.Background(), newCheckoutContainer(t, nil))
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Errorf("Expected ErrEmptyCart, got %v", err)
	}
}

func TestPlaceOrder_StoreFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	orders := testutil.NewMockOrderRepository()
	orders.CreateErr = errors.New("db down")
	svc := NewCheckoutService(orders, nil, nil)

	c := newCheckoutContainer(t, nil)
	c.AddToCart(ctx, domain.Product{ID: "a", Name: "A", Price: 100})

	_, err := svc.PlaceOrder(ctx, c)
	assert.Error(t, err)
	assert.Len(t, c.Cart(), 1)
}

func TestPlaceOrder_KeepsLinesAddedWhileStoring(t *testing.T) {
	ctx := context.Background()
	orders := testutil.NewMockOrderRepository()
	svc := NewCheckoutService(orders, nil, nil)

	c := newCheckoutContainer(t, nil)
	c.AddToCart(ctx, domain.Product{ID: "a", Name: "A", Price: 100})
	orders.OnCreate = func(order *domain.Order) {
		c.AddToCart(ctx, domain.Product{ID: "b", Name: "B", Price: 250})
	}

	order, err := svc.PlaceOrder(ctx, c)
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "a", order.Items[0].ID)
	assert.Equal(t, int64(100), order.TotalAmount)

	cart := c.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, "b", cart[0].ID)
}

func TestPlaceOrder_StoreFailureMergesConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	orders := testutil.NewMockOrderRepository()
	orders.CreateErr = errors.New("db down")
	svc := NewCheckoutService(orders, nil, nil)

	c := newCheckoutContainer(t, nil)
	c.AddToCart(ctx, domain.Product{ID: "a", Name: "A", Price: 100})
	orders.OnCreate = func(order *domain.Order) {
		c.AddToCart(ctx, domain.Product{ID: "a", Name: "A", Price: 100})
		c.AddToCart(ctx, domain.Product{ID: "b", Name: "B", Price: 250})
	}

	_, err := svc.PlaceOrder(ctx, c)
	require.Error(t, err)

	cart := c.Cart()
	require.Len(t, cart, 2)
	assert.Equal(t, "a", cart[0].ID)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Equal(t, "b", cart[1].ID)
	assert.Equal(t, int64(450), c.CartTotal())
}

func TestPlaceOrder_ConcurrentCheckoutsOrderOnce(t *testing.T) {
	ctx := context.Background()
	orders := testutil.NewMockOrderRepository()
	svc := NewCheckoutService(orders, nil, nil)

	c := newCheckoutContainer(t, nil)
	c.AddToCart(ctx, domain.Product{ID: "a", Name: "A", Price: 100})
	c.AddToCart(ctx, domain.Product{ID: "b", Name: "B", Price: 250})

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		placed    int
		emptyCart int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(ctx, c)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, domain.ErrEmptyCart):
				emptyCart++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, placed)
	assert.Equal(t, workers-1, emptyCart)
	assert.Len(t, orders.Orders, 1)
	assert.Empty(t, c.Cart())
}

func TestPlaceOrder_TotalOutOfRange(t *testing.T) {
	ctx := context.Background()
	orders := testutil.NewMockOrderRepository()
	svc := NewCheckoutService(orders, nil, nil)

	c := newCheckoutContainer(t, nil)
	c.AddToCart(ctx, domain.Product{ID: "a", Name: "A", Price: math.MaxInt64 / 2})
	c.AddToCart(ctx, domain.Product{ID: "b", Name: "B", Price: math.MaxInt64 / 2})
	c.AddToCart(ctx, domain.Product{ID: "c", Name: "C", Price: 2})

	_, err := svc.PlaceOrder(ctx, c)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, err, domain.ErrTotalOverflow)
	assert.Empty(t, orders.Orders)
	assert.Len(t, c.Cart(), 3)
}

func TestPlaceOrder_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	publisher := &testutil.MockOrderPublisher{Err: errors.New("broker unavailable")}
	svc := NewCheckoutService(testutil.NewMockOrderRepository(), publisher, nil)

	c := newCheckoutContainer(t, nil)
	c.AddToCart(ctx, domain.Product{ID: "a", Name: "A", Price: 100})

	order, err := svc.PlaceOrder(ctx, c)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Empty(t, c.Cart())
}

func TestCustomerOrders_RequiresCustomer(t *testing.T) {
	svc := NewCheckoutService(testutil.NewMockOrderRepository(), nil, nil)
	_, err := svc.CustomerOrders(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.CustomerOrders(context.Background(), domain.GuestCustomerID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	orders := testutil.NewMockOrderRepository()
	svc := NewCheckoutService(orders, nil, nil)
	created, err := orders.Create(ctx, &domain.Order{CustomerID: "u1", Status: domain.OrderStatusPending})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, created.ID, domain.OrderStatus("lost"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.UpdateStatus(ctx, created.ID, domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, domain.ErrInvalidOrderFlow)

	updated, err := svc.UpdateStatus(ctx, created.ID, domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)

	_, err = svc.UpdateStatus(ctx, uuid.New(), domain.OrderStatusShipped)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListOrders_NewestFirst(t *testing.T) {
	ctx := context.Background()
	orders := testutil.NewMockOrderRepository()
	svc := NewCheckoutService(orders, nil, nil)
	first, _ := orders.Create(ctx, &domain.Order{CustomerID: "u1", Status: domain.OrderStatusPending})
	second, _ := orders.Create(ctx, &domain.Order{CustomerID: "u2", Status: domain.OrderStatusPending})

	list, err := svc.ListOrders(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}
