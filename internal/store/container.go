// Package store implements the per-session state container: cart, wishlist,
// signed-in user and cart drawer flag, each persisted as its own snapshot.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrNoAuthProvider is returned by Login when the container has no provider
var ErrNoAuthProvider = errors.New("no auth provider configured")

// AuthProvider establishes the signed-in user for a session
type AuthProvider interface {
	Login(ctx context.Context) (*domain.User, error)
	Logout(ctx context.Context)
}

// Slice names a part of the container state in change notifications
type Slice string

const (
	SliceCart     Slice = "cart"
	SliceWishlist Slice = "wishlist"
	SliceUser     Slice = "session"
	SliceDrawer   Slice = "drawer"
)

// Observer is told about every applied state change. It is called with the
// container lock held and must not call back into the container.
type Observer interface {
	StateChanged(sessionID string, slice Slice, state interface{})
}

// View is a read-only copy of the whole container state
type View struct {
	Cart      []domain.CartLine `json:"cart"`
	Wishlist  []domain.Product  `json:"wishlist"`
	User      *domain.User      `json:"user"`
	CartOpen  bool              `json:"isCartOpen"`
	CartTotal int64             `json:"cartTotal"`
	CartCount int               `json:"cartCount"`
}

// Option configures a Container
type Option func(*Container)

// WithAuthProvider sets the provider used by Login and Logout
func WithAuthProvider(auth AuthProvider) Option {
	return func(c *Container) { c.auth = auth }
}

// WithObserver registers a change observer
func WithObserver(o Observer) Option {
	return func(c *Container) { c.observer = o }
}

// Container is the single source of truth for one session's storefront
// state. It is safe for concurrent use.
type Container struct {
	sessionID string
	snapshots SnapshotStore
	auth      AuthProvider
	observer  Observer
	logger    zerolog.Logger

	mu       sync.Mutex
	cart     []domain.CartLine
	wishlist []domain.Product
	user     *domain.User
	cartOpen bool
}

// New builds a container for sessionID and loads its three snapshots.
// A snapshot that is absent, unreadable or malformed falls back to its
// default without affecting the others.
func New(ctx context.Context, sessionID string, snapshots SnapshotStore, opts ...Option) (*Container, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionRequired
	}
	if snapshots == nil {
		return nil, errors.New("snapshot store is required")
	}

	c := &Container{
		sessionID: sessionID,
		snapshots: snapshots,
		logger:    log.With().Str("session_id", sessionID).Logger(),
		cart:      []domain.CartLine{},
		wishlist:  []domain.Product{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.loadCart(ctx)
	c.loadWishlist(ctx)
	c.loadUser(ctx)

	return c, nil
}

// SessionID returns the session the container belongs to
func (c *Container) SessionID() string {
	return c.sessionID
}

// load reads one snapshot. ok is false when the caller should keep the default.
func (c *Container) load(ctx context.Context, key string) (data []byte, ok bool) {
	data, err := c.snapshots.Load(ctx, c.sessionID, key)
	if err != nil {
		if !errors.Is(err, ErrSnapshotNotFound) {
			metrics.SnapshotFailures.WithLabelValues(key, "load").Inc()
			c.logger.Error().Err(err).Str("snapshot", key).Msg("Failed to load snapshot")
		}
		return nil, false
	}
	return data, true
}

func (c *Container) loadCart(ctx context.Context) {
	data, ok := c.load(ctx, KeyCart)
	if !ok {
		return
	}
	lines, dropped, err := domain.DecodeCart(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("snapshot", KeyCart).Msg("Discarding malformed snapshot")
		c.persistCart(ctx)
		return
	}
	c.cart = lines
	if dropped > 0 {
		c.logger.Warn().Int("dropped", dropped).Str("snapshot", KeyCart).Msg("Dropped invalid snapshot entries")
		c.persistCart(ctx)
	}
}

func (c *Container) loadWishlist(ctx context.Context) {
	data, ok := c.load(ctx, KeyWishlist)
	if !ok {
		return
	}
	products, dropped, err := domain.DecodeWishlist(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("snapshot", KeyWishlist).Msg("Discarding malformed snapshot")
		c.persistWishlist(ctx)
		return
	}
	c.wishlist = products
	if dropped > 0 {
		c.logger.Warn().Int("dropped", dropped).Str("snapshot", KeyWishlist).Msg("Dropped invalid snapshot entries")
		c.persistWishlist(ctx)
	}
}

func (c *Container) loadUser(ctx context.Context) {
	data, ok := c.load(ctx, KeyUser)
	if !ok {
		return
	}
	user, err := domain.DecodeUser(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("snapshot", KeyUser).Msg("Discarding malformed snapshot")
		c.persistUser(ctx)
		return
	}
	c.user = user
}

// save writes a snapshot. Failures are logged and counted, never returned:
// in-memory state stays authoritative for the running session.
func (c *Container) save(ctx context.Context, key string, data []byte, encErr error) {
	if encErr == nil {
		encErr = c.snapshots.Save(ctx, c.sessionID, key, data)
	}
	if encErr != nil {
		metrics.SnapshotFailures.WithLabelValues(key, "save").Inc()
		c.logger.Error().Err(encErr).Str("snapshot", key).Msg("Failed to persist snapshot")
	}
}

func (c *Container) persistCart(ctx context.Context) {
	data, err := domain.EncodeCart(c.cart)
	c.save(ctx, KeyCart, data, err)
}

func (c *Container) persistWishlist(ctx context.Context) {
	data, err := domain.EncodeWishlist(c.wishlist)
	c.save(ctx, KeyWishlist, data, err)
}

func (c *Container) persistUser(ctx context.Context) {
	if c.user == nil {
		if err := c.snapshots.Delete(ctx, c.sessionID, KeyUser); err != nil && !errors.Is(err, ErrSnapshotNotFound) {
			metrics.SnapshotFailures.WithLabelValues(KeyUser, "delete").Inc()
			c.logger.Error().Err(err).Str("snapshot", KeyUser).Msg("Failed to delete snapshot")
		}
		return
	}
	data, err := json.Marshal(c.user)
	c.save(ctx, KeyUser, data, err)
}

func (c *Container) notify(slice Slice, state interface{}) {
	if c.observer != nil {
		c.observer.StateChanged(c.sessionID, slice, state)
	}
}

func record(op string, applied bool) {
	outcome := metrics.OutcomeNoop
	if applied {
		outcome = metrics.OutcomeApplied
	}
	metrics.StoreOperations.WithLabelValues(op, outcome).Inc()
}

func (c *Container) indexOfLine(productID string) int {
	for i := range c.cart {
		if c.cart[i].ID == productID {
			return i
		}
	}
	return -1
}

func (c *Container) indexOfWish(productID string) int {
	for i := range c.wishlist {
		if c.wishlist[i].ID == productID {
			return i
		}
	}
	return -1
}

func (c *Container) cartCopy() []domain.CartLine {
	out := make([]domain.CartLine, len(c.cart))
	for i, l := range c.cart {
		out[i] = l.Clone()
	}
	return out
}

func (c *Container) wishlistCopy() []domain.Product {
	out := make([]domain.Product, len(c.wishlist))
	for i, p := range c.wishlist {
		out[i] = p.Clone()
	}
	return out
}

func (c *Container) userCopy() *domain.User {
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// AddToCart increments the line for product or appends a new line with
// quantity 1, and opens the cart drawer. It returns the resulting line.
func (c *Container) AddToCart(ctx context.Context, product domain.Product) domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result domain.CartLine
	if i := c.indexOfLine(product.ID); i >= 0 {
		if c.cart[i].Quantity < domain.MaxLineQuantity {
			c.cart[i].Quantity++
		}
		result = c.cart[i].Clone()
	} else {
		result = domain.CartLine{Product: product.Clone(), Quantity: 1}
		c.cart = append(c.cart, result.Clone())
	}
	c.persistCart(ctx)
	record("add_to_cart", true)
	c.notify(SliceCart, c.cartCopy())

	if !c.cartOpen {
		c.cartOpen = true
		c.notify(SliceDrawer, true)
	}

	c.logger.Debug().Str("product_id", product.ID).Int("quantity", result.Quantity).Msg("Added to cart")
	return result
}

// UpdateQuantity sets the quantity of a line. Quantities outside
// 1..domain.MaxLineQuantity and unknown product ids are ignored. It reports
// whether the cart changed.
func (c *Container) UpdateQuantity(ctx context.Context, productID string, quantity int) bool {
	if !domain.ValidQuantity(quantity) {
		record("update_quantity", false)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOfLine(productID)
	if i < 0 {
		record("update_quantity", false)
		return false
	}
	c.cart[i].Quantity = quantity
	c.persistCart(ctx)
	record("update_quantity", true)
	c.notify(SliceCart, c.cartCopy())
	return true
}

// RemoveFromCart deletes the line for productID if present
func (c *Container) RemoveFromCart(ctx context.Context, productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOfLine(productID)
	if i < 0 {
		record("remove_from_cart", false)
		return false
	}
	c.cart = append(c.cart[:i], c.cart[i+1:]...)
	c.persistCart(ctx)
	record("remove_from_cart", true)
	c.notify(SliceCart, c.cartCopy())
	return true
}

// ClearCart empties the cart unconditionally
func (c *Container) ClearCart(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cart = []domain.CartLine{}
	c.persistCart(ctx)
	record("clear_cart", true)
	c.notify(SliceCart, c.cartCopy())
}

// TakeCart empties the cart and hands its lines to the caller in one step,
// so lines added afterwards are never part of the taken set
func (c *Container) TakeCart(ctx context.Context) []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	taken := c.cart
	if len(taken) == 0 {
		record("take_cart", false)
		return nil
	}
	c.cart = []domain.CartLine{}
	c.persistCart(ctx)
	record("take_cart", true)
	c.notify(SliceCart, c.cartCopy())
	return taken
}

// RestoreCart puts previously taken lines back in front of the current
// cart. A product present in both keeps one line with the quantities added,
// capped at domain.MaxLineQuantity.
func (c *Container) RestoreCart(ctx context.Context, lines []domain.CartLine) {
	if len(lines) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	merged := make([]domain.CartLine, 0, len(lines)+len(c.cart))
	for _, l := range lines {
		merged = append(merged, l.Clone())
	}
	for _, current := range c.cart {
		found := false
		for i := range merged {
			if merged[i].ID == current.ID {
				merged[i].Quantity = min(merged[i].Quantity+current.Quantity, domain.MaxLineQuantity)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, current)
		}
	}
	c.cart = merged
	c.persistCart(ctx)
	record("restore_cart", true)
	c.notify(SliceCart, c.cartCopy())
}

// Cart returns a copy of the cart lines in insertion order
func (c *Container) Cart() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cartCopy()
}

// CartTotal is the sum of price × quantity, computed on every call
func (c *Container) CartTotal() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CartTotal(c.cart)
}

// CartCount is the sum of line quantities
func (c *Container) CartCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CartItemCount(c.cart)
}

// Summary derives the checkout figures for the current cart
func (c *Container) Summary(taxRate decimal.Decimal) domain.CartSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.NewCartSummary(c.cart, taxRate)
}

// ToggleWishlist removes product from the wishlist if present, otherwise
// adds it. It returns the new membership.
func (c *Container) ToggleWishlist(ctx context.Context, product domain.Product) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var member bool
	if i := c.indexOfWish(product.ID); i >= 0 {
		c.wishlist = append(c.wishlist[:i], c.wishlist[i+1:]...)
	} else {
		c.wishlist = append(c.wishlist, product.Clone())
		member = true
	}
	c.persistWishlist(ctx)
	record("toggle_wishlist", true)
	c.notify(SliceWishlist, c.wishlistCopy())
	return member
}

// IsInWishlist reports wishlist membership
func (c *Container) IsInWishlist(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOfWish(productID) >= 0
}

// Wishlist returns a copy of the wishlist in insertion order
func (c *Container) Wishlist() []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wishlistCopy()
}

// Login asks the auth provider for a user and installs it as the session.
// The provider call runs without the container lock, so cart and wishlist
// stay usable meanwhile; concurrent logins race and the last one wins.
// On failure the current session is left untouched.
func (c *Container) Login(ctx context.Context) (*domain.User, error) {
	if c.auth == nil {
		return nil, ErrNoAuthProvider
	}

	user, err := c.auth.Login(ctx)
	if err == nil && user == nil {
		err = fmt.Errorf("%w: provider returned no user", domain.ErrUnauthorized)
	}
	if err == nil {
		err = user.Validate()
	}
	if err != nil {
		record("login", false)
		c.logger.Warn().Err(err).Msg("Login failed")
		return nil, err
	}

	installed := *user

	c.mu.Lock()
	defer c.mu.Unlock()

	c.user = &installed
	c.persistUser(ctx)
	record("login", true)
	c.notify(SliceUser, c.userCopy())

	c.logger.Info().Str("user_id", installed.ID).Msg("User signed in")
	return c.userCopy(), nil
}

// Logout clears the session and its snapshot, then tells the provider
// without waiting on any outcome
func (c *Container) Logout(ctx context.Context) {
	c.mu.Lock()
	wasSignedIn := c.user != nil
	c.user = nil
	c.persistUser(ctx)
	record("logout", wasSignedIn)
	c.notify(SliceUser, (*domain.User)(nil))
	c.mu.Unlock()

	if c.auth != nil {
		c.auth.Logout(ctx)
	}
}

// User returns a copy of the signed-in user, or nil for a guest
func (c *Container) User() *domain.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userCopy()
}

// OpenCart shows the cart drawer
func (c *Container) OpenCart() {
	c.setCartOpen(true)
}

// CloseCart hides the cart drawer
func (c *Container) CloseCart() {
	c.setCartOpen(false)
}

func (c *Container) setCartOpen(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cartOpen == open {
		return
	}
	c.cartOpen = open
	c.notify(SliceDrawer, open)
}

// IsCartOpen reports the cart drawer flag
func (c *Container) IsCartOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cartOpen
}

// Snapshot returns a consistent copy of the whole state
func (c *Container) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Cart:      c.cartCopy(),
		Wishlist:  c.wishlistCopy(),
		User:      c.userCopy(),
		CartOpen:  c.cartOpen,
		CartTotal: domain.CartTotal(c.cart),
		CartCount: domain.CartItemCount(c.cart),
	}
}
