package websocket

import (
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
	"github.com/rs/zerolog/log"
)

var _ store.Observer = (*Hub)(nil)

// StateChanged implements store.Observer, turning container changes into
// events for the session's clients
func (h *Hub) StateChanged(sessionID string, slice store.Slice, state interface{}) {
	var event Event
	switch slice {
	case store.SliceCart:
		event = CartUpdated(state)
	case store.SliceWishlist:
		event = WishlistUpdated(state)
	case store.SliceUser:
		event = SessionUpdated(state)
	case store.SliceDrawer:
		event = DrawerUpdated(state)
	default:
		log.Warn().Str("slice", string(slice)).Msg("Unknown state slice")
		return
	}
	h.Broadcast(sessionID, event)
}

// OrderPlaced tells the session's clients about a new order
func (h *Hub) OrderPlaced(sessionID string, order *domain.Order) {
	h.Broadcast(sessionID, OrderPlaced(order))
}
