package websocket

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// writeWait is time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// pongWait is time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// pingPeriod is the interval for sending pings (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is maximum message size allowed from peer
	maxMessageSize = 512

	// sendBufferSize bounds the frames queued for one tab. State frames are
	// coalesced before writing, so a small buffer is enough.
	sendBufferSize = 64
)

// Message is a serialized event queued for a client
type Message struct {
	Type string
	Data []byte
}

// supersedable reports whether a later message of the same type replaces
// this one. State updates carry the whole slice; orders are never dropped.
func (m Message) supersedable() bool {
	return strings.HasSuffix(m.Type, "."+string(EventTypeUpdated))
}

// coalesce drops state frames that a later frame of the same type in batch
// makes stale, keeping the order of the survivors
func coalesce(batch []Message) []Message {
	latest := make(map[string]int, len(batch))
	for i, msg := range batch {
		if msg.supersedable() {
			latest[msg.Type] = i
		}
	}
	kept := batch[:0:0]
	for i, msg := range batch {
		if msg.supersedable() && latest[msg.Type] != i {
			continue
		}
		kept = append(kept, msg)
	}
	return kept
}

// Client represents a single WebSocket connection
type Client struct {
	id        string
	sessionID string
	conn      *websocket.Conn
	hub       *Hub
	send      chan Message
	closed    bool
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, sessionID string, hub *Hub) *Client {
	return &Client{
		id:        uuid.New().String(),
		sessionID: sessionID,
		conn:      conn,
		hub:       hub,
		send:      make(chan Message, sendBufferSize),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() string {
	return c.id
}

// SessionID returns the storefront session the client follows
func (c *Client) SessionID() string {
	return c.sessionID
}

// Send queues a message to be sent to the client
func (c *Client) Send(msg Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		// Buffer is full, client is too slow
		return ErrClientClosed
	}
}

// Close closes the client connection
// Safe to call multiple times from different goroutines
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		closeErr = c.conn.Close()
	})
	return closeErr
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ReadPump pumps messages from the WebSocket connection
// This should be run in a goroutine
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("session_id", c.sessionID).
					Msg("WebSocket unexpected close")
			}
			break
		}
		// The stream is server to client only; inbound frames are discarded
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
// This should be run in a goroutine
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed, hub closed this client
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			batch, open := c.drain(message)
			for _, msg := range coalesce(batch) {
				if err := c.conn.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
					log.Warn().
						Err(err).
						Str("client_id", c.id).
						Str("session_id", c.sessionID).
						Msg("WebSocket write error")
					return
				}
			}
			if !open {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drain collects first and every message already queued behind it. open is
// false when the queue was closed while draining.
func (c *Client) drain(first Message) (batch []Message, open bool) {
	batch = append(batch, first)
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return batch, false
			}
			batch = append(batch, msg)
		default:
			return batch, true
		}
	}
}
