package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"careline/internal/middleware"
	"careline/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 5
	maxTotalConns   = 5000

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
)

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("inbox hub is shut down")

// Client is one websocket connection of an account.
type Client struct {
	hub    *InboxHub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint

	// goingAway is set by Shutdown before Send is closed.
	goingAway bool
}

// InboxHub maps account ids to their open inbox connections and fans out
// events received from Redis.
type InboxHub struct {
	mu     sync.RWMutex
	conns  map[uint]map[*Client]struct{}
	total  int
	closed bool
}

// NewInboxHub creates an empty hub.
func NewInboxHub() *InboxHub {
	return &InboxHub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for userID, enforcing per-user and global limits.
func (h *InboxHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.total >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	client := &Client{hub: h, Conn: conn, Send: make(chan []byte, 64), UserID: userID}
	m[client] = struct{}{}
	h.total++
	observability.InboxConnections.Inc()
	return client, nil
}

// Unregister removes client and closes its send channel. It is safe to call twice.
func (h *InboxHub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.total--
	observability.InboxConnections.Dec()
	close(client.Send)
}

// Broadcast queues payload on every connection of userID. Slow clients drop
// messages rather than block the subscriber.
func (h *InboxHub) Broadcast(userID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[userID] {
		select {
		case c.Send <- payload:
		default:
			middleware.Logger.Warn("inbox client buffer full, dropping event",
				slog.Uint64("user_id", uint64(userID)))
		}
	}
}

// Connections reports how many connections userID has open.
func (h *InboxHub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// StartWiring subscribes to every user channel and forwards each event to
// the matching account's connections until ctx is cancelled.
func (h *InboxHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := UserIDFromChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(userID, []byte(payload))
	})
}

// Shutdown closes every client's send queue. Each WritePump then sends a
// going-away frame and closes its socket, so it stays the only writer.
func (h *InboxHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, clients := range h.conns {
		for c := range clients {
			c.goingAway = true
			close(c.Send)
			observability.InboxConnections.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.total = 0
	return nil
}

// closeFrame is the frame WritePump sends once Send is closed.
func (c *Client) closeFrame() []byte {
	if c.goingAway {
		return websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")
	}
	return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
}

// ReadPump drains inbound frames so control messages are processed. Inbox
// sockets are push-only, so payloads are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WritePump sends queued events and keepalive pings until Send is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, c.closeFrame())
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
