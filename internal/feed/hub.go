// Package feed streams sale events to WebSocket subscribers. Each durable
// event recorded by the ledger is fanned out to every connected client as a
// JSON frame.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"token-sale-ledger/internal/domain"
)

// HubConfig configures the event feed hub.
type HubConfig struct {
	// SendBuffer is the per-client outbound queue size.
	SendBuffer int
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long a client may stay silent before disconnect.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing frames.
	WriteTimeout time.Duration
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		SendBuffer:   256,
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// eventFrame is the wire envelope sent to subscribers.
type eventFrame struct {
	EventID     string `json:"event_id"`
	Seq         uint64 `json:"seq"`
	Kind        string `json:"kind"`
	Actor       string `json:"actor"`
	Beneficiary string `json:"beneficiary,omitempty"`
	BaseAmount  uint64 `json:"base_amount"`
	TokenAmount uint64 `json:"token_amount"`
	RefID       int64  `json:"ref_id"`
	Timestamp   int64  `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub accepts WebSocket subscribers and broadcasts sale events to them.
// Slow clients are dropped rather than allowed to stall the ledger path.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader
	logger   *log.Logger

	clients map[*client]bool
	mu      sync.Mutex

	closed bool
}

// NewHub creates a new Hub.
func NewHub(config *HubConfig, logger *log.Logger) *Hub {
	cfg := DefaultHubConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Hub{
		config: cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]bool),
	}
}

// Record broadcasts a sale event to all connected subscribers. Implements
// the ledger's Recorder contract; broadcast failures never propagate back
// into ledger state.
func (h *Hub) Record(ctx context.Context, ev *domain.SaleEvent) {
	if ev == nil {
		return
	}

	frame := eventFrame{
		EventID:     ev.EventID,
		Seq:         ev.Seq,
		Kind:        ev.Kind,
		Actor:       ev.Actor,
		Beneficiary: ev.Beneficiary,
		BaseAmount:  ev.BaseAmount,
		TokenAmount: ev.TokenAmount,
		RefID:       ev.RefID,
		Timestamp:   ev.Timestamp,
	}

	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Printf("marshal event frame: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client queue is full; drop it so broadcast stays non-blocking.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a WebSocket subscription.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = true
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

// readPump drains inbound frames so pong handlers run. Subscribers are
// read-only; any payload they send is discarded.
func (h *Hub) readPump(c *client) {
	defer h.removeClient(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Printf("subscriber read: %v", err)
			}
			return
		}
	}
}

// writePump writes queued frames and periodic pings to the client.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	c.conn.Close()
}

// Close disconnects all subscribers and stops accepting new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
