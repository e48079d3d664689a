package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/host"
	"coffee-ledger/internal/journal"
	"coffee-ledger/internal/observability"
)

const (
	wsWriteWait     = 10 * time.Second
	wsClientBacklog = 64
	wsPingInterval  = 30 * time.Second
	wsPongWait      = 60 * time.Second
	wsReadSizeLimit = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsMessage is the frame pushed to subscribers: committed journal events and
// host notifications share one stream, discriminated by Type.
type wsMessage struct {
	Type string `json:"type"` // "event" or "notification"

	// event fields
	EventID string `json:"event_id,omitempty"`
	Seq     uint64 `json:"seq,omitempty"`
	Op      string `json:"op,omitempty"`
	Actor   string `json:"actor,omitempty"`
	Payload string `json:"payload,omitempty"`

	// notification fields
	Account string `json:"account,omitempty"`
}

// eventHub fans ledger activity out to websocket subscribers. It implements
// both journal.Writer and host.Notifier; a slow subscriber is dropped rather
// than back-pressuring the ledger.
type eventHub struct {
	logger  *log.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newEventHub(logger *log.Logger, metrics *observability.Metrics) *eventHub {
	return &eventHub{
		logger:  logger,
		metrics: metrics,
		clients: make(map[*wsClient]struct{}),
	}
}

var (
	_ journal.Writer = (*eventHub)(nil)
	_ host.Notifier  = (*eventHub)(nil)
)

// Append broadcasts a committed journal event.
func (h *eventHub) Append(_ context.Context, e *journal.Event) error {
	h.broadcast(wsMessage{
		Type:    "event",
		EventID: e.EventID,
		Seq:     e.Seq,
		Op:      e.Op,
		Actor:   string(e.Actor),
		Payload: e.Payload,
	})
	return nil
}

// Notify broadcasts a host notification.
func (h *eventHub) Notify(_ context.Context, account domain.Name, op string) {
	h.broadcast(wsMessage{
		Type:    "notification",
		Op:      op,
		Account: string(account),
	})
}

func (h *eventHub) broadcast(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("ws marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Slow consumer: drop it.
			h.dropLocked(c)
		}
	}
}

func (h *eventHub) dropLocked(c *wsClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	if h.metrics != nil {
		h.metrics.WSSubscribers.Dec()
	}
}

func (h *eventHub) drop(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// run closes every client when the server context ends.
func (h *eventHub) run(ctx context.Context) {
	<-ctx.Done()
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// handleSubscribe upgrades the connection and streams ledger activity.
func (h *eventHub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("ws upgrade failed: %v", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, wsClientBacklog)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSSubscribers.Inc()
	}

	go h.writePump(c)
	go h.readPump(c)
}

// writePump delivers broadcasts and keeps the connection alive with pings.
func (h *eventHub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readPump discards inbound frames and detects disconnects.
func (h *eventHub) readPump(c *wsClient) {
	defer func() {
		h.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsReadSizeLimit)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
