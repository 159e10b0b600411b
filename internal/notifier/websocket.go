package notifier

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// wsClient wraps one connection with a write lock. The underlying
// connection supports at most one concurrent writer, and publishes from
// overlapping sync cycles may reach the same client at the same time.
type wsClient struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

func (c *wsClient) write(msg any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

// WSHub pushes new-post batches to connected dashboard clients over
// websockets. It is both a Subscriber and the HTTP handler clients
// connect to.
type WSHub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func NewWSHub(logger *slog.Logger) *WSHub {
	return &WSHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Dashboards are served from arbitrary origins; the feed is
			// read-only public data.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *WSHub) Name() string {
	return "websocket"
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client goes away. Inbound frames are read and discarded; the protocol
// is push-only.
func (h *WSHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", "clients", count)

	go h.readLoop(client)
}

func (h *WSHub) readLoop(client *wsClient) {
	defer h.drop(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHub) drop(client *wsClient) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
	client.conn.Close()
}

// NotifyNewPosts writes the batch to every connected client. A client
// that cannot keep up is dropped instead of blocking the rest.
func (h *WSHub) NotifyNewPosts(ctx context.Context, msg PostsMessage) error {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		if err := client.write(msg); err != nil {
			h.logger.Debug("dropping slow websocket client", "error", err)
			h.drop(client)
		}
	}
	return nil
}

// Close disconnects all clients.
func (h *WSHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.conn.Close()
	}
	h.clients = make(map[*wsClient]struct{})
	return nil
}
