package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TelemetrySink = (*Hub)(nil)

// ErrHubBusy is returned by Publish when the broadcast queue is full.
var ErrHubBusy = errors.New("websocket broadcast queue full")

const (
	clientSendBuffer = 64
	writeTimeout     = 10 * time.Second
)

// Hub fans dashboard updates out to connected WebSocket clients. Clients
// that cannot keep up are evicted rather than allowed to block the others.
// The latest payload per endpoint is replayed to each new client.
type Hub struct {
	logger         *slog.Logger
	allowedOrigins []string

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	latest  map[string][]byte

	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan outbound

	done     chan struct{}
	stopOnce sync.Once
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

type outbound struct {
	endpointID string
	data       []byte
}

// NewHub creates a Hub. allowedOrigins are host patterns accepted in the
// Origin header; when empty only same-origin connections are accepted.
func NewHub(logger *slog.Logger, allowedOrigins []string) *Hub {
	return &Hub{
		logger:         logger.With("component", "ws"),
		allowedOrigins: allowedOrigins,
		clients:        make(map[*wsClient]struct{}),
		latest:         make(map[string][]byte),
		register:       make(chan *wsClient),
		unregister:     make(chan *wsClient),
		broadcast:      make(chan outbound, 256),
		done:           make(chan struct{}),
	}
}

// Run starts the hub event loop. It returns after Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			for _, data := range h.latest {
				select {
				case client.send <- data:
				default:
				}
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("ws client connected", "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("ws client disconnected", "total", total)

		case msg := <-h.broadcast:
			h.mu.Lock()
			h.latest[msg.endpointID] = msg.data
			var slow []*wsClient
			for client := range h.clients {
				select {
				case client.send <- msg.data:
				default:
					slow = append(slow, client)
				}
			}
			for _, client := range slow {
				delete(h.clients, client)
				close(client.send)
				h.logger.Warn("ws client evicted (too slow)")
			}
			h.mu.Unlock()
		}
	}
}

// Stop signals the hub to shut down. Safe to call multiple times.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Forget drops the replay payload of a removed endpoint.
func (h *Hub) Forget(endpointID string) {
	h.mu.Lock()
	delete(h.latest, endpointID)
	h.mu.Unlock()
}

// Publish implements driven.TelemetrySink by queueing a dashboard_update
// event for every client.
func (h *Hub) Publish(_ context.Context, snap model.Snapshot) error {
	data, err := json.Marshal(dashboardEvent{
		Event: "dashboard_update",
		Data:  toSnapshotResponse(snap),
	})
	if err != nil {
		return fmt.Errorf("encode dashboard update: %w", err)
	}

	select {
	case h.broadcast <- outbound{endpointID: snap.EndpointID, data: data}:
		return nil
	case <-h.done:
		return nil
	default:
		return ErrHubBusy
	}
}

// ServeHTTP upgrades the request to a WebSocket and streams dashboard
// updates until either side closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if len(h.allowedOrigins) > 0 {
		opts.OriginPatterns = h.allowedOrigins
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		h.logger.Error("ws accept", "error", err)
		return
	}

	conn.SetReadLimit(4096)

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close(websocket.StatusGoingAway, "server shutdown")
		return
	}

	go h.writePump(client)
	h.readPump(client)
}

func (h *Hub) writePump(client *wsClient) {
	for msg := range client.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := client.conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			return
		}
	}
	client.conn.Close(websocket.StatusNormalClosure, "")
}

// readPump drains client frames so close and ping control frames are
// processed. Client messages carry no meaning.
func (h *Hub) readPump(client *wsClient) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
			client.conn.Close(websocket.StatusGoingAway, "server shutdown")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-h.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		if _, _, err := client.conn.Read(ctx); err != nil {
			return
		}
	}
}
