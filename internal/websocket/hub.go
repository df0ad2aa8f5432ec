package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"vcfo/internal/infrastructure"
	"vcfo/pkg/contracts/events"
)

// ErrHubStopped is returned when publishing to a stopped hub
var ErrHubStopped = errors.New("websocket hub stopped")

// ownerMessage is an encoded message addressed to one owner's clients
type ownerMessage struct {
	ownerID string
	payload []byte
}

// HubStats is a point-in-time view of hub activity
type HubStats struct {
	ActiveClients    int   `json:"active_clients"`
	Owners           int   `json:"owners"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesDropped  int64 `json:"messages_dropped"`
}

// Hub keeps the connected clients grouped by owner and fans record events
// out to the clients watching that owner.
type Hub struct {
	// Registered clients, keyed by owner
	clients map[string]map[*Client]struct{}

	publish    chan ownerMessage
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	totalConnections int64
	messagesSent     int64
	messagesDropped  int64

	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		publish:    make(chan ownerMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.closeAll()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client, "client closed")

		case msg := <-h.publish:
			h.deliver(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	group, ok := h.clients[client.ownerID]
	if !ok {
		group = make(map[*Client]struct{})
		h.clients[client.ownerID] = group
	}
	group[client] = struct{}{}
	h.totalConnections++
	watching := len(group)
	h.mu.Unlock()

	ctx := client.context()
	if h.metrics != nil {
		h.metrics.WebSocketClients.Add(ctx, 1)
	}

	h.logger.InfoContext(ctx, "Client registered",
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr),
		slog.Int("owner_clients", watching))

	payload, err := encode(ctx, events.MessageTypeConnect, client.ownerID, events.Connected{
		ClientID: client.id,
		Status:   "connected",
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Error encoding connection message", slog.String("error", err.Error()))
		return
	}

	select {
	case client.send <- payload:
	default:
		h.logger.WarnContext(ctx, "Failed to send connection message - client buffer full",
			slog.String("client_id", client.id))
	}
}

// removeClient drops client from its owner group and closes its send
// channel. It is safe to call for clients that are already gone.
func (h *Hub) removeClient(client *Client, reason string) {
	h.mu.Lock()
	group, ok := h.clients[client.ownerID]
	if ok {
		_, ok = group[client]
	}
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(group, client)
	if len(group) == 0 {
		delete(h.clients, client.ownerID)
	}
	close(client.send)
	h.mu.Unlock()

	ctx := client.context()
	if h.metrics != nil {
		h.metrics.WebSocketClients.Add(ctx, -1)
	}

	h.logger.InfoContext(ctx, "Client unregistered",
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

func (h *Hub) deliver(msg ownerMessage) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[msg.ownerID]))
	for client := range h.clients[msg.ownerID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	var slow []*Client
	sent := 0
	for _, client := range targets {
		select {
		case client.send <- msg.payload:
			sent++
		default:
			slow = append(slow, client)
		}
	}

	// Clients that cannot keep up are disconnected
	for _, client := range slow {
		h.removeClient(client, "send buffer full")
	}

	h.mu.Lock()
	h.messagesSent += int64(sent)
	h.messagesDropped += int64(len(slow))
	h.mu.Unlock()

	h.logger.Debug("Delivered owner event",
		slog.String("owner_id", msg.ownerID),
		slog.Int("clients", len(targets)),
		slog.Int("dropped", len(slow)),
		slog.Int("payload_size", len(msg.payload)))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for owner, group := range h.clients {
		for client := range group {
			close(client.send)
		}
		delete(h.clients, owner)
	}
}

// Publish encodes an event for ownerID and queues it for delivery to that
// owner's clients. Owners without clients are not an error.
func (h *Hub) Publish(ctx context.Context, ownerID string, msgType events.MessageType, data interface{}) error {
	select {
	case <-h.quit:
		return ErrHubStopped
	default:
	}

	payload, err := encode(ctx, msgType, ownerID, data)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error encoding event",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msgType)))
		return err
	}

	select {
	case h.publish <- ownerMessage{ownerID: ownerID, payload: payload}:
	case <-h.quit:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	if h.metrics != nil {
		h.metrics.WebSocketEventsPublished.Add(ctx, 1,
			metric.WithAttributes(attribute.String("type", string(msgType))))
	}
	return nil
}

func encode(ctx context.Context, msgType events.MessageType, ownerID string, data interface{}) ([]byte, error) {
	return json.Marshal(events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.New().String(),
			Type:      msgType,
			OwnerID:   ownerID,
			Timestamp: time.Now().UTC(),
			TraceID:   infrastructure.GetTraceID(ctx),
		},
		Data: data,
	})
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Stop ends the hub loop and closes every client. It waits for the loop
// to exit when it was started.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, group := range h.clients {
		n += len(group)
	}
	return n
}

// OwnerClientCount returns the number of clients watching ownerID
func (h *Hub) OwnerClientCount(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[ownerID])
}

// Stats returns current hub counters
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	active := 0
	for _, group := range h.clients {
		active += len(group)
	}
	return HubStats{
		ActiveClients:    active,
		Owners:           len(h.clients),
		TotalConnections: h.totalConnections,
		MessagesSent:     h.messagesSent,
		MessagesDropped:  h.messagesDropped,
	}
}
