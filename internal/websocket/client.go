package websocket

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"vcfo/internal/config"
	"vcfo/internal/infrastructure"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendBufferSize = 64
)

var heartbeat = []byte(`{"type":"heartbeat"}`)

// ClientOptions tunes the keepalive of one client
type ClientOptions struct {
	PingPeriod time.Duration
	PongWait   time.Duration
}

// OptionsFromConfig maps the websocket config section. PingPeriod is kept
// below PongWait so pings arrive before the read deadline.
func OptionsFromConfig(cfg config.WebSocketConfig) ClientOptions {
	opts := ClientOptions{PingPeriod: cfg.PingPeriod, PongWait: cfg.PongWait}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = (opts.PongWait * 9) / 10
	}
	return opts
}

// Client is a middleman between one websocket connection and the hub.
// It only receives events for the owner it subscribed to.
type Client struct {
	hub  *Hub
	conn Connection
	opts ClientOptions

	// Buffered channel of outbound messages
	send chan []byte

	id          string
	ownerID     string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	messagesSent     int64
	messagesReceived int64
}

// NewClient creates a client watching ownerID
func NewClient(hub *Hub, conn Connection, ownerID, traceID string, opts ClientOptions, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	return &Client{
		hub:         hub,
		conn:        conn,
		opts:        opts,
		send:        make(chan []byte, sendBufferSize),
		id:          id,
		ownerID:     ownerID,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
}

// ID returns the client identifier
func (c *Client) ID() string { return c.id }

// OwnerID returns the owner the client watches
func (c *Client) OwnerID() string { return c.ownerID }

// context carries the client's trace and owner into log records
func (c *Client) context() context.Context {
	ctx := infrastructure.WithOwnerID(context.Background(), c.ownerID)
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// ReadPump drains the connection until it fails. Clients do not send
// commands; anything but a heartbeat is ignored.
func (c *Client) ReadPump() {
	ctx := c.context()
	defer func() {
		c.logger.DebugContext(ctx, "WebSocket read pump stopped",
			slog.Int64("messages_received", c.messagesReceived))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(ctx, "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived++

		if bytes.Equal(bytes.TrimSpace(message), heartbeat) {
			c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		}
	}
}

// WritePump writes queued events to the connection and keeps it alive
// with pings. It returns when the hub closes the send channel or a write
// fails.
func (c *Client) WritePump() {
	ctx := c.context()
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.DebugContext(ctx, "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.WarnContext(ctx, "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent++

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
