// Package events contains the websocket message contracts pushed to clients
// watching an owner's records.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Record lifecycle messages, scoped to one owner
	MessageTypeRecordsReplaced MessageType = "records.replaced"
	MessageTypeRecordsDeleted  MessageType = "records.deleted"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	OwnerID   string      `json:"owner_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// RecordsReplaced is published after an upload replaced an owner's records
type RecordsReplaced struct {
	Source   string `json:"source"` // csv|xlsx
	Rows     int    `json:"rows"`
	Accepted int    `json:"accepted"`
	Dropped  int    `json:"dropped"`
}

// RecordsDeleted is published after an owner's records were removed
type RecordsDeleted struct {
	Removed int `json:"removed"`
}

// Connected is the first message a client receives
type Connected struct {
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
}
