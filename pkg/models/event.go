package models

import "time"

// IngestEvent is emitted after a batch of stat rows has been stored.
// Players lists everyone whose stats changed: the batch's players followed by
// Removed, the players that only had rows in the replaced version of the source.
type IngestEvent struct {
	BatchID    string    `json:"batch_id"`
	Source     string    `json:"source"`
	Players    []string  `json:"players"`
	Removed    []string  `json:"removed,omitempty"`
	Rows       int       `json:"rows"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Touches reports whether the event changed stats for any of the named players
func (e IngestEvent) Touches(names []string) bool {
	for _, want := range names {
		for _, got := range e.Players {
			if got == want {
				return true
			}
		}
	}
	return false
}

// Message types for WebSocket communication
const (
	MessageTypeIngest      = "stats_ingested"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeHeartbeat   = "heartbeat"
	MessageTypeError       = "error"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionFilter limits which ingest events a client receives
type SubscriptionFilter struct {
	Players []string `json:"players,omitempty"`
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	ClientID          string    `json:"client_id"`
	ConnectedAt       time.Time `json:"connected_at"`
	MessagesSent      int64     `json:"messages_sent"`
	MessagesReceived  int64     `json:"messages_received"`
	LastMessageAt     time.Time `json:"last_message_at"`
	BufferSize        int       `json:"buffer_size"`
	BufferUtilization float64   `json:"buffer_utilization"` // Percentage
}

// ErrorMessage represents an error message sent over the socket
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
