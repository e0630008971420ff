package protocol

import "encoding/json"

// ClientFrame is a message received from a WebSocket client.
type ClientFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EventFrame is a message pushed from the server to a WebSocket client.
type EventFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// NewEvent creates an event frame.
func NewEvent(name string, payload any) *EventFrame {
	return &EventFrame{Event: name, Payload: payload}
}

// SignalPayload is the client-supplied body of a sendSignal frame.
// Timestamps are always server-assigned; a client-supplied timestamp is
// ignored rather than rejected.
type SignalPayload struct {
	FromAgent    string `json:"fromAgent"`
	FromCodename string `json:"fromCodename"`
	ToAgent      string `json:"toAgent,omitempty"`
	ToCodename   string `json:"toCodename,omitempty"`
	CodeID       string `json:"codeId"`
	Color        string `json:"color"`
	Shape        string `json:"shape"`
	Motion       string `json:"motion"`
	DurationMs   int    `json:"durationMs"`
	DeviceID     string `json:"deviceId"`
}

// ErrorPayload is the body of a signalError event.
type ErrorPayload struct {
	Error string `json:"error"`
}

// Broadcast is the sentinel toAgent value meaning "all recipients".
const Broadcast = "broadcast"
