package store

import "time"

// Agent is a registered anonymous participant, keyed by device fingerprint.
// AgentID and Codename are fixed at creation; only LastSeen and DeviceIP
// change on later registrations.
type Agent struct {
	AgentID   string    `json:"agentId"`
	DeviceID  string    `json:"deviceId"`
	Codename  string    `json:"codename"`
	DeviceIP  string    `json:"deviceIP"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`

	// Online is derived from the live connection set, never persisted.
	Online bool `json:"online"`
}

// Agent role and status values. Status is an account-level flag; it does
// not transition on disconnect.
const (
	RoleAgent    = "agent"
	StatusActive = "active"
)

// HistoryRecord is one persisted signal event. Meaning and Urgency are
// denormalized from the code table at send time so history stays correct
// if the table later changes. Records are immutable once appended.
type HistoryRecord struct {
	ID           string    `json:"id"`
	FromAgent    string    `json:"fromAgent"`
	FromCodename string    `json:"fromCodename"`
	ToAgent      string    `json:"toAgent"`
	ToCodename   string    `json:"toCodename"`
	CodeID       string    `json:"codeId"`
	Color        string    `json:"color"`
	Shape        string    `json:"shape"`
	Motion       string    `json:"motion"`
	DurationMs   int       `json:"durationMs"`
	Meaning      string    `json:"meaning"`
	Urgency      string    `json:"urgency"`
	DeviceID     string    `json:"deviceId"`
	Timestamp    time.Time `json:"timestamp"`

	// ConnID ties the record to the originating WebSocket connection for
	// diagnostics. Persisted but never serialized to clients.
	ConnID string `json:"-"`
}

// Query size bounds. Callers needing more history would have to page by
// timestamp, which is not implemented.
const (
	MaxRecentHistory      = 100
	MaxParticipantHistory = 50
)
