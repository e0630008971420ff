package store

import (
	"context"
	"errors"
)

// ErrDeviceIDRequired is returned by Register when the device fingerprint
// is missing. It maps to HTTP 400.
var ErrDeviceIDRequired = errors.New("device ID required")

// AgentStore is the persistent agent registry.
type AgentStore interface {
	// Register creates the agent on first sight of deviceId, or updates
	// only lastSeen/deviceIP on subsequent calls. Idempotent: the same
	// deviceId never yields two records, and the original agentId and
	// codename are never overwritten.
	Register(ctx context.Context, deviceID, codename, deviceIP string) (*Agent, error)

	// ListActive returns agents with status=active, lastSeen descending.
	ListActive(ctx context.Context) ([]Agent, error)
}

// HistoryStore is the append-only signal event log. No updates, no deletes.
type HistoryStore interface {
	// Append persists a record. ID and Timestamp must already be assigned
	// by the caller (the gateway owns the clock).
	Append(ctx context.Context, rec *HistoryRecord) error

	// ListRecent returns up to limit records, most recent first.
	// limit <= 0 or > MaxRecentHistory is clamped to MaxRecentHistory.
	ListRecent(ctx context.Context, limit int) ([]HistoryRecord, error)

	// ListForParticipant returns records where agentID is fromAgent or
	// toAgent, most recent first, clamped to MaxParticipantHistory.
	ListForParticipant(ctx context.Context, agentID string, limit int) ([]HistoryRecord, error)
}

// Stores is the top-level container for all storage backends, constructed
// once at startup and passed into request handlers.
type Stores struct {
	Agents  AgentStore
	History HistoryStore

	// Close releases the underlying database handle.
	Close func() error
}

// Config selects and configures a storage backend.
type Config struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string

	// SQLitePath is the database file path for the sqlite driver.
	SQLitePath string

	// PostgresDSN is read from env only, never from config.json.
	PostgresDSN string
}

// ClampLimit bounds a caller-supplied limit to (0, max].
func ClampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
