package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalcorps/beacon/internal/codename"
	"github.com/signalcorps/beacon/internal/store"
)

// AgentStore implements store.AgentStore backed by Postgres.
type AgentStore struct {
	db *sql.DB
}

func NewAgentStore(db *sql.DB) *AgentStore {
	return &AgentStore{db: db}
}

const agentSelectCols = `agent_id, device_id, codename, device_ip, role, status, created_at, last_seen`

func (s *AgentStore) Register(ctx context.Context, deviceID, suggested, deviceIP string) (*store.Agent, error) {
	if deviceID == "" {
		return nil, store.ErrDeviceIDRequired
	}

	name := suggested
	if name == "" {
		name = codename.Fallback(deviceID)
	}
	now := time.Now().UTC()

	// Upsert returning the surviving row in one round trip. On conflict
	// only last_seen/device_ip move; agent_id and codename are pinned to
	// the first registration.
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO agents (agent_id, device_id, codename, device_ip, role, status, created_at, last_seen)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT (device_id) DO UPDATE SET
		   last_seen = excluded.last_seen,
		   device_ip = excluded.device_ip
		 RETURNING `+agentSelectCols,
		uuid.Must(uuid.NewV7()), deviceID, name, deviceIP,
		store.RoleAgent, store.StatusActive, now,
	)
	agent, err := scanAgent(row)
	if err != nil {
		return nil, fmt.Errorf("register agent: %w", err)
	}
	return agent, nil
}

func (s *AgentStore) ListActive(ctx context.Context) ([]store.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+agentSelectCols+` FROM agents WHERE status = $1 ORDER BY last_seen DESC`,
		store.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	agents := []store.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*store.Agent, error) {
	var a store.Agent
	var id uuid.UUID
	if err := row.Scan(&id, &a.DeviceID, &a.Codename, &a.DeviceIP,
		&a.Role, &a.Status, &a.CreatedAt, &a.LastSeen); err != nil {
		return nil, err
	}
	a.AgentID = id.String()
	a.CreatedAt = a.CreatedAt.UTC()
	a.LastSeen = a.LastSeen.UTC()
	return &a, nil
}
