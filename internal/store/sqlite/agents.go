package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalcorps/beacon/internal/codename"
	"github.com/signalcorps/beacon/internal/store"
)

// AgentStore implements store.AgentStore backed by SQLite.
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

	// Single atomic upsert: first registration inserts the full record,
	// later ones only touch last_seen/device_ip. agent_id and codename
	// stay whatever the first registration wrote.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (agent_id, device_id, codename, device_ip, role, status, created_at, last_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(device_id) DO UPDATE SET
		   last_seen = excluded.last_seen,
		   device_ip = excluded.device_ip`,
		uuid.Must(uuid.NewV7()).String(), deviceID, name, deviceIP,
		store.RoleAgent, store.StatusActive, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("register agent: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentSelectCols+` FROM agents WHERE device_id = ?`, deviceID)
	agent, err := scanAgent(row)
	if err != nil {
		return nil, fmt.Errorf("load registered agent: %w", err)
	}
	return agent, nil
}

func (s *AgentStore) ListActive(ctx context.Context) ([]store.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+agentSelectCols+` FROM agents WHERE status = ? ORDER BY last_seen DESC`,
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
	var createdAt, lastSeen int64
	if err := row.Scan(&a.AgentID, &a.DeviceID, &a.Codename, &a.DeviceIP,
		&a.Role, &a.Status, &createdAt, &lastSeen); err != nil {
		return nil, err
	}
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	a.LastSeen = time.UnixMilli(lastSeen).UTC()
	return &a, nil
}
