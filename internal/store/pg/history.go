package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/signalcorps/beacon/internal/store"
)

// HistoryStore implements store.HistoryStore backed by Postgres.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

const historySelectCols = `id, from_agent, from_codename, to_agent, to_codename,
	code_id, color, shape, motion, duration_ms, meaning, urgency, device_id, timestamp, conn_id`

func (s *HistoryStore) Append(ctx context.Context, rec *store.HistoryRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signal_history
		   (id, from_agent, from_codename, to_agent, to_codename,
		    code_id, color, shape, motion, duration_ms, meaning, urgency,
		    device_id, timestamp, conn_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		rec.ID, rec.FromAgent, rec.FromCodename, rec.ToAgent, rec.ToCodename,
		rec.CodeID, rec.Color, rec.Shape, rec.Motion, rec.DurationMs,
		rec.Meaning, rec.Urgency, rec.DeviceID, rec.Timestamp, rec.ConnID,
	)
	if err != nil {
		return fmt.Errorf("append signal: %w", err)
	}
	return nil
}

func (s *HistoryStore) ListRecent(ctx context.Context, limit int) ([]store.HistoryRecord, error) {
	limit = store.ClampLimit(limit, store.MaxRecentHistory)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+historySelectCols+` FROM signal_history
		 ORDER BY timestamp DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	return scanRecords(rows)
}

func (s *HistoryStore) ListForParticipant(ctx context.Context, agentID string, limit int) ([]store.HistoryRecord, error) {
	limit = store.ClampLimit(limit, store.MaxParticipantHistory)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+historySelectCols+` FROM signal_history
		 WHERE from_agent = $1 OR to_agent = $1
		 ORDER BY timestamp DESC, id DESC LIMIT $2`, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list agent history: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]store.HistoryRecord, error) {
	defer rows.Close()

	records := []store.HistoryRecord{}
	for rows.Next() {
		var r store.HistoryRecord
		if err := rows.Scan(&r.ID, &r.FromAgent, &r.FromCodename, &r.ToAgent, &r.ToCodename,
			&r.CodeID, &r.Color, &r.Shape, &r.Motion, &r.DurationMs,
			&r.Meaning, &r.Urgency, &r.DeviceID, &r.Timestamp, &r.ConnID); err != nil {
			return nil, err
		}
		r.Timestamp = r.Timestamp.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}
