package pg

import (
	"context"
	"database/sql"

	"github.com/NassaQ/server/internal/auth"
)

type auditStore struct{ db *sql.DB }

func (s *auditStore) Append(ctx context.Context, entry *auth.AuditEntry) error {
	return s.db.QueryRowContext(ctx, `
		insert into logs (log_timestamp, action_type, user_id, entity_id, details)
		values ($1, $2, $3, $4, nullif($5, ''))
		returning log_id
	`, entry.Timestamp, entry.ActionType, entry.UserID, entry.EntityID, entry.Details).Scan(&entry.ID)
}

func (s *auditStore) ListRecent(ctx context.Context, limit int) ([]auth.AuditEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		select log_id, log_timestamp, action_type, user_id, entity_id, coalesce(details, '')
		from logs order by log_id desc limit $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []auth.AuditEntry
	for rows.Next() {
		var (
			e        auth.AuditEntry
			userID   sql.NullInt64
			entityID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ActionType, &userID, &entityID, &e.Details); err != nil {
			return nil, err
		}
		if userID.Valid {
			e.UserID = &userID.Int64
		}
		if entityID.Valid {
			e.EntityID = &entityID.Int64
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
