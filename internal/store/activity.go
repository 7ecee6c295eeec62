package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rlanders/choreward/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// insertActivityTx appends an audit entry inside the caller's transaction
// so the entry and the state change it describes commit together.
func insertActivityTx(tx *sql.Tx, familyID int64, userID *int64, action, entityType string, entityID int64, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal activity details: %w", err)
	}

	var uid sql.NullInt64
	if userID != nil {
		uid = sql.NullInt64{Int64: *userID, Valid: true}
	}

	_, err = tx.Exec(
		`INSERT INTO activity_log (family_id, user_id, action, entity_type, entity_id, details) VALUES (?, ?, ?, ?, ?, ?)`,
		familyID, uid, action, entityType, entityID, string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func scanActivity(scanner interface{ Scan(...any) error }) (*model.ActivityEntry, error) {
	var e model.ActivityEntry
	var userID sql.NullInt64
	var details string

	err := scanner.Scan(&e.ID, &e.FamilyID, &userID, &e.Action, &e.EntityType, &e.EntityID, &details, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		e.UserID = &userID.Int64
	}
	if details != "" {
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("unmarshal activity details: %w", err)
		}
	}
	return &e, nil
}

const activityCols = `id, family_id, user_id, action, entity_type, entity_id, details, created_at`

// ListByFamily returns the newest entries first, capped at limit.
func (s *ActivityStore) ListByFamily(familyID int64, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+activityCols+` FROM activity_log WHERE family_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		familyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		e, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
