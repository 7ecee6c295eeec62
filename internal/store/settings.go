package store

import (
	"database/sql"
	"fmt"
)

// settingDefaults are returned when a family has not set a key.
var settingDefaults = map[string]string{
	"leaderboard_enabled": "true",
}

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(familyID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM family_settings WHERE family_id = ? AND key = ?`,
		familyID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return settingDefaults[key], nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

func (s *SettingsStore) Set(familyID int64, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO family_settings (family_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(family_id, key) DO UPDATE SET value = excluded.value`,
		familyID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}
