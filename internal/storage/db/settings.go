package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// SetSetting stores or replaces a string setting.
func (d *DB) SetSetting(key, value string) error {
	_, err := d.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}
	return nil
}

// GetSetting retrieves a setting value; missing keys return "" and false.
func (d *DB) GetSetting(key string) (string, bool, error) {
	var value string
	err := d.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("querying setting: %w", err)
	}
	return value, true, nil
}

// DeleteSetting removes a setting. Missing keys are not an error.
func (d *DB) DeleteSetting(key string) error {
	if _, err := d.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting setting: %w", err)
	}
	return nil
}
