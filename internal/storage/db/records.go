package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hangar/internal/domain"
)

// SaveInstalledMod inserts or updates an installed mod record.
func (d *DB) SaveInstalledMod(mod *domain.InstalledMod) error {
	_, err := d.Exec(`
		INSERT INTO installed_mods (mod_id, name, version, hash, category, enabled, storage_path, installed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mod_id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			hash = excluded.hash,
			category = excluded.category,
			enabled = excluded.enabled,
			storage_path = excluded.storage_path
	`, mod.ModID, mod.Name, mod.Version, mod.Hash, mod.Category.String(), mod.Enabled, mod.StoragePath, time.Now())
	if err != nil {
		return fmt.Errorf("saving installed mod: %w", err)
	}
	return nil
}

// GetInstalledMods returns all installed mod records.
func (d *DB) GetInstalledMods() ([]domain.InstalledMod, error) {
	rows, err := d.Query(`
		SELECT mod_id, name, version, hash, category, enabled, storage_path, installed_at
		FROM installed_mods
		ORDER BY installed_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying installed mods: %w", err)
	}
	defer rows.Close()

	var mods []domain.InstalledMod
	for rows.Next() {
		mod, err := scanInstalledMod(rows.Scan)
		if err != nil {
			return nil, err
		}
		mods = append(mods, *mod)
	}
	return mods, rows.Err()
}

// GetInstalledMod retrieves a single installed mod record.
func (d *DB) GetInstalledMod(modID string) (*domain.InstalledMod, error) {
	row := d.QueryRow(`
		SELECT mod_id, name, version, hash, category, enabled, storage_path, installed_at
		FROM installed_mods
		WHERE mod_id = ?
	`, modID)

	mod, err := scanInstalledMod(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotInstalled
		}
		return nil, err
	}
	return mod, nil
}

// DeleteInstalledMod removes an installed mod record.
func (d *DB) DeleteInstalledMod(modID string) error {
	result, err := d.Exec(`DELETE FROM installed_mods WHERE mod_id = ?`, modID)
	if err != nil {
		return fmt.Errorf("deleting installed mod: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotInstalled
	}
	return nil
}

// SetModEnabled flips the enabled flag on an installed mod record.
func (d *DB) SetModEnabled(modID string, enabled bool) error {
	result, err := d.Exec(`UPDATE installed_mods SET enabled = ? WHERE mod_id = ?`, enabled, modID)
	if err != nil {
		return fmt.Errorf("setting mod enabled: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotInstalled
	}
	return nil
}

func scanInstalledMod(scan func(...any) error) (*domain.InstalledMod, error) {
	var mod domain.InstalledMod
	var hash sql.NullString
	var category string
	err := scan(&mod.ModID, &mod.Name, &mod.Version, &hash, &category,
		&mod.Enabled, &mod.StoragePath, &mod.InstalledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning installed mod: %w", err)
	}
	mod.Hash = hash.String
	mod.Category = domain.ParseCategory(category)
	return &mod, nil
}
