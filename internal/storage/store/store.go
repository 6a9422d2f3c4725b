// Package store manages the private per-mod storage directory, keyed by mod
// id and independent of the game directory. Deactivated mods keep their
// bytes here so re-enabling never re-downloads.
package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store manages the private mod storage tree.
type Store struct {
	basePath string
}

// New creates a store rooted at basePath.
func New(basePath string) *Store {
	return &Store{basePath: basePath}
}

// Base returns the storage root.
func (s *Store) Base() string {
	return s.basePath
}

// ModPath returns the directory holding a mod's installed files.
func (s *Store) ModPath(modID string) string {
	return filepath.Join(s.basePath, modID)
}

// Exists checks whether a mod has content in storage.
func (s *Store) Exists(modID string) bool {
	info, err := os.Stat(s.ModPath(modID))
	return err == nil && info.IsDir()
}

// Delete removes a mod's storage directory.
func (s *Store) Delete(modID string) error {
	if err := os.RemoveAll(s.ModPath(modID)); err != nil {
		return fmt.Errorf("deleting mod storage: %w", err)
	}
	return nil
}

// ListFiles returns the relative paths of all files stored for a mod.
func (s *Store) ListFiles(modID string) ([]string, error) {
	modPath := s.ModPath(modID)

	var files []string
	err := filepath.WalkDir(modPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(modPath, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing stored files: %w", err)
	}
	return files, nil
}

// Size returns the total bytes stored for a mod.
func (s *Store) Size(modID string) (int64, error) {
	var total int64
	err := filepath.WalkDir(s.ModPath(modID), func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("calculating storage size: %w", err)
	}
	return total, nil
}
