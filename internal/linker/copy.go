package linker

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// copyLinker activates mods by recursively copying storage into the game
// tree. Used where the filesystem lacks symlink support.
type copyLinker struct{}

func (l *copyLinker) Activate(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating destination dir: %w", err)
	}
	if err := removeExisting(dst); err != nil {
		return err
	}
	return copyTree(src, dst)
}

func (l *copyLinker) Deactivate(dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("removing copied tree: %w", err)
	}
	return nil
}

func (l *copyLinker) IsActive(dst string) (bool, error) {
	_, err := os.Stat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *copyLinker) Method() Method {
	return MethodCopy
}

// copyTree mirrors the directory at src to dst, preserving file modes.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}
	return nil
}
