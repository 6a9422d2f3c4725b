package linker

import (
	"fmt"
	"os"
	"path/filepath"
)

// symlinkLinker activates mods with one directory-level symbolic link.
type symlinkLinker struct{}

func (l *symlinkLinker) Activate(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating destination dir: %w", err)
	}
	if err := removeExisting(dst); err != nil {
		return err
	}
	if err := os.Symlink(src, dst); err != nil {
		return fmt.Errorf("creating symlink: %w", err)
	}
	return nil
}

func (l *symlinkLinker) Deactivate(dst string) error {
	info, err := os.Lstat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // already removed
		}
		return fmt.Errorf("checking target: %w", err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("removing symlink: %w", err)
		}
		return nil
	}

	// The mod may have been activated with the copy fallback on a previous
	// run; a real directory here is still ours to remove.
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("removing copied tree: %w", err)
	}
	return nil
}

func (l *symlinkLinker) IsActive(dst string) (bool, error) {
	_, err := os.Lstat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *symlinkLinker) Method() Method {
	return MethodSymlink
}
