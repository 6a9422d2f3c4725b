// Package linker exposes installed mod content to the game by linking a
// directory in the game tree to the mod's private storage, with a recursive
// copy fallback for filesystems that cannot link.
package linker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Method determines how mod storage is exposed to the game directory.
type Method int

const (
	MethodSymlink Method = iota // default: one symlink per mod, space efficient
	MethodCopy                  // full recursive copy, maximum compatibility
)

func (m Method) String() string {
	if m == MethodCopy {
		return "copy"
	}
	return "symlink"
}

// ParseMethod converts a string to a Method.
func ParseMethod(s string) Method {
	if strings.EqualFold(s, "copy") {
		return MethodCopy
	}
	return MethodSymlink
}

// Linker activates and deactivates mod directories in the game tree.
type Linker interface {
	// Activate exposes src (private storage) at dst inside the game
	// directory, replacing whatever currently occupies dst.
	Activate(src, dst string) error
	// Deactivate removes the entry at dst without touching private storage.
	Deactivate(dst string) error
	// IsActive reports whether dst currently exists.
	IsActive(dst string) (bool, error)
	Method() Method
}

// New creates a linker for the given method.
func New(method Method) Linker {
	if method == MethodCopy {
		return &copyLinker{}
	}
	return &symlinkLinker{}
}

// Detect probes whether probeDir's filesystem supports symlinks and returns
// the best available method. The probe runs once at composition time; call
// sites never branch on platform.
func Detect(probeDir string) Method {
	target := filepath.Join(probeDir, ".hangar-probe-"+uuid.NewString())
	if err := os.Symlink(probeDir, target); err != nil {
		return MethodCopy
	}
	os.Remove(target)
	return MethodSymlink
}

// removeExisting clears whatever occupies dst: a stale link, a stale copy,
// or a foreign file.
func removeExisting(dst string) error {
	if _, err := os.Lstat(dst); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking target: %w", err)
	}
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("removing existing target: %w", err)
	}
	return nil
}
