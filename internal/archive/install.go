package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"hangar/internal/domain"
)

// Install classifies the artifact at artifactPath and extracts it into
// destDir. Archives wrapped in a single version-named folder unwrap
// transparently; entries that would escape destDir are rejected. A bare
// plugin binary is written under destDir with a name derived from modID.
// Unrecognized content is a terminal invalid-artifact error.
func (i *Installer) Install(ctx context.Context, artifactPath, destDir, modID string) error {
	format, err := detectFile(artifactPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	switch format {
	case FormatZip:
		return i.extractZip(ctx, artifactPath, destDir)
	case FormatGzip:
		return i.extractGzip(ctx, artifactPath, destDir, modID)
	case FormatRar, Format7z:
		if err := i.extract7z(ctx, artifactPath, destDir); err != nil {
			return err
		}
		return unwrapSingleRoot(destDir)
	case FormatBinary:
		return i.installBinary(artifactPath, destDir, modID, binaryName(artifactPath, modID))
	default:
		return fmt.Errorf("%w: unrecognized magic bytes in %s", domain.ErrInvalidArtifact, filepath.Base(artifactPath))
	}
}

// binaryName derives the on-disk name for a bare binary from the mod id,
// keeping the platform-appropriate plugin extension.
func binaryName(artifactPath, modID string) string {
	head := make([]byte, 4)
	if f, err := os.Open(artifactPath); err == nil {
		n, _ := f.Read(head)
		f.Close()
		head = head[:n]
	}
	if len(head) >= 2 && head[0] == 'M' && head[1] == 'Z' {
		return modID + ".dll"
	}
	return modID + ".so"
}

func (i *Installer) installBinary(artifactPath, destDir, modID, name string) error {
	src, err := os.Open(artifactPath)
	if err != nil {
		return fmt.Errorf("opening binary: %w", err)
	}
	defer src.Close()

	destPath, err := entryPath(destDir, name)
	if err != nil {
		return err
	}
	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("creating binary: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("writing binary: %w", err)
	}
	return nil
}

// entryPath resolves an archive entry name inside destDir, rejecting any
// entry that would land outside it (zip-slip protection).
func entryPath(destDir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathTraversal, name)
	}
	dest, err := securejoin.SecureJoin(destDir, clean)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrPathTraversal, name)
	}
	return dest, nil
}

// commonRootPrefix computes the directory prefix shared by every non-dir
// entry, so archives wrapped in a version-named folder unwrap transparently.
// Entry names use forward slashes.
func commonRootPrefix(names []string) string {
	// Never let a traversal segment become a strippable prefix; leave such
	// names intact so the per-entry escape check rejects them.
	for _, name := range names {
		if !filepath.IsLocal(filepath.Clean(filepath.FromSlash(name))) {
			return ""
		}
	}

	var prefix string
	first := true
	for _, name := range names {
		dir := ""
		if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
			dir = name[:idx+1]
		}
		if first {
			prefix = dir
			first = false
			continue
		}
		for !strings.HasPrefix(dir, prefix) {
			// Shrink to the previous slash boundary.
			trimmed := strings.TrimSuffix(prefix, "/")
			idx := strings.LastIndexByte(trimmed, '/')
			if idx < 0 {
				return ""
			}
			prefix = trimmed[:idx+1]
		}
	}
	if first {
		return ""
	}
	return prefix
}

// unwrapSingleRoot lifts the contents of a lone top-level directory up into
// dir. Used after external extractors that cannot strip prefixes on the fly.
func unwrapSingleRoot(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading extracted tree: %w", err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	root := filepath.Join(dir, entries[0].Name())
	children, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading wrapper directory: %w", err)
	}
	for _, child := range children {
		if err := os.Rename(filepath.Join(root, child.Name()), filepath.Join(dir, child.Name())); err != nil {
			return fmt.Errorf("unwrapping %s: %w", child.Name(), err)
		}
	}
	return os.Remove(root)
}
