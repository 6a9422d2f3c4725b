package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractGzip handles both gzipped tarballs and single gzipped files. The
// stream is decompressed once to a temp file, then classified by whether a
// valid tar header follows.
func (i *Installer) extractGzip(ctx context.Context, archivePath, destDir, modID string) error {
	src, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening artifact: %w", err)
	}
	defer src.Close()

	gz, err := gzip.NewReader(src)
	if err != nil {
		return fmt.Errorf("reading gzip stream: %w", err)
	}
	defer gz.Close()

	tmp, err := os.CreateTemp("", "hangar-gunzip-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, gz); err != nil {
		tmp.Close()
		return fmt.Errorf("decompressing: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if isTar(tmpPath) {
		return i.extractTar(ctx, tmpPath, destDir)
	}

	name := gz.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(archivePath), ".gz")
	}
	if name == "" || name == "." {
		name = modID
	}
	return i.installBinary(tmpPath, destDir, modID, filepath.Base(name))
}

// isTar reports whether the file starts with a valid tar header.
func isTar(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	_, err = tar.NewReader(f).Next()
	return err == nil
}

// extractTar extracts a tarball with the common root prefix stripped. Two
// passes: one to compute the prefix, one to write entries.
func (i *Installer) extractTar(ctx context.Context, tarPath, destDir string) error {
	names, err := tarEntryNames(tarPath)
	if err != nil {
		return err
	}
	prefix := commonRootPrefix(names)

	f, err := os.Open(tarPath)
	if err != nil {
		return fmt.Errorf("opening tar: %w", err)
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}

		name := strings.TrimPrefix(hdr.Name, prefix)
		if name == "" {
			continue
		}
		destPath, err := entryPath(destDir, name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", name, err)
			}
			out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode).Perm()|0200)
			if err != nil {
				return fmt.Errorf("creating file %s: %w", destPath, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("writing file %s: %w", destPath, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("closing file %s: %w", destPath, err)
			}
		default:
			// Links and specials are not part of mod content.
		}
	}
}

func tarEntryNames(tarPath string) ([]string, error) {
	f, err := os.Open(tarPath)
	if err != nil {
		return nil, fmt.Errorf("opening tar: %w", err)
	}
	defer f.Close()

	var names []string
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("scanning tar: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg {
			names = append(names, hdr.Name)
		}
	}
}
