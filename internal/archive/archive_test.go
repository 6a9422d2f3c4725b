package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"hangar/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZip writes a zip fixture where keys are entry names and values file
// contents; entries ending in "/" become directories.
func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		if name[len(name)-1] == '/' {
			_, err := w.Create(name)
			require.NoError(t, err)
			continue
		}
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "fixture.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestInstall_ZipStripsCommonRootPrefix(t *testing.T) {
	archivePath := writeZip(t, map[string]string{
		"package-1.0/inner.txt":   "hello",
		"package-1.0/sub/two.txt": "world",
	})

	dest := t.TempDir()
	require.NoError(t, NewInstaller().Install(context.Background(), archivePath, dest, "pack"))

	data, err := os.ReadFile(filepath.Join(dest, "inner.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = os.ReadFile(filepath.Join(dest, "sub", "two.txt"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))
}

func TestInstall_ZipWithoutCommonPrefixKeepsLayout(t *testing.T) {
	archivePath := writeZip(t, map[string]string{
		"readme.txt":   "top",
		"data/cfg.ini": "nested",
	})

	dest := t.TempDir()
	require.NoError(t, NewInstaller().Install(context.Background(), archivePath, dest, "pack"))

	assert.FileExists(t, filepath.Join(dest, "readme.txt"))
	assert.FileExists(t, filepath.Join(dest, "data", "cfg.ini"))
}

func TestInstall_ZipSlipRejected(t *testing.T) {
	archivePath := writeZip(t, map[string]string{
		"../evil.txt": "pwned",
	})

	dest := t.TempDir()
	err := NewInstaller().Install(context.Background(), archivePath, dest, "pack")
	require.ErrorIs(t, err, domain.ErrPathTraversal)

	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "evil.txt"))
}

func TestInstall_UnknownMagicIsInvalidArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mystery.bin")
	require.NoError(t, os.WriteFile(path, []byte("not an archive at all"), 0644))

	err := NewInstaller().Install(context.Background(), path, t.TempDir(), "pack")
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
}

func TestInstall_BareBinaryNamedByModID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whatever.download")
	require.NoError(t, os.WriteFile(path, append([]byte("MZ"), make([]byte, 64)...), 0644))

	dest := t.TempDir()
	require.NoError(t, NewInstaller().Install(context.Background(), path, dest, "rudder-fix"))

	assert.FileExists(t, filepath.Join(dest, "rudder-fix.dll"))
}

func TestInstall_GzippedTarball(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range map[string]string{
		"mod-2.1/plugin.dll":  "code",
		"mod-2.1/config.json": "{}",
	} {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Mode: 0644, Size: int64(len(content)), Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "mod.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	dest := t.TempDir()
	require.NoError(t, NewInstaller().Install(context.Background(), path, dest, "mod"))

	assert.FileExists(t, filepath.Join(dest, "plugin.dll"))
	assert.FileExists(t, filepath.Join(dest, "config.json"))
}

func TestInstall_SingleGzippedFile(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Name = "campaign.vtm"
	_, err := gz.Write([]byte("mission data"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "campaign.vtm.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	dest := t.TempDir()
	require.NoError(t, NewInstaller().Install(context.Background(), path, dest, "night-raid"))

	data, err := os.ReadFile(filepath.Join(dest, "campaign.vtm"))
	require.NoError(t, err)
	assert.Equal(t, "mission data", string(data))
}

func TestInstall_CancelledContext(t *testing.T) {
	archivePath := writeZip(t, map[string]string{"a.txt": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewInstaller().Install(ctx, archivePath, t.TempDir(), "pack")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want Format
	}{
		{"zip", []byte{0x50, 0x4B, 0x03, 0x04, 0x00}, FormatZip},
		{"rar", []byte("Rar!\x1a\x07"), FormatRar},
		{"7z", []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, Format7z},
		{"gzip", []byte{0x1F, 0x8B, 0x08}, FormatGzip},
		{"pe", []byte("MZ\x90\x00"), FormatBinary},
		{"elf", []byte{0x7F, 'E', 'L', 'F'}, FormatBinary},
		{"garbage", []byte("hello"), FormatUnknown},
		{"empty", nil, FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.head))
		})
	}
}

func TestCommonRootPrefix(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"single root", []string{"pkg/a.txt", "pkg/b/c.txt"}, "pkg/"},
		{"deep common", []string{"a/b/x.txt", "a/b/y.txt"}, "a/b/"},
		{"no common", []string{"a.txt", "pkg/b.txt"}, ""},
		{"diverging roots", []string{"one/a.txt", "two/b.txt"}, ""},
		{"single file at root", []string{"a.txt"}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, commonRootPrefix(tt.in))
		})
	}
}

func TestUnwrapSingleRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mod-1.0", "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod-1.0", "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod-1.0", "sub", "b.txt"), []byte("b"), 0644))

	require.NoError(t, unwrapSingleRoot(dir))

	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.FileExists(t, filepath.Join(dir, "sub", "b.txt"))
	assert.NoDirExists(t, filepath.Join(dir, "mod-1.0"))
}
