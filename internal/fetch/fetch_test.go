package fetch

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"hangar/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastFetcher(client *http.Client) *Fetcher {
	f := New(client)
	f.baseDelay = time.Millisecond
	return f
}

func TestFetch_WritesFileAndDigest(t *testing.T) {
	content := []byte("artifact bytes")
	sum := sha256.Sum256(content)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		w.Write(content)
	}))
	defer server.Close()

	f := fastFetcher(server.Client())
	res, err := f.Fetch(context.Background(), server.URL+"/mods/radio.zip", "", t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, "radio.zip", res.SuggestedName)
	assert.Equal(t, int64(len(content)), res.Size)
	assert.Equal(t, "sha256:"+hex.EncodeToString(sum[:]), res.Digest)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestFetch_ReportsProgress(t *testing.T) {
	content := make([]byte, 1<<16)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		w.Write(content)
	}))
	defer server.Close()

	var calls []Progress
	f := fastFetcher(server.Client())
	_, err := f.Fetch(context.Background(), server.URL+"/big.bin", "", t.TempDir(), func(p Progress) {
		calls = append(calls, p)
	})
	require.NoError(t, err)

	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, int64(len(content)), last.Downloaded)
	assert.InDelta(t, 100.0, last.Percentage, 0.001)
}

func TestFetch_HashMismatchIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not what you wanted"))
	}))
	defer server.Close()

	dir := t.TempDir()
	f := fastFetcher(server.Client())
	res, err := f.Fetch(context.Background(), server.URL+"/pack.zip",
		"sha256:"+"00"+"11223344556677889900112233445566778899001122334455667788990011", dir, nil)

	require.ErrorIs(t, err, domain.ErrIntegrity)
	assert.Nil(t, res)

	// No partial result left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetch_HashMatchWithPrefixAndCase(t *testing.T) {
	content := []byte("verified payload")
	sum := sha256.Sum256(content)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	f := fastFetcher(server.Client())
	expected := "SHA256:" + toUpperHex(sum[:])
	_, err := f.Fetch(context.Background(), server.URL+"/pack.zip", expected, t.TempDir(), nil)
	assert.NoError(t, err)
}

func toUpperHex(b []byte) string {
	return fmt.Sprintf("%X", b)
}

func TestFetch_MD5HashVerifies(t *testing.T) {
	content := []byte("legacy hashed payload")
	sum := md5.Sum(content)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	f := fastFetcher(server.Client())
	_, err := f.Fetch(context.Background(), server.URL+"/pack.zip",
		"md5:"+hex.EncodeToString(sum[:]), t.TempDir(), nil)
	assert.NoError(t, err)

	// A bare 32-hex value is recognized as md5 too.
	_, err = f.Fetch(context.Background(), server.URL+"/pack.zip",
		hex.EncodeToString(sum[:]), t.TempDir(), nil)
	assert.NoError(t, err)
}

func TestFetch_MD5HashMismatchIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tampered"))
	}))
	defer server.Close()

	f := fastFetcher(server.Client())
	_, err := f.Fetch(context.Background(), server.URL+"/pack.zip",
		"md5:00112233445566778899aabbccddeeff", t.TempDir(), nil)
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestFetch_UnsupportedHashAlgorithm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bytes"))
	}))
	defer server.Close()

	f := fastFetcher(server.Client())
	_, err := f.Fetch(context.Background(), server.URL+"/pack.zip",
		"crc32:deadbeef", t.TempDir(), nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrIntegrity)
	assert.ErrorContains(t, err, "unsupported hash algorithm")
}

func TestSplitHash(t *testing.T) {
	tests := []struct {
		in      string
		alg     string
		hexWant string
	}{
		{"sha256:abc", "sha256", "abc"},
		{"MD5:abc", "md5", "abc"},
		{"00112233445566778899aabbccddeeff", "md5", "00112233445566778899aabbccddeeff"},
		{"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", "sha256",
			"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"},
	}
	for _, tt := range tests {
		alg, hexDigest := splitHash(tt.in)
		assert.Equal(t, tt.alg, alg, "input %q", tt.in)
		assert.Equal(t, tt.hexWant, hexDigest, "input %q", tt.in)
	}
}

func TestFetch_ContentDispositionName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="My Mod v1.2.zip"`)
		w.Write([]byte("zipzip"))
	}))
	defer server.Close()

	f := fastFetcher(server.Client())
	res, err := f.Fetch(context.Background(), server.URL+"/download", "", t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, "My Mod v1.2.zip", res.SuggestedName)
}

func TestFetch_RetriesOnServerError(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer server.Close()

	f := fastFetcher(server.Client())
	res, err := f.Fetch(context.Background(), server.URL+"/flaky.zip", "", t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Size)
	assert.Equal(t, 3, hits)
}

func TestFetch_NotFoundDoesNotRetry(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := fastFetcher(server.Client())
	_, err := f.Fetch(context.Background(), server.URL+"/gone.zip", "", t.TempDir(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, hits)
}

func TestFetch_HTMLTriggersConfirmRetry(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dl", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("confirm") == "TOK" {
			w.Write([]byte("real bytes"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="/dl?confirm=TOK">download anyway</a>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := fastFetcher(server.Client())
	res, err := f.Fetch(context.Background(), server.URL+"/dl", "", t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Size)
}

func TestFetch_HTMLWithoutTokenFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>just a page</html>"))
	}))
	defer server.Close()

	f := fastFetcher(server.Client())
	_, err := f.Fetch(context.Background(), server.URL+"/page", "", t.TempDir(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArtifact)
}

func TestFetch_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("bytes"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := fastFetcher(server.Client())
	_, err := f.Fetch(ctx, server.URL+"/x.zip", "", t.TempDir(), nil)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain.zip", "plain.zip"},
		{`bad<name>:"v1".zip`, "bad_name___v1_.zip"},
		{"trailing dots...", "trailing dots"},
		{"", "download"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), "input %q", tt.in)
	}

	long := sanitizeFilename(fmt.Sprintf("%0300d", 7) + ".zip")
	assert.LessOrEqual(t, len(long), maxFilenameLen)
	assert.Equal(t, ".zip", filepath.Ext(long))

	// An oversized "extension" (one dot, then hundreds of chars) must be
	// bounded too, not sliced out of range.
	monster := sanitizeFilename("a." + strings.Repeat("b", 300))
	assert.LessOrEqual(t, len(monster), maxFilenameLen)
	assert.NotEmpty(t, monster)
}

func TestDigestNearFilename(t *testing.T) {
	notes := "Release v1.2\n\nradio.zip sha256: 9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08\n"
	got := digestNearFilename(notes, "radio.zip")
	assert.Equal(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", got)

	assert.Empty(t, digestNearFilename(notes, "missing.zip"))
	assert.Empty(t, digestNearFilename("radio.zip but no digest anywhere", "radio.zip"))
}

func TestParseReleaseAssetURL(t *testing.T) {
	owner, repo, tag, ok := parseReleaseAssetURL("https://github.com/pilot/radio/releases/download/v1.2/radio.zip")
	require.True(t, ok)
	assert.Equal(t, "pilot", owner)
	assert.Equal(t, "radio", repo)
	assert.Equal(t, "v1.2", tag)

	_, _, _, ok = parseReleaseAssetURL("https://example.com/radio.zip")
	assert.False(t, ok)
}
