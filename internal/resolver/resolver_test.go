package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_GitHubBlobRewrite(t *testing.T) {
	r := New(nil)

	got, err := r.Resolve(context.Background(),
		"https://github.com/pilot/radio-mod/blob/main/dist/radio.zip")
	require.NoError(t, err)
	assert.Equal(t, "https://raw.githubusercontent.com/pilot/radio-mod/main/dist/radio.zip", got)
}

func TestResolve_RawHostPassesThrough(t *testing.T) {
	r := New(nil)
	url := "https://raw.githubusercontent.com/pilot/radio-mod/main/radio.zip"

	got, err := r.Resolve(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, url, got)
}

func TestResolve_ReleaseAssetPassesThrough(t *testing.T) {
	r := New(nil)
	url := "https://github.com/pilot/radio-mod/releases/download/v1.2/radio.zip"

	got, err := r.Resolve(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, url, got)
}

func TestResolve_DirectFileExtensionPassesThrough(t *testing.T) {
	r := New(nil)
	url := "https://mods.example.com/files/desert-camo.7z"

	got, err := r.Resolve(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, url, got)
}

func TestResolve_CandidateFallthrough(t *testing.T) {
	r := New(nil)
	// First candidate has no rule; the second resolves.
	raw := "https://forum.example.com/thread/123; https://mods.example.com/pack.zip"

	got, err := r.Resolve(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "https://mods.example.com/pack.zip", got)
}

func TestResolve_NothingResolvesReturnsOriginal(t *testing.T) {
	r := New(nil)
	raw := "https://forum.example.com/thread/123"

	got, err := r.Resolve(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestResolve_CancellationPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
	}))
	defer server.Close()

	r := New(server.Client())
	r.protonBase = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "https://drive.proton.me/urls/abc123#pw")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_GoogleDriveDirectResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "FILE123", req.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("binary"))
	}))
	defer server.Close()

	r := New(server.Client())
	r.driveExport = server.URL + "/uc?export=download&id="

	got, err := r.Resolve(context.Background(), "https://drive.google.com/file/d/FILE123/view?usp=sharing")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/uc?export=download&id=FILE123", got)
}

func TestResolve_GoogleDriveConfirmTokenScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><a href="/uc?export=download&confirm=TOKEN42&id=FILE123">Download anyway</a></html>`))
	}))
	defer server.Close()

	r := New(server.Client())
	r.driveExport = server.URL + "/uc?export=download&id="

	got, err := r.Resolve(context.Background(), "https://drive.google.com/open?id=FILE123")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/uc?export=download&id=FILE123&confirm=TOKEN42", got)
}

func TestResolve_GoogleDriveNoFileID(t *testing.T) {
	r := New(nil)

	// No file id anywhere: candidate fails, original comes back.
	raw := "https://drive.google.com/drive/folders/xyz"
	got, err := r.Resolve(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestResolve_ProtonDrive(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/urls/share-token/info", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"LinkID":"link-1","ShareID":"share-9"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	r := New(server.Client())
	r.protonBase = server.URL

	got, err := r.Resolve(context.Background(), "https://drive.proton.me/urls/share-token#password")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/shares/share-9/files/link-1/download", got)
}

func TestResolve_ProtonDriveBadMetadataFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	r := New(server.Client())
	r.protonBase = server.URL

	raw := "https://drive.proton.me/urls/gone#pw"
	got, err := r.Resolve(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDriveConfirmURL(t *testing.T) {
	url, ok := DriveConfirmURL("https://drive.google.com/uc?export=download&id=X",
		[]byte(`... confirm=abc_DEF-123 ...`))
	require.True(t, ok)
	assert.Equal(t, "https://drive.google.com/uc?export=download&id=X&confirm=abc_DEF-123", url)

	_, ok = DriveConfirmURL("https://example.com", []byte("no token here"))
	assert.False(t, ok)
}
