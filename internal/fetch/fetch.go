// Package fetch streams artifact bytes from resolved URLs with progress
// reporting, bounded retry, and optional integrity verification.
package fetch

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hangar/internal/backoff"
	"hangar/internal/domain"
	"hangar/internal/logging"
	"hangar/internal/resolver"
)

const userAgent = "hangar-mod-manager"

// Progress represents the current state of a download.
type Progress struct {
	TotalBytes int64   // total size in bytes (0 if unknown)
	Downloaded int64   // bytes downloaded so far
	Percentage float64 // completion percentage (0-100), only when total is known
}

// ProgressFunc is called per received chunk with progress updates. It must
// not block; slow consumers should buffer on their side.
type ProgressFunc func(Progress)

// Result contains the outcome of a fetch.
type Result struct {
	Path          string // downloaded file on disk
	Size          int64  // bytes downloaded
	Digest        string // "sha256:<hex>" of the body
	FinalURL      string // URL after redirects
	SuggestedName string // sanitized filename from headers or URL
}

// htmlPageError reports an HTML body where binary content was expected,
// carrying the page so a Drive confirm token can be scraped from it.
type htmlPageError struct {
	body []byte
}

func (e *htmlPageError) Error() string { return "received HTML page where file content was expected" }

// Fetcher downloads files over HTTP with retry and verification.
type Fetcher struct {
	client     *http.Client
	attempts   int
	baseDelay  time.Duration
	releaseAPI string
	log        zerolog.Logger
}

// New creates a Fetcher. If client is nil, http.DefaultClient is used.
func New(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client:     client,
		attempts:   4,
		baseDelay:  500 * time.Millisecond,
		releaseAPI: "https://api.github.com",
		log:        logging.Component("fetch"),
	}
}

// Fetch downloads url into destDir and verifies the body against
// expectedHash ("algorithm:hex" or bare hex) when one is available. A
// missing hash triggers a best-effort lookup in the hosting release notes;
// if none is published, verification is skipped. A hash mismatch is fatal
// and the partial file is removed. An HTML answer where a binary was
// expected is retried once through the Drive confirm-token flow.
func (f *Fetcher) Fetch(ctx context.Context, url, expectedHash, destDir string, progressFn ProgressFunc) (*Result, error) {
	result, err := f.download(ctx, url, destDir, progressFn)

	var htmlErr *htmlPageError
	if errors.As(err, &htmlErr) {
		confirmed, ok := resolver.DriveConfirmURL(url, htmlErr.body)
		if !ok {
			return nil, fmt.Errorf("%w: no confirm token in page", domain.ErrInvalidArtifact)
		}
		f.log.Debug().Str("url", confirmed).Msg("retrying with confirm token")
		result, err = f.download(ctx, confirmed, destDir, progressFn)
	}
	if err != nil {
		return nil, err
	}

	if expectedHash == "" {
		expectedHash = f.lookupPublishedHash(ctx, result.FinalURL, result.SuggestedName)
	}
	if expectedHash != "" {
		if err := verifyArtifact(result.Path, result.Digest, expectedHash); err != nil {
			os.Remove(result.Path)
			return nil, err
		}
	}

	return result, nil
}

// download runs attempts of the plain HTTP transfer with backoff; only
// transient failures are retried.
func (f *Fetcher) download(ctx context.Context, url, destDir string, progressFn ProgressFunc) (*Result, error) {
	var result *Result
	err := backoff.Do(ctx, f.attempts, f.baseDelay, func() error {
		r, err := f.attempt(ctx, url, destDir, progressFn)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *Fetcher) attempt(ctx context.Context, url, destDir string, progressFn ProgressFunc) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Abort(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	default:
		return nil, backoff.Abort(fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}

	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/html") {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
		return nil, backoff.Abort(&htmlPageError{body: body})
	}

	name := suggestedName(resp)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, backoff.Abort(fmt.Errorf("creating directory: %w", err))
	}
	tmp, err := os.CreateTemp(destDir, ".hangar-dl-*")
	if err != nil {
		return nil, backoff.Abort(fmt.Errorf("creating file: %w", err))
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	hasher := sha256.New()
	reader := &progressReader{
		ctx:        ctx,
		reader:     resp.Body,
		totalBytes: resp.ContentLength,
		progressFn: progressFn,
	}

	written, err := io.Copy(tmp, io.TeeReader(reader, hasher))
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Abort(ctx.Err())
		}
		return nil, fmt.Errorf("downloading file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return nil, backoff.Abort(fmt.Errorf("closing file: %w", err))
	}

	destPath := filepath.Join(destDir, name)
	if err := os.Rename(tmpPath, destPath); err != nil {
		return nil, backoff.Abort(fmt.Errorf("renaming file: %w", err))
	}

	return &Result{
		Path:          destPath,
		Size:          written,
		Digest:        "sha256:" + hex.EncodeToString(hasher.Sum(nil)),
		FinalURL:      resp.Request.URL.String(),
		SuggestedName: name,
	}, nil
}

// verifyArtifact checks the downloaded file against the expected hash,
// dispatching on its declared algorithm. sha256 reuses the digest computed
// during the transfer; md5 re-reads the file. Comparison ignores case.
func verifyArtifact(filePath, sha256Digest, expected string) error {
	alg, want := splitHash(expected)

	var got string
	switch alg {
	case "sha256":
		got = strings.TrimPrefix(sha256Digest, "sha256:")
	case "md5":
		sum, err := md5Sum(filePath)
		if err != nil {
			return err
		}
		got = sum
	default:
		return fmt.Errorf("unsupported hash algorithm %q", alg)
	}

	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: got %s:%s, want %s:%s", domain.ErrIntegrity, alg, got, alg, want)
	}
	return nil
}

// splitHash separates an optional "algorithm:" prefix. Bare values are
// classified by length: 32 hex chars is an md5 digest, anything else is
// treated as sha256.
func splitHash(hash string) (alg, hexDigest string) {
	if i := strings.IndexByte(hash, ':'); i >= 0 {
		return strings.ToLower(hash[:i]), hash[i+1:]
	}
	if len(hash) == 32 {
		return "md5", hash
	}
	return "sha256", hash
}

func md5Sum(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening file for verification: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// suggestedName picks a filename from Content-Disposition, falling back to
// the final URL's last path segment, and sanitizes it for the filesystem.
func suggestedName(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return sanitizeFilename(name)
			}
		}
	}
	return sanitizeFilename(path.Base(resp.Request.URL.Path))
}

// maxFilenameLen bounds suggested names; longer ones keep their extension.
const maxFilenameLen = 128

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20, strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), " .")
	if out == "" || out == "_" {
		return "download"
	}
	if len(out) > maxFilenameLen {
		ext := path.Ext(out)
		if len(ext) >= maxFilenameLen {
			// The "extension" is the whole oversized name; nothing to keep.
			ext = ""
		}
		out = out[:maxFilenameLen-len(ext)] + ext
	}
	return out
}

// progressReader wraps a response body, reporting progress per chunk and
// honoring cancellation at chunk granularity.
type progressReader struct {
	ctx        context.Context
	reader     io.Reader
	totalBytes int64
	downloaded int64
	progressFn ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := r.reader.Read(p)
	if n > 0 {
		r.downloaded += int64(n)
		if r.progressFn != nil {
			progress := Progress{
				TotalBytes: r.totalBytes,
				Downloaded: r.downloaded,
			}
			if r.totalBytes > 0 {
				progress.Percentage = float64(r.downloaded) / float64(r.totalBytes) * 100
			}
			r.progressFn(progress)
		}
	}
	return n, err
}
