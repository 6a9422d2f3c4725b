// Package resolver normalizes catalog and user-supplied URLs into directly
// fetchable locations, absorbing host-specific redirect and confirmation
// quirks (GitHub blob views, Google Drive share links, Proton Drive shares).
package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"hangar/internal/logging"
)

// directExtensions are file suffixes that need no rewriting.
var directExtensions = map[string]bool{
	".zip": true, ".rar": true, ".7z": true, ".gz": true, ".tgz": true,
	".tar": true, ".dll": true, ".so": true, ".pak": true, ".bin": true,
}

// rawHosts serve file bytes as-is and pass through unchanged.
var rawHosts = map[string]bool{
	"raw.githubusercontent.com":     true,
	"objects.githubusercontent.com": true,
	"gist.githubusercontent.com":    true,
}

// errNoRule marks a candidate no host rule applies to.
type errNoRule struct{ url string }

func (e *errNoRule) Error() string { return fmt.Sprintf("no resolution rule for %s", e.url) }

// Resolver turns arbitrary mod URLs into fetchable ones.
type Resolver struct {
	client      *http.Client
	driveExport string
	protonBase  string
	log         zerolog.Logger
}

// New creates a Resolver. If client is nil, http.DefaultClient is used.
func New(client *http.Client) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{
		client:      client,
		driveExport: "https://drive.google.com/uc?export=download&id=",
		protonBase:  "https://drive.proton.me/api/drive",
		log:         logging.Component("resolver"),
	}
}

// Resolve normalizes raw into a fetchable URL. The input may hold several
// semicolon-separated candidates; the first one a host rule resolves wins.
// Candidates that fail with anything but cancellation are skipped; if none
// resolve, the original input is returned unchanged so the fetch step can
// surface the eventual error. The only error returned is a context error.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, error) {
	for _, candidate := range strings.Split(raw, ";") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}

		resolved, err := r.resolveCandidate(ctx, candidate)
		if err == nil {
			return resolved, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.log.Debug().Str("candidate", candidate).Err(err).Msg("candidate did not resolve")
	}

	return raw, nil
}

func (r *Resolver) resolveCandidate(ctx context.Context, candidate string) (string, error) {
	u, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}

	switch {
	case rawHosts[u.Host]:
		return candidate, nil
	case u.Host == "github.com":
		return resolveGitHub(u)
	case u.Host == "drive.google.com" || u.Host == "docs.google.com":
		return r.resolveGoogleDrive(ctx, u)
	case u.Host == "drive.proton.me":
		return r.resolveProtonDrive(ctx, u)
	case isDirectFile(u):
		return candidate, nil
	default:
		return "", &errNoRule{url: candidate}
	}
}

// resolveGitHub rewrites blob view URLs to their raw-content form and passes
// release assets and raw links through.
func resolveGitHub(u *url.URL) (string, error) {
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// github.com/<owner>/<repo>/blob/<ref>/<path...>
	if len(parts) >= 5 && parts[2] == "blob" {
		raw := *u
		raw.Host = "raw.githubusercontent.com"
		raw.Path = "/" + strings.Join(parts[:2], "/") + "/" + strings.Join(parts[3:], "/")
		return raw.String(), nil
	}
	if isDirectFile(u) {
		return u.String(), nil
	}
	return "", &errNoRule{url: u.String()}
}

// isDirectFile reports whether the URL already looks like a file download:
// a known file extension, a /raw/ segment, or a release asset path.
func isDirectFile(u *url.URL) bool {
	if directExtensions[strings.ToLower(path.Ext(u.Path))] {
		return true
	}
	return strings.Contains(u.Path, "/raw/") || strings.Contains(u.Path, "/releases/download/")
}
