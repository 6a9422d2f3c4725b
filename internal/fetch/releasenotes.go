package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

var hexDigestPattern = regexp.MustCompile(`\b[a-fA-F0-9]{64}\b`)

// digestWindow is how far around the filename mention the release notes are
// searched for a digest.
const digestWindow = 256

// lookupPublishedHash is the best-effort secondary hash source: for GitHub
// release assets it fetches the release notes and scans them for a
// 64-hex-char digest near the asset filename. Any failure simply yields an
// empty hash; most hosts never publish one and verification stays advisory.
func (f *Fetcher) lookupPublishedHash(ctx context.Context, fileURL, filename string) string {
	owner, repo, tag, ok := parseReleaseAssetURL(fileURL)
	if !ok {
		return ""
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", f.releaseAPI, owner, repo, url.PathEscape(tag))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := f.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var release struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return ""
	}

	return digestNearFilename(release.Body, filename)
}

// digestNearFilename finds a 64-hex digest within digestWindow bytes of the
// filename's mention in the notes.
func digestNearFilename(notes, filename string) string {
	idx := strings.Index(notes, filename)
	if idx < 0 {
		return ""
	}

	lo := idx - digestWindow
	if lo < 0 {
		lo = 0
	}
	hi := idx + len(filename) + digestWindow
	if hi > len(notes) {
		hi = len(notes)
	}

	return hexDigestPattern.FindString(notes[lo:hi])
}

// parseReleaseAssetURL splits a github.com release asset URL into its
// owner/repo/tag parts.
func parseReleaseAssetURL(fileURL string) (owner, repo, tag string, ok bool) {
	u, err := url.Parse(fileURL)
	if err != nil || u.Host != "github.com" {
		return "", "", "", false
	}
	// /<owner>/<repo>/releases/download/<tag>/<asset>
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 6 || parts[2] != "releases" || parts[3] != "download" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[4], true
}
