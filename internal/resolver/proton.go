package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// protonShareInfo is the metadata answer for a public share URL:
// the LinkID/ShareID pair that addresses the actual file.
type protonShareInfo struct {
	LinkID  string `json:"LinkID"`
	ShareID string `json:"ShareID"`
}

// resolveProtonDrive resolves a drive.proton.me/urls/<shareId>#<password>
// share URL via the public share metadata endpoint and builds the final
// download location from the returned LinkID/ShareID pair.
func (r *Resolver) resolveProtonDrive(ctx context.Context, u *url.URL) (string, error) {
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "urls" || parts[1] == "" {
		return "", fmt.Errorf("no share id in proton url %s", u)
	}
	shareToken := parts[1]

	infoURL := fmt.Sprintf("%s/urls/%s/info", r.protonBase, url.PathEscape(shareToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("fetching share metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("share metadata: HTTP %d", resp.StatusCode)
	}

	var info protonShareInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decoding share metadata: %w", err)
	}
	if info.LinkID == "" || info.ShareID == "" {
		return "", fmt.Errorf("share metadata missing link or share id")
	}

	return fmt.Sprintf("%s/shares/%s/files/%s/download",
		r.protonBase, url.PathEscape(info.ShareID), url.PathEscape(info.LinkID)), nil
}
