// Package catalog fetches and indexes the mod catalog. The catalog is a JSON
// document listing every known mod with its artifacts; the client downloads
// it over HTTP and validates it into an immutable snapshot.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hangar/internal/backoff"
	"hangar/internal/domain"

	"github.com/rs/zerolog"
)

// maxCatalogBytes caps the catalog document size.
const maxCatalogBytes = 32 << 20

// Catalog is an immutable snapshot of the mod index.
type Catalog struct {
	mods []domain.Mod
	byID map[string]*domain.Mod
}

// NewCatalog builds a snapshot from a mod list. Mod IDs must be unique;
// entries without artifacts are kept but never installable.
func NewCatalog(mods []domain.Mod) (*Catalog, error) {
	byID := make(map[string]*domain.Mod, len(mods))
	for i := range mods {
		m := &mods[i]
		if m.ID == "" {
			return nil, fmt.Errorf("catalog entry %q has no id", m.Name)
		}
		if _, dup := byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", m.ID)
		}
		byID[m.ID] = m
	}
	return &Catalog{mods: mods, byID: byID}, nil
}

// Lookup returns the mod with the given id.
func (c *Catalog) Lookup(modID string) (*domain.Mod, error) {
	m, ok := c.byID[modID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrModNotFound, modID)
	}
	return m, nil
}

// Mods returns all catalog entries.
func (c *Catalog) Mods() []domain.Mod {
	return c.mods
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.mods)
}

// Client downloads catalog documents.
type Client struct {
	httpClient *http.Client
	attempts   int
	baseDelay  time.Duration
	log        zerolog.Logger
}

// NewClient creates a catalog client.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		attempts:   3,
		baseDelay:  time.Second,
		log:        log,
	}
}

type catalogDocument struct {
	Mods []domain.Mod `json:"mods"`
}

// Fetch downloads and parses the catalog at url. Transient server errors are
// retried; malformed documents are not.
func (c *Client) Fetch(ctx context.Context, url string) (*Catalog, error) {
	var body []byte
	err := backoff.Do(ctx, c.attempts, c.baseDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Abort(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("catalog server returned %s", resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Abort(fmt.Errorf("catalog server returned %s", resp.Status))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}

	var doc catalogDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	cat, err := NewCatalog(doc.Mods)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Int("mods", cat.Len()).Msg("catalog fetched")
	return cat, nil
}
