// Package core orchestrates mod installs. It wires the catalog, resolver,
// fetcher, archive installer, linker and record store behind one service and
// enforces the ordering rules between them.
package core

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"hangar/internal/archive"
	"hangar/internal/catalog"
	"hangar/internal/domain"
	"hangar/internal/events"
	"hangar/internal/fetch"
	"hangar/internal/linker"
	"hangar/internal/logging"
	"hangar/internal/queue"
	"hangar/internal/resolver"
	"hangar/internal/storage/config"
	"hangar/internal/storage/db"
	"hangar/internal/storage/store"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

// Service is the entry point for install, uninstall and query operations.
type Service struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	db        *db.DB
	store     *store.Store
	linker    linker.Linker
	resolver  *resolver.Resolver
	fetcher   *fetch.Fetcher
	installer *archive.Installer
	queue     *queue.Queue
	sink      events.Sink
	lock      *flock.Flock
	log       zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates a service over the configured directories. It takes an
// exclusive lock on the data directory so two processes cannot mutate the
// same install records.
func New(cfg *config.Config, cat *catalog.Catalog, sink events.Sink) (*Service, error) {
	if cfg.GameDir == "" {
		return nil, fmt.Errorf("game directory is not configured")
	}
	for _, dir := range []string{cfg.DataDir, cfg.StorageDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory: %w", err)
		}
	}

	lock := flock.New(filepath.Join(cfg.DataDir, "hangar.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking data directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: another process holds the data directory", domain.ErrInstallBusy)
	}

	database, err := db.New(filepath.Join(cfg.DataDir, "hangar.db"))
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	lnk := linker.New(chooseLinkMethod(cfg, database))

	if sink == nil {
		sink = events.NopSink{}
	}

	httpClient := &http.Client{}
	return &Service{
		cfg:       cfg,
		catalog:   cat,
		db:        database,
		store:     store.New(cfg.StorageDir),
		linker:    lnk,
		resolver:  resolver.New(httpClient),
		fetcher:   fetch.New(httpClient),
		installer: archive.NewInstaller(),
		queue:     queue.New(cfg.MaxParallel),
		sink:      sink,
		lock:      lock,
		log:       logging.Component("core"),
		inflight:  make(map[string]struct{}),
	}, nil
}

// chooseLinkMethod picks the activation strategy once: an explicit config
// override wins, otherwise the result of a one-time filesystem probe,
// remembered in settings so later runs skip the probe.
func chooseLinkMethod(cfg *config.Config, database *db.DB) linker.Method {
	if cfg.LinkMethod != "" {
		return linker.ParseMethod(cfg.LinkMethod)
	}
	if v, ok, err := database.GetSetting("link_method"); err == nil && ok {
		return linker.ParseMethod(v)
	}
	method := linker.Detect(cfg.StorageDir)
	if err := database.SetSetting("link_method", method.String()); err != nil {
		log := logging.Component("core")
		log.Warn().Err(err).Msg("failed to remember link method")
	}
	return method
}

// Close releases the database and the data directory lock.
func (s *Service) Close() error {
	err := s.db.Close()
	if uerr := s.lock.Unlock(); uerr != nil && err == nil {
		err = uerr
	}
	return err
}

// LinkMethod reports how the service activates mods.
func (s *Service) LinkMethod() linker.Method {
	return s.linker.Method()
}

// ListInstalled returns all install records in install order.
func (s *Service) ListInstalled() ([]domain.InstalledMod, error) {
	return s.db.GetInstalledMods()
}

// gamePath returns where a mod of the given category is activated.
func (s *Service) gamePath(category domain.Category, modID string) string {
	return filepath.Join(s.cfg.GameDir, category.InstallPath(modID))
}

// beginInstall marks modID as in flight, failing if an install for it is
// already running in this process.
func (s *Service) beginInstall(modID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[modID]; busy {
		return fmt.Errorf("%w: %s", domain.ErrInstallBusy, modID)
	}
	s.inflight[modID] = struct{}{}
	return nil
}

func (s *Service) endInstall(modID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, modID)
}
