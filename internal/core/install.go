package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"hangar/internal/domain"
	"hangar/internal/events"
	"hangar/internal/fetch"
	"hangar/internal/txn"
)

// InstallMod installs modID and any missing dependencies. Dependencies are
// installed first, in dependency order, each download passing through the
// bounded queue. Mods whose dependencies cannot be found in the catalog are
// rejected before anything is downloaded.
func (s *Service) InstallMod(ctx context.Context, modID string, progress fetch.ProgressFunc) error {
	res, err := s.ResolveDependencies(modID)
	if err != nil {
		return err
	}
	if len(res.Unresolved) > 0 {
		return fmt.Errorf("%w: %s needs %s", domain.ErrUnresolvedDeps, modID, strings.Join(res.Unresolved, ", "))
	}

	conflicts, err := s.conflictsWith(modID)
	if err != nil {
		return err
	}
	for _, c := range conflicts {
		s.log.Warn().
			Str("mod", c.ModA).
			Str("with", c.ModB).
			Stringer("severity", c.Severity).
			Msg("installing despite declared conflict")
	}

	order, err := s.installOrder(modID)
	if err != nil {
		return err
	}
	for _, id := range order {
		mod, err := s.catalog.Lookup(id)
		if err != nil {
			return err
		}
		if err := s.installOne(ctx, mod, progress); err != nil {
			return fmt.Errorf("installing %s: %w", id, err)
		}
	}
	return nil
}

// installOrder returns the not-yet-installed mods reachable from modID in
// dependency-first order. Already-visited nodes are skipped, which also keeps
// the walk finite over cyclic declarations.
func (s *Service) installOrder(modID string) ([]string, error) {
	installed, err := s.installedSet()
	if err != nil {
		return nil, err
	}

	var order []string
	visited := make(map[string]bool)

	var walk func(id string) error
	walk = func(id string) error {
		if visited[id] {
			return nil
		}
		visited[id] = true

		mod, err := s.catalog.Lookup(id)
		if err != nil {
			return err
		}
		if art := mod.LatestArtifact(); art != nil {
			for _, dep := range art.Dependencies {
				if installed[dep] {
					continue
				}
				if err := walk(dep); err != nil {
					return err
				}
			}
		}
		order = append(order, id)
		return nil
	}

	if err := walk(modID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) installOne(ctx context.Context, mod *domain.Mod, progress fetch.ProgressFunc) error {
	if err := s.beginInstall(mod.ID); err != nil {
		return err
	}
	defer s.endInstall(mod.ID)

	art := mod.LatestArtifact()
	if art == nil {
		return fmt.Errorf("%w: %s", domain.ErrNoArtifact, mod.ID)
	}

	// Same version already on disk: no download, but make sure it ends up
	// active, since a completed install always leaves the mod enabled.
	if rec, err := s.db.GetInstalledMod(mod.ID); err == nil && rec.Version == art.Version && s.store.Exists(mod.ID) {
		s.log.Debug().Str("mod", mod.ID).Str("version", art.Version).Msg("already installed")
		if !rec.Enabled {
			return s.ToggleMod(mod.ID, true)
		}
		return nil
	} else if err != nil && !errors.Is(err, domain.ErrNotInstalled) {
		return err
	}

	s.sink.Publish(events.New(events.TypeResolveStarted, mod.ID, art.DownloadURL))
	url, err := s.resolver.Resolve(ctx, art.DownloadURL)
	if err != nil {
		return fmt.Errorf("resolving download link: %w", err)
	}

	downloadDir, err := os.MkdirTemp("", "hangar-dl-")
	if err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}
	defer os.RemoveAll(downloadDir)

	s.sink.Publish(events.New(events.TypeDownloadStarted, mod.ID, url))
	started := time.Now()

	var result *fetch.Result
	err = s.queue.Do(ctx, func() error {
		var ferr error
		result, ferr = s.fetcher.Fetch(ctx, url, art.Hash, downloadDir, progress)
		return ferr
	})
	if err != nil {
		s.publishFailure(mod.ID, err)
		return err
	}

	done := events.New(events.TypeDownloadDone, mod.ID, result.SuggestedName)
	done.Bytes = result.Size
	done.Duration = time.Since(started)
	s.sink.Publish(done)

	if err := s.installArtifact(ctx, mod, art, result); err != nil {
		s.publishFailure(mod.ID, err)
		return err
	}

	s.sink.Publish(events.New(events.TypeInstallDone, mod.ID, art.Version))
	return nil
}

// installArtifact extracts the downloaded file into private storage under a
// transaction and activates it in the game directory once the record is
// committed.
func (s *Service) installArtifact(ctx context.Context, mod *domain.Mod, art *domain.Artifact, result *fetch.Result) error {
	category := mod.Category()
	target := s.store.ModPath(mod.ID)

	s.sink.Publish(events.New(events.TypeInstallStarted, mod.ID, art.Version))

	tx := txn.New(mod.ID, category, target, s.installer, s.log)
	defer tx.Close()

	if err := tx.Begin(); err != nil {
		return err
	}
	if err := tx.Extract(ctx, result.Path); err != nil {
		return err
	}
	if err := tx.Verify(); err != nil {
		return err
	}

	record := &domain.InstalledMod{
		ModID:       mod.ID,
		Name:        mod.Name,
		Version:     art.Version,
		Hash:        result.Digest,
		Category:    category,
		Enabled:     true,
		StoragePath: target,
		InstalledAt: time.Now(),
	}
	if err := tx.Commit(func() error { return s.db.SaveInstalledMod(record) }); err != nil {
		return err
	}

	if err := s.linker.Activate(target, s.gamePath(category, mod.ID)); err != nil {
		return fmt.Errorf("activating mod: %w", err)
	}
	return nil
}

func (s *Service) publishFailure(modID string, err error) {
	ev := events.New(events.TypeInstallFailed, modID, "install failed")
	ev.Err = err
	s.sink.Publish(ev)
}

// UninstallMod deactivates a mod, removes its private storage and deletes the
// install record.
func (s *Service) UninstallMod(modID string) error {
	rec, err := s.db.GetInstalledMod(modID)
	if err != nil {
		return err
	}

	if err := s.linker.Deactivate(s.gamePath(rec.Category, modID)); err != nil {
		return fmt.Errorf("deactivating mod: %w", err)
	}
	if err := s.store.Delete(modID); err != nil {
		return err
	}
	if err := s.db.DeleteInstalledMod(modID); err != nil {
		return err
	}

	s.sink.Publish(events.New(events.TypeUninstallDone, modID, rec.Version))
	return nil
}

// ToggleMod enables or disables an installed mod without touching its stored
// bytes. Toggling to the current state is a no-op.
func (s *Service) ToggleMod(modID string, enabled bool) error {
	rec, err := s.db.GetInstalledMod(modID)
	if err != nil {
		return err
	}

	dst := s.gamePath(rec.Category, modID)
	if enabled {
		if err := s.linker.Activate(rec.StoragePath, dst); err != nil {
			return fmt.Errorf("activating mod: %w", err)
		}
	} else {
		if err := s.linker.Deactivate(dst); err != nil {
			return fmt.Errorf("deactivating mod: %w", err)
		}
	}
	if err := s.db.SetModEnabled(modID, enabled); err != nil {
		return err
	}

	typ := events.TypeModEnabled
	if !enabled {
		typ = events.TypeModDisabled
	}
	s.sink.Publish(events.New(typ, modID, rec.Version))
	return nil
}
