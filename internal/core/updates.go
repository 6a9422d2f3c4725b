package core

import (
	"github.com/Masterminds/semver/v3"
)

// Update describes a newer catalog version of an installed mod.
type Update struct {
	ModID     string
	Name      string
	Installed string
	Available string
}

// CheckUpdates compares every install record against the catalog's latest
// artifact. Mods missing from the catalog, or with versions that do not parse
// as semver, are skipped.
func (s *Service) CheckUpdates() ([]Update, error) {
	installed, err := s.db.GetInstalledMods()
	if err != nil {
		return nil, err
	}

	var updates []Update
	for _, rec := range installed {
		mod, err := s.catalog.Lookup(rec.ModID)
		if err != nil {
			continue
		}
		art := mod.LatestArtifact()
		if art == nil {
			continue
		}

		current, err := semver.NewVersion(rec.Version)
		if err != nil {
			continue
		}
		latest, err := semver.NewVersion(art.Version)
		if err != nil {
			continue
		}

		if latest.GreaterThan(current) {
			updates = append(updates, Update{
				ModID:     rec.ModID,
				Name:      rec.Name,
				Installed: rec.Version,
				Available: art.Version,
			})
		}
	}
	return updates, nil
}
