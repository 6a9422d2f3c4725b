package core

import (
	"hangar/internal/domain"
)

// DetectConflicts checks every pair of installed mods against the catalog's
// conflict and dependency declarations. Detection is advisory and never
// blocks an install.
func (s *Service) DetectConflicts() ([]domain.Conflict, error) {
	installed, err := s.db.GetInstalledMods()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(installed))
	for _, m := range installed {
		ids = append(ids, m.ModID)
	}

	var conflicts []domain.Conflict
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			conflicts = append(conflicts, s.pairConflicts(ids[i], ids[j])...)
		}
	}
	return conflicts, nil
}

// conflictsWith returns the conflicts a candidate would add against the
// installed set.
func (s *Service) conflictsWith(modID string) ([]domain.Conflict, error) {
	installed, err := s.db.GetInstalledMods()
	if err != nil {
		return nil, err
	}

	var conflicts []domain.Conflict
	for _, m := range installed {
		if m.ModID == modID {
			continue
		}
		conflicts = append(conflicts, s.pairConflicts(modID, m.ModID)...)
	}
	return conflicts, nil
}

// pairConflicts evaluates one unordered pair. A declaration by either side
// yields exactly one incompatibility record for the pair.
func (s *Service) pairConflicts(a, b string) []domain.Conflict {
	var out []domain.Conflict

	if s.declaresConflict(a, b) || s.declaresConflict(b, a) {
		out = append(out, domain.Conflict{
			ModA:     a,
			ModB:     b,
			Type:     domain.ConflictIncompatible,
			Severity: domain.SeverityCritical,
		})
	}

	if s.sharedSingleSlot(a, b) {
		out = append(out, domain.Conflict{
			ModA:     a,
			ModB:     b,
			Type:     domain.ConflictDuplicateFunctionality,
			Severity: domain.SeverityLow,
		})
	}

	if s.declaresDependency(a, b) && s.declaresDependency(b, a) {
		out = append(out, domain.Conflict{
			ModA:     a,
			ModB:     b,
			Type:     domain.ConflictCircularDependency,
			Severity: domain.SeverityHigh,
		})
	}
	return out
}

func (s *Service) declaresConflict(from, against string) bool {
	art := s.latestOf(from)
	if art == nil {
		return false
	}
	for _, c := range art.Conflicts {
		if c == against {
			return true
		}
	}
	return false
}

func (s *Service) declaresDependency(from, on string) bool {
	art := s.latestOf(from)
	if art == nil {
		return false
	}
	for _, d := range art.Dependencies {
		if d == on {
			return true
		}
	}
	return false
}

// sharedSingleSlot reports whether both mods occupy the same single-slot
// category, like two voicepacks fighting over the voice directory.
func (s *Service) sharedSingleSlot(a, b string) bool {
	ca, ok := s.categoryOf(a)
	if !ok || !ca.SingleSlot() {
		return false
	}
	cb, ok := s.categoryOf(b)
	return ok && cb == ca
}

func (s *Service) categoryOf(modID string) (domain.Category, bool) {
	if mod, err := s.catalog.Lookup(modID); err == nil {
		return mod.Category(), true
	}
	if rec, err := s.db.GetInstalledMod(modID); err == nil {
		return rec.Category, true
	}
	return 0, false
}

func (s *Service) latestOf(modID string) *domain.Artifact {
	mod, err := s.catalog.Lookup(modID)
	if err != nil {
		return nil
	}
	return mod.LatestArtifact()
}
