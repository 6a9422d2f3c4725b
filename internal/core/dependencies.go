package core

import (
	"hangar/internal/domain"
)

// ResolveDependencies walks modID's transitive dependencies, classifying each
// as satisfied (installed), missing (in the catalog, installable) or
// unresolved (unknown). It also reports whether any dependency path loops
// back on itself.
func (s *Service) ResolveDependencies(modID string) (*domain.Resolution, error) {
	mod, err := s.catalog.Lookup(modID)
	if err != nil {
		return nil, err
	}

	installed, err := s.installedSet()
	if err != nil {
		return nil, err
	}

	res := &domain.Resolution{ModID: modID}
	seen := map[string]bool{modID: true}

	var walk func(m *domain.Mod)
	walk = func(m *domain.Mod) {
		art := m.LatestArtifact()
		if art == nil {
			return
		}
		for _, dep := range art.Dependencies {
			if seen[dep] {
				continue
			}
			seen[dep] = true

			// An installed dependency is settled; its own declarations are
			// not re-walked, so a stale entry cannot drag extra installs in.
			if installed[dep] {
				res.Satisfied = append(res.Satisfied, dep)
				continue
			}
			depMod, err := s.catalog.Lookup(dep)
			if err != nil {
				res.Unresolved = append(res.Unresolved, dep)
				continue
			}
			// Recurse before recording so dependencies come first.
			walk(depMod)
			res.Missing = append(res.Missing, dep)
		}
	}
	walk(mod)

	res.HasCircularDependency = s.hasCycle(modID)
	return res, nil
}

// hasCycle reports whether any dependency path starting at modID revisits a
// node already on that path. The walk follows catalog declarations, so cycles
// are detected even when most members are not installed yet.
func (s *Service) hasCycle(modID string) bool {
	onPath := make(map[string]bool)
	done := make(map[string]bool)

	var visit func(id string) bool
	visit = func(id string) bool {
		if onPath[id] {
			return true
		}
		if done[id] {
			return false
		}
		onPath[id] = true
		defer func() {
			delete(onPath, id)
			done[id] = true
		}()

		mod, err := s.catalog.Lookup(id)
		if err != nil {
			return false
		}
		art := mod.LatestArtifact()
		if art == nil {
			return false
		}
		for _, dep := range art.Dependencies {
			if visit(dep) {
				return true
			}
		}
		return false
	}
	return visit(modID)
}

// installedSet returns the ids of all recorded installs.
func (s *Service) installedSet() (map[string]bool, error) {
	mods, err := s.db.GetInstalledMods()
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(mods))
	for _, m := range mods {
		set[m.ModID] = true
	}
	return set, nil
}
