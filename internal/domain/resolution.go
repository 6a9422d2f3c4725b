package domain

// Resolution is the outcome of resolving a mod's transitive dependencies
// against the catalog and the installed set.
type Resolution struct {
	ModID      string
	Satisfied  []string // already installed
	Missing    []string // in the catalog but not installed, dependency-first order
	Unresolved []string // not found anywhere

	// HasCircularDependency is set when an id repeats along any dependency
	// path reachable from the target. It is evaluated independently of
	// resolvability.
	HasCircularDependency bool
}

// FullyResolved reports whether the target can run as-is: nothing missing,
// nothing unresolved, no cycle.
func (r *Resolution) FullyResolved() bool {
	return len(r.Missing) == 0 && len(r.Unresolved) == 0 && !r.HasCircularDependency
}
