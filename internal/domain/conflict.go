package domain

// ConflictType classifies why two mods clash.
type ConflictType int

const (
	ConflictIncompatible ConflictType = iota
	ConflictDuplicateFunctionality
	ConflictCircularDependency
)

func (t ConflictType) String() string {
	switch t {
	case ConflictDuplicateFunctionality:
		return "duplicate-functionality"
	case ConflictCircularDependency:
		return "circular-dependency"
	default:
		return "incompatible"
	}
}

// Severity grades how serious a conflict is. Detection is advisory; the
// caller decides whether any level blocks an install.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "low"
	}
}

// Conflict records one pairwise incompatibility between two mods. A pair may
// accumulate multiple records of different types.
type Conflict struct {
	ModA     string
	ModB     string
	Type     ConflictType
	Severity Severity
}
