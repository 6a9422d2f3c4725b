package domain

import "errors"

var (
	ErrModNotFound     = errors.New("mod not found in catalog")
	ErrNotInstalled    = errors.New("mod not installed")
	ErrNoArtifact      = errors.New("mod has no downloadable artifact")
	ErrInstallBusy     = errors.New("another install is in progress")
	ErrIntegrity       = errors.New("artifact integrity check failed")
	ErrInvalidArtifact = errors.New("unrecognized artifact format")
	ErrPathTraversal   = errors.New("archive entry escapes extraction directory")
	ErrEmptyArtifact   = errors.New("extracted content is empty")
	ErrUnresolvedDeps  = errors.New("unresolved dependencies")
)
