package domain

import (
	"time"

	"github.com/Masterminds/semver/v3"
)

// Channel identifies the release track of an artifact.
type Channel string

const (
	ChannelRelease Channel = "release"
	ChannelBeta    Channel = "beta"
	ChannelAlpha   Channel = "alpha"
)

// Artifact is one downloadable, versioned unit of a mod.
type Artifact struct {
	Version       string   `json:"version"`
	DownloadURL   string   `json:"download_url"`
	Hash          string   `json:"hash,omitempty"` // "algorithm:hex", optional
	FileSizeBytes int64    `json:"file_size_bytes,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"` // mod IDs
	Conflicts     []string `json:"conflicts,omitempty"`    // mod IDs
	Channel       Channel  `json:"channel,omitempty"`
}

// Mod is a catalog entry describing one mod and its downloadable artifacts.
// The ID is stable across versions and unique within a catalog.
type Mod struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Authors   []string   `json:"authors,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	Artifacts []Artifact `json:"artifacts"`
}

// Category derives the mod's category from its tags.
func (m *Mod) Category() Category {
	return CategoryFromTags(m.Tags)
}

// LatestArtifact returns the highest-version artifact on the release
// channel. When no artifact is tagged release it falls back to the highest
// version on any channel. Versions that fail to parse as semver sort lowest.
// Returns nil only when the mod has no artifacts at all.
func (m *Mod) LatestArtifact() *Artifact {
	best := bestVersion(m.Artifacts, func(a *Artifact) bool {
		return a.Channel == ChannelRelease || a.Channel == ""
	})
	if best == nil {
		best = bestVersion(m.Artifacts, func(*Artifact) bool { return true })
	}
	return best
}

func bestVersion(artifacts []Artifact, keep func(*Artifact) bool) *Artifact {
	var best *Artifact
	var bestVer *semver.Version
	for i := range artifacts {
		a := &artifacts[i]
		if !keep(a) {
			continue
		}
		ver, err := semver.NewVersion(a.Version)
		if err != nil {
			ver = nil
		}
		switch {
		case best == nil:
			best, bestVer = a, ver
		case bestVer == nil && ver != nil:
			best, bestVer = a, ver
		case ver != nil && bestVer != nil && ver.GreaterThan(bestVer):
			best, bestVer = a, ver
		}
	}
	return best
}

// InstalledMod is the persisted record of one installed mod. It is created
// on install commit, mutated by enable/disable/update, and deleted on
// uninstall.
type InstalledMod struct {
	ModID       string
	Name        string
	Version     string
	Hash        string // digest of the downloaded artifact, "sha256:hex"
	Category    Category
	Enabled     bool
	StoragePath string // private per-mod storage directory
	InstalledAt time.Time
}
