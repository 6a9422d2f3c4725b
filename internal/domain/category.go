package domain

import (
	"path/filepath"
	"strings"
)

// Category classifies what kind of content a mod ships. The category decides
// where inside the game directory the mod is activated; those relative paths
// are a contract with the game runtime and must not change casually.
type Category int

const (
	CategoryPlugin Category = iota
	CategoryVoicePack
	CategoryMission
	CategoryLivery
)

func (c Category) String() string {
	switch c {
	case CategoryVoicePack:
		return "voicepack"
	case CategoryMission:
		return "mission"
	case CategoryLivery:
		return "livery"
	default:
		return "plugin"
	}
}

// ParseCategory converts a string to a Category. Unknown strings map to
// CategoryPlugin, the most common kind.
func ParseCategory(s string) Category {
	switch strings.ToLower(s) {
	case "voicepack", "voice-pack", "voice pack":
		return CategoryVoicePack
	case "mission", "campaign":
		return CategoryMission
	case "livery", "skin":
		return CategoryLivery
	default:
		return CategoryPlugin
	}
}

// CategoryFromTags derives a category from descriptor tags: the first tag
// naming a known category wins, everything else is a plugin.
func CategoryFromTags(tags []string) Category {
	for _, t := range tags {
		switch strings.ToLower(t) {
		case "voicepack", "voice-pack", "voice pack":
			return CategoryVoicePack
		case "mission", "campaign":
			return CategoryMission
		case "livery", "skin":
			return CategoryLivery
		case "plugin", "mod":
			return CategoryPlugin
		}
	}
	return CategoryPlugin
}

// InstallPath returns the directory, relative to the game root, where a mod
// of this category is activated.
func (c Category) InstallPath(modID string) string {
	switch c {
	case CategoryVoicePack:
		return filepath.Join("plugins", "BaseVoicePack", "audio", modID)
	case CategoryMission:
		return filepath.Join("missions", modID)
	case CategoryLivery:
		return filepath.Join("StreamingAssets", "liveries", modID)
	default:
		return filepath.Join("plugins", modID)
	}
}

// SingleSlot reports whether the game can only honor one active mod of this
// category at a time, making two of them duplicate functionality.
func (c Category) SingleSlot() bool {
	return c == CategoryVoicePack || c == CategoryLivery
}
