package renderspec

import (
	"fmt"
	"sort"
	"strings"

	"clipforge/internal/services"
)

// StylePack is a cosmetic bundle applied during spec construction.
type StylePack struct {
	Key          string
	Name         string
	OverlayImage string
	TitleStyle   string
}

var stylePacks = map[string]StylePack{
	"clean": {
		Key:        "clean",
		Name:       "Clean",
		TitleStyle: "minimal",
	},
	"neon": {
		Key:          "neon",
		Name:         "Neon",
		OverlayImage: "https://assets.clipforge.dev/styles/neon-frame.png",
		TitleStyle:   "future",
	},
	"esports": {
		Key:          "esports",
		Name:         "Esports",
		OverlayImage: "https://assets.clipforge.dev/styles/esports-badge.png",
		TitleStyle:   "blockbuster",
	},
}

// DefaultStylePackKey is applied when an export names no style pack.
const DefaultStylePackKey = "clean"

// ResolveStylePack looks up a style pack by key. An empty key resolves to the
// default pack.
func ResolveStylePack(key string) (StylePack, error) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		normalized = DefaultStylePackKey
	}
	pack, ok := stylePacks[normalized]
	if !ok {
		return StylePack{}, services.Wrap(services.ErrValidation, "export", "style-pack",
			fmt.Sprintf("unknown style pack %q (known: %s)", key, strings.Join(StylePackKeys(), ", ")), nil)
	}
	return pack, nil
}

// StylePackKeys returns the known style pack keys sorted.
func StylePackKeys() []string {
	keys := make([]string, 0, len(stylePacks))
	for key := range stylePacks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
