package highlights

import "strings"

// Keywords holds per-category lowercase keyword lexicons used to classify
// transcript text.
type Keywords struct {
	Kill    []string
	Death   []string
	Victory []string
	Clutch  []string
}

// Profile bundles the per-game detection configuration.
type Profile struct {
	Name         string
	Keywords     Keywords
	ClipDuration float64
}

// DefaultProfileKey resolves for unknown or absent game titles.
const DefaultProfileKey = "default"

var profiles = map[string]Profile{
	"valorant": {
		Name: "VALORANT",
		Keywords: Keywords{
			Kill:    []string{"ace", "double kill", "triple kill", "quadra", "headshot", "one tap"},
			Death:   []string{"died", "eliminated", "killed"},
			Victory: []string{"round won", "victory", "won the round"},
			Clutch:  []string{"clutch", "1v", "last alive", "defused"},
		},
		ClipDuration: 30,
	},
	"league of legends": {
		Name: "League of Legends",
		Keywords: Keywords{
			Kill:    []string{"double kill", "triple kill", "quadra kill", "penta kill", "killing spree", "shut down"},
			Death:   []string{"executed", "slain", "has been killed"},
			Victory: []string{"victory", "nexus destroyed", "won"},
			Clutch:  []string{"baron", "elder dragon", "ace"},
		},
		ClipDuration: 35,
	},
	"csgo": {
		Name: "CS:GO",
		Keywords: Keywords{
			Kill:    []string{"ace", "quad kill", "triple kill", "double kill", "headshot"},
			Death:   []string{"eliminated"},
			Victory: []string{"terrorists win", "counter-terrorists win"},
			Clutch:  []string{"clutch", "1v", "defused", "planted"},
		},
		ClipDuration: 30,
	},
	"fortnite": {
		Name: "Fortnite",
		Keywords: Keywords{
			Kill:    []string{"eliminated", "knocked", "sniped"},
			Death:   []string{"eliminated by"},
			Victory: []string{"victory royale", "won"},
			Clutch:  []string{"last player", "final circle"},
		},
		ClipDuration: 25,
	},
	"apex legends": {
		Name: "Apex Legends",
		Keywords: Keywords{
			Kill:    []string{"knocked", "eliminated", "squad wiped"},
			Death:   []string{"down", "eliminated"},
			Victory: []string{"champion", "victory"},
			Clutch:  []string{"last squad", "clutch"},
		},
		ClipDuration: 30,
	},
	DefaultProfileKey: {
		Name: "Generic",
		Keywords: Keywords{
			Kill:    []string{"kill", "eliminated", "got him", "dead", "destroyed"},
			Death:   []string{"died", "death", "down"},
			Victory: []string{"win", "victory", "won", "gg"},
			Clutch:  []string{"clutch", "insane", "crazy"},
		},
		ClipDuration: 30,
	},
}

// ResolveProfile maps a game title to its profile. Lookup is case-insensitive
// and trimmed; unknown or empty titles resolve to the default profile. Never
// fails.
func ResolveProfile(gameTitle string) Profile {
	normalized := strings.ToLower(strings.TrimSpace(gameTitle))
	if normalized == "" {
		return profiles[DefaultProfileKey]
	}
	if profile, ok := profiles[normalized]; ok {
		return profile
	}
	return profiles[DefaultProfileKey]
}

// ProfileNames returns the known profile keys in no particular order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for key := range profiles {
		names = append(names, key)
	}
	return names
}
