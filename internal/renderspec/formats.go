package renderspec

import (
	"fmt"
	"sort"
	"strings"

	"clipforge/internal/services"
)

// Format describes a platform-targeted vertical export shape.
type Format struct {
	Key         string
	Name        string
	Width       int
	Height      int
	AspectRatio string
	MaxDuration float64
}

var formats = map[string]Format{
	"tiktok": {
		Key:         "tiktok",
		Name:        "TikTok",
		Width:       1080,
		Height:      1920,
		AspectRatio: "9:16",
		MaxDuration: 180,
	},
	"reels": {
		Key:         "reels",
		Name:        "Instagram Reels",
		Width:       1080,
		Height:      1920,
		AspectRatio: "9:16",
		MaxDuration: 90,
	},
	"shorts": {
		Key:         "shorts",
		Name:        "YouTube Shorts",
		Width:       1080,
		Height:      1920,
		AspectRatio: "9:16",
		MaxDuration: 60,
	},
}

// ResolveFormat looks up a platform format by key.
func ResolveFormat(key string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	format, ok := formats[normalized]
	if !ok {
		return Format{}, services.Wrap(services.ErrValidation, "export", "format",
			fmt.Sprintf("unknown export format %q (known: %s)", key, strings.Join(FormatKeys(), ", ")), nil)
	}
	return format, nil
}

// ValidateClipDuration rejects clips too long for the target format. This
// runs before any export record is created.
func ValidateClipDuration(format Format, duration float64) error {
	if duration > format.MaxDuration {
		return services.Wrap(services.ErrValidation, "export", "format",
			fmt.Sprintf("clip duration (%.0fs) exceeds %s maximum (%.0fs); trim the clip first",
				duration, format.Name, format.MaxDuration), nil)
	}
	return nil
}

// FormatKeys returns the known format keys sorted.
func FormatKeys() []string {
	keys := make([]string, 0, len(formats))
	for key := range formats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
