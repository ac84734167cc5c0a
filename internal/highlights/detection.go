package highlights

import (
	"context"
	"fmt"
)

// Category classifies a detection. The set is open but bounded; detectors may
// introduce new values, the merger and selector treat it as opaque.
type Category string

const (
	CategoryKill      Category = "kill"
	CategoryDeath     Category = "death"
	CategoryHighlight Category = "highlight"
	CategoryClutch    Category = "clutch"
	CategoryHype      Category = "hype"
)

// Metadata carries detector-specific context for a detection.
type Metadata struct {
	Source   string   `json:"source"`
	Text     string   `json:"text,omitempty"`
	Keywords []string `json:"keywords_found,omitempty"`
	Game     string   `json:"game,omitempty"`
	Signals  []string `json:"signals,omitempty"`
}

// Detection is a single timestamped, categorized, confidence-scored candidate
// highlight event.
type Detection struct {
	Category   Category
	Timestamp  float64
	Confidence float64
	Metadata   Metadata
}

// Source describes the video a detector analyzes.
type Source struct {
	VideoURL string
	Duration float64
	Profile  Profile
}

// Detector analyzes a video and emits raw detections. Implementations must
// not share mutable state; the pipeline runs them concurrently.
type Detector interface {
	Name() string
	Detect(ctx context.Context, source Source) ([]Detection, error)
}

// FormatTimestamp renders a second offset as H:MM:SS, or M:SS under an hour.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
