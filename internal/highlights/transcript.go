package highlights

import (
	"context"
	"math"
	"strings"

	"clipforge/internal/services/transcribe"
)

// hypeWords is a generic excitement lexicon applied after the game-specific
// categories; it catches commentary reactions regardless of game.
var hypeWords = []string{
	"nice", "wow", "holy", "insane", "crazy", "let's go", "lets go",
	"oh my god", "omg", "no way", "yes", "yeah", "sick", "fire",
}

// Transcriber is the slice of the transcription client the detector needs.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) ([]transcribe.Segment, error)
}

// TranscriptDetector classifies transcript segments against the game
// profile's keyword lexicons.
type TranscriptDetector struct {
	transcriber Transcriber
}

// NewTranscriptDetector builds a transcript detector over the given provider.
func NewTranscriptDetector(transcriber Transcriber) *TranscriptDetector {
	return &TranscriptDetector{transcriber: transcriber}
}

func (d *TranscriptDetector) Name() string { return "transcript" }

// Detect submits the video for transcription and keyword-matches each
// returned segment. Categories are tested in a fixed priority order: kill,
// then clutch, then victory, then the generic hype list. The first matching
// category wins; segments matching nothing produce no detection.
func (d *TranscriptDetector) Detect(ctx context.Context, source Source) ([]Detection, error) {
	segments, err := d.transcriber.Transcribe(ctx, source.VideoURL)
	if err != nil {
		return nil, err
	}

	var detections []Detection
	for _, segment := range segments {
		text := strings.ToLower(segment.Text)
		if text == "" {
			continue
		}

		category, confidence, matched := classify(text, source.Profile.Keywords)
		if len(matched) == 0 {
			continue
		}

		detections = append(detections, Detection{
			Category:   category,
			Timestamp:  math.Floor(segment.Start),
			Confidence: confidence,
			Metadata: Metadata{
				Source:   d.Name(),
				Text:     segment.Text,
				Keywords: matched,
				Game:     source.Profile.Name,
			},
		})
	}
	return detections, nil
}

func classify(text string, keywords Keywords) (Category, float64, []string) {
	if matched := matchAll(text, keywords.Kill); len(matched) > 0 {
		return CategoryKill, 0.85, matched
	}
	if matched := matchAll(text, keywords.Clutch); len(matched) > 0 {
		return CategoryClutch, 0.90, matched
	}
	if matched := matchAll(text, keywords.Victory); len(matched) > 0 {
		return CategoryHighlight, 0.95, matched
	}
	if matched := matchAll(text, hypeWords); len(matched) > 0 {
		return CategoryHype, 0.70, matched
	}
	return "", 0, nil
}

func matchAll(text string, keywords []string) []string {
	var matched []string
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			matched = append(matched, keyword)
		}
	}
	return matched
}
