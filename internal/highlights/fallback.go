package highlights

import (
	"context"
	"math"
)

const (
	fallbackStep      = 15
	fallbackMaxEvents = 12
	fallbackEdge      = 10
)

var fallbackCategories = []Category{CategoryKill, CategoryHighlight, CategoryClutch}

// FallbackDetector spreads synthetic events evenly across the middle of the
// timeline. It must only run when every real detector produced nothing or the
// whole analysis failed; the Analyzer enforces that.
type FallbackDetector struct {
	sampler IntensitySampler
}

// NewFallbackDetector builds the last-resort detector. The sampler drives
// category choice and confidence jitter.
func NewFallbackDetector(sampler IntensitySampler) *FallbackDetector {
	return &FallbackDetector{sampler: sampler}
}

func (d *FallbackDetector) Name() string { return "fallback" }

func (d *FallbackDetector) Detect(ctx context.Context, source Source) ([]Detection, error) {
	count := int(math.Min(math.Floor(source.Duration/fallbackStep), fallbackMaxEvents))
	if count <= 0 {
		return nil, nil
	}

	detections := make([]Detection, 0, count)
	for i := 0; i < count; i++ {
		timestamp := math.Floor(source.Duration / float64(count+1) * float64(i+1))
		timestamp = math.Max(fallbackEdge, math.Min(timestamp, source.Duration-fallbackEdge))

		roll := d.sampler.Sample(timestamp)
		category := fallbackCategories[int(roll*float64(len(fallbackCategories)))%len(fallbackCategories)]

		detections = append(detections, Detection{
			Category:   category,
			Timestamp:  timestamp,
			Confidence: 0.65 + d.sampler.Sample(timestamp)*0.25,
			Metadata: Metadata{
				Source: d.Name(),
				Game:   source.Profile.Name,
			},
		})
	}
	return detections, nil
}
