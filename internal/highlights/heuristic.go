package highlights

import (
	"context"
	"math"
	"math/rand"
	"sync"
)

// IntensitySampler scores a point on the timeline in [0, 1]. The default
// implementation is a seeded PRNG standing in for real audio and video signal
// analysis; swapping in a genuine analyzer requires no change to the
// detectors or anything downstream of them.
type IntensitySampler interface {
	Sample(timestamp float64) float64
}

// RandomSampler is the placeholder IntensitySampler. A zero seed derives a
// distinct stream per instance.
type RandomSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSampler creates a sampler. Seed 0 selects a non-deterministic seed.
func NewRandomSampler(seed int64) *RandomSampler {
	src := rand.NewSource(seed)
	if seed == 0 {
		src = rand.NewSource(rand.Int63())
	}
	return &RandomSampler{rng: rand.New(src)}
}

func (s *RandomSampler) Sample(timestamp float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

const (
	intensityThreshold = 0.7
	heuristicBaseConf  = 0.6
	heuristicConfSpan  = 0.25
)

// heuristicDetector samples the timeline at a fixed interval and flags samples
// whose intensity exceeds the threshold. Confidence scales linearly with the
// excess into [0.6, 0.85].
type heuristicDetector struct {
	name     string
	category Category
	interval float64
	sampler  IntensitySampler
}

// NewAmplitudeDetector flags audio-intensity spikes as hype moments.
func NewAmplitudeDetector(sampler IntensitySampler, interval float64) Detector {
	return newHeuristicDetector("amplitude", CategoryHype, sampler, interval)
}

// NewMotionDetector flags visual-intensity spikes as highlight moments.
func NewMotionDetector(sampler IntensitySampler, interval float64) Detector {
	return newHeuristicDetector("motion", CategoryHighlight, sampler, interval)
}

func newHeuristicDetector(name string, category Category, sampler IntensitySampler, interval float64) Detector {
	if interval <= 0 {
		interval = 3
	}
	return &heuristicDetector{
		name:     name,
		category: category,
		interval: interval,
		sampler:  sampler,
	}
}

func (d *heuristicDetector) Name() string { return d.name }

func (d *heuristicDetector) Detect(ctx context.Context, source Source) ([]Detection, error) {
	var detections []Detection
	for t := d.interval; t < source.Duration; t += d.interval {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		intensity := d.sampler.Sample(t)
		if intensity <= intensityThreshold {
			continue
		}
		excess := (intensity - intensityThreshold) / (1 - intensityThreshold)
		detections = append(detections, Detection{
			Category:   d.category,
			Timestamp:  math.Floor(t),
			Confidence: heuristicBaseConf + excess*heuristicConfSpan,
			Metadata: Metadata{
				Source: d.name,
				Game:   source.Profile.Name,
			},
		})
	}
	return detections, nil
}
