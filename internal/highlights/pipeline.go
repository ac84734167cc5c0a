package highlights

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// Analyzer fans detections out across the configured detectors and merges
// their output.
type Analyzer struct {
	detectors []Detector
	fallback  Detector
	logger    *slog.Logger
}

// NewAnalyzer builds an analyzer. The fallback detector may be nil, in which
// case a pipeline yielding nothing returns an empty result.
func NewAnalyzer(detectors []Detector, fallback Detector, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		detectors: detectors,
		fallback:  fallback,
		logger:    logging.NewComponentLogger(logger, "analyzer"),
	}
}

// Analyze runs every detector concurrently against the source, swallows
// individual detector failures, merges the surviving detections, and falls
// back to synthetic events only when no real detector produced anything.
func (a *Analyzer) Analyze(ctx context.Context, source Source) ([]Detection, error) {
	if source.Duration <= 0 {
		return nil, services.Wrap(services.ErrValidation, "detect", "analyze", "source duration must be positive", nil)
	}

	results := make([][]Detection, len(a.detectors))
	var wg sync.WaitGroup
	for i, detector := range a.detectors {
		wg.Add(1)
		go func(i int, detector Detector) {
			defer wg.Done()
			detections, err := detector.Detect(ctx, source)
			if err != nil {
				// A failed detector contributes zero detections; the
				// pipeline degrades instead of aborting.
				a.logger.Warn("detector failed",
					logging.String("detector", detector.Name()),
					logging.String(logging.FieldErrorHint, services.Reason(err)),
					logging.Error(err),
				)
				return
			}
			results[i] = detections
		}(i, detector)
	}
	wg.Wait()

	var raw []Detection
	for _, detections := range results {
		raw = append(raw, detections...)
	}

	if len(raw) == 0 {
		if a.fallback == nil {
			return nil, nil
		}
		a.logger.Info("no real detections, generating fallback events",
			logging.Float64("duration", source.Duration))
		fallback, err := a.fallback.Detect(ctx, source)
		if err != nil {
			return nil, services.Wrap(services.ErrProvider, "detect", "fallback", "fallback detector failed", err)
		}
		raw = fallback
	}

	sort.SliceStable(raw, func(i, j int) bool {
		return raw[i].Timestamp < raw[j].Timestamp
	})
	merged := Merge(raw)

	a.logger.Info("analysis complete",
		logging.Int("raw", len(raw)),
		logging.Int("merged", len(merged)),
	)
	return merged, nil
}
