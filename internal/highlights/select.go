package highlights

import (
	"math"
	"sort"
)

const (
	// ConfidenceFloor is the minimum confidence a detection needs to be
	// considered for auto-clipping.
	ConfidenceFloor = 0.75

	// MinSpacing is the minimum gap in seconds between selected highlights.
	MinSpacing = 45.0

	maxHighlights      = 8
	highlightsPerBlock = 120.0
)

// MaxSelectable returns the highlight budget for a video of the given
// duration: roughly one per two minutes, capped at eight.
func MaxSelectable(duration float64) int {
	return int(math.Min(maxHighlights, math.Floor(duration/highlightsPerBlock)))
}

// Select greedily picks the best non-overlapping highlights. Candidates are
// filtered by the confidence floor, walked best-first, accepted only when at
// least MinSpacing away from every prior acceptance, and capped by
// MaxSelectable. The result is re-sorted chronologically.
func Select(detections []Detection, duration float64) []Detection {
	budget := MaxSelectable(duration)
	if budget <= 0 {
		return nil
	}

	candidates := make([]Detection, 0, len(detections))
	for _, detection := range detections {
		if detection.Confidence >= ConfidenceFloor {
			candidates = append(candidates, detection)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	var selected []Detection
	for _, candidate := range candidates {
		if len(selected) >= budget {
			break
		}
		tooClose := false
		for _, accepted := range selected {
			if math.Abs(accepted.Timestamp-candidate.Timestamp) < MinSpacing {
				tooClose = true
				break
			}
		}
		if !tooClose {
			selected = append(selected, candidate)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Timestamp < selected[j].Timestamp
	})
	return selected
}
