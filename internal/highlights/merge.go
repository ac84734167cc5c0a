package highlights

import (
	"math"
	"sort"
)

const (
	// MergeWindow is the radius in seconds within which two detections are
	// treated as the same real-world moment.
	MergeWindow = 5.0

	corroborationBonus = 0.10
	confidenceCeiling  = 0.98
)

// Merge coalesces raw detections from multiple detectors. Detections within
// MergeWindow of an already-merged event corroborate the strongest one:
// its confidence rises by a fixed bonus capped at the ceiling and the new
// detection's source is appended to its signal list. Category and timestamp
// are never rewritten by later corroboration; first established wins.
//
// The input is sorted by timestamp with stable tie-break, so the output is
// identical for any permutation of the same input multiset.
func Merge(detections []Detection) []Detection {
	if len(detections) == 0 {
		return nil
	}

	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	merged := make([]Detection, 0, len(sorted))
	for _, detection := range sorted {
		strongest := -1
		for i := range merged {
			if math.Abs(merged[i].Timestamp-detection.Timestamp) > MergeWindow {
				continue
			}
			if strongest == -1 || merged[i].Confidence > merged[strongest].Confidence {
				strongest = i
			}
		}

		if strongest == -1 {
			fresh := detection
			fresh.Metadata.Signals = append([]string{}, signalsOf(detection)...)
			merged = append(merged, fresh)
			continue
		}

		target := &merged[strongest]
		target.Confidence = math.Min(target.Confidence+corroborationBonus, confidenceCeiling)
		target.Metadata.Signals = append(target.Metadata.Signals, signalsOf(detection)...)
	}
	return merged
}

// signalsOf reports the corroborating signal identifiers a detection carries:
// its own signal list when it was already merged, otherwise its source.
func signalsOf(detection Detection) []string {
	if len(detection.Metadata.Signals) > 0 {
		return detection.Metadata.Signals
	}
	if detection.Metadata.Source != "" {
		return []string{detection.Metadata.Source}
	}
	return nil
}
