package highlights_test

import (
	"math"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"clipforge/internal/highlights"
)

func detection(category highlights.Category, ts, conf float64, source string) highlights.Detection {
	return highlights.Detection{
		Category:   category,
		Timestamp:  ts,
		Confidence: conf,
		Metadata:   highlights.Metadata{Source: source},
	}
}

func TestMergeCorroboration(t *testing.T) {
	input := []highlights.Detection{
		detection(highlights.CategoryHighlight, 300, 0.95, "transcript"),
		detection(highlights.CategoryClutch, 301, 0.90, "transcript"),
	}

	merged := highlights.Merge(input)
	if len(merged) != 1 {
		t.Fatalf("merged = %d events, want 1", len(merged))
	}
	event := merged[0]
	if event.Category != highlights.CategoryHighlight {
		t.Fatalf("category = %s, first-established should win", event.Category)
	}
	if event.Timestamp != 300 {
		t.Fatalf("timestamp = %v, first-established should win", event.Timestamp)
	}
	if math.Abs(event.Confidence-0.98) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.95+0.10 capped at 0.98", event.Confidence)
	}
	if !reflect.DeepEqual(event.Metadata.Signals, []string{"transcript", "transcript"}) {
		t.Fatalf("signals = %v", event.Metadata.Signals)
	}
}

func TestMergeKeepsDistantEvents(t *testing.T) {
	input := []highlights.Detection{
		detection(highlights.CategoryKill, 0, 0.85, "transcript"),
		detection(highlights.CategoryHype, 100, 0.70, "amplitude"),
	}
	merged := highlights.Merge(input)
	if len(merged) != 2 {
		t.Fatalf("merged = %d events, want 2", len(merged))
	}
	if merged[0].Confidence != 0.85 || merged[1].Confidence != 0.70 {
		t.Fatalf("distant events should be unchanged: %+v", merged)
	}
}

func TestMergeSingleElementUnchanged(t *testing.T) {
	input := []highlights.Detection{detection(highlights.CategoryKill, 42, 0.85, "transcript")}
	merged := highlights.Merge(input)
	if len(merged) != 1 {
		t.Fatalf("merged = %d events, want 1", len(merged))
	}
	if merged[0].Timestamp != 42 || merged[0].Confidence != 0.85 {
		t.Fatalf("merged = %+v", merged[0])
	}
}

func TestMergeIdempotentOnMergedOutput(t *testing.T) {
	input := []highlights.Detection{
		detection(highlights.CategoryKill, 0, 0.85, "transcript"),
		detection(highlights.CategoryHype, 2, 0.70, "amplitude"),
		detection(highlights.CategoryClutch, 200, 0.90, "transcript"),
	}
	once := highlights.Merge(input)
	twice := highlights.Merge(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("re-merging far-apart merged events changed the result:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMergeOrderIndependence(t *testing.T) {
	base := []highlights.Detection{
		detection(highlights.CategoryKill, 0, 0.85, "transcript"),
		detection(highlights.CategoryHighlight, 300, 0.95, "transcript"),
		detection(highlights.CategoryClutch, 301, 0.90, "transcript"),
		detection(highlights.CategoryHype, 100, 0.70, "amplitude"),
		detection(highlights.CategoryHighlight, 103, 0.75, "motion"),
	}

	reference := canonical(highlights.Merge(base))

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 25; trial++ {
		shuffled := make([]highlights.Detection, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := canonical(highlights.Merge(shuffled))
		if len(got) != len(reference) {
			t.Fatalf("trial %d: %d events, want %d", trial, len(got), len(reference))
		}
		for i := range got {
			if got[i].Timestamp != reference[i].Timestamp ||
				got[i].Category != reference[i].Category ||
				math.Abs(got[i].Confidence-reference[i].Confidence) > 1e-9 {
				t.Fatalf("trial %d: event %d = %+v, want %+v", trial, i, got[i], reference[i])
			}
		}
	}
}

func canonical(detections []highlights.Detection) []highlights.Detection {
	out := make([]highlights.Detection, len(detections))
	copy(out, detections)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func TestMergeEmpty(t *testing.T) {
	if merged := highlights.Merge(nil); merged != nil {
		t.Fatalf("Merge(nil) = %+v", merged)
	}
}
