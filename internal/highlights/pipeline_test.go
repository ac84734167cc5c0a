package highlights_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"clipforge/internal/highlights"
	"clipforge/internal/services"
	"clipforge/internal/services/transcribe"
)

type staticDetector struct {
	name       string
	detections []highlights.Detection
	err        error
}

func (d staticDetector) Name() string { return d.name }

func (d staticDetector) Detect(ctx context.Context, source highlights.Source) ([]highlights.Detection, error) {
	return d.detections, d.err
}

func TestAnalyzeValorantScenario(t *testing.T) {
	// 600s valorant video with three transcript segments; the two late
	// segments sit one second apart and must merge into one corroborated
	// event that the selector keeps alongside the opening kill.
	transcript := highlights.NewTranscriptDetector(stubTranscriber{segments: []transcribe.Segment{
		{Start: 0, End: 2, Text: "nice ace"},
		{Start: 300, End: 303, Text: "round won"},
		{Start: 301, End: 304, Text: "clutch 1v1"},
	}})
	analyzer := highlights.NewAnalyzer([]highlights.Detector{transcript}, nil, nil)

	merged, err := analyzer.Analyze(context.Background(), valorantSource(600))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("merged = %d events, want 2", len(merged))
	}

	kill := merged[0]
	if kill.Category != highlights.CategoryKill || kill.Timestamp != 0 || kill.Confidence != 0.85 {
		t.Fatalf("first event = %+v", kill)
	}

	corroborated := merged[1]
	if corroborated.Category != highlights.CategoryHighlight || corroborated.Timestamp != 300 {
		t.Fatalf("second event = %+v", corroborated)
	}
	if math.Abs(corroborated.Confidence-0.98) > 1e-9 {
		t.Fatalf("corroborated confidence = %v, want 0.98", corroborated.Confidence)
	}
	if len(corroborated.Metadata.Signals) != 2 {
		t.Fatalf("signals = %v", corroborated.Metadata.Signals)
	}

	selected := highlights.Select(merged, 600)
	if len(selected) != 2 {
		t.Fatalf("selected = %d, want both events (>45s apart)", len(selected))
	}
}

func TestAnalyzeSwallowsDetectorFailures(t *testing.T) {
	failing := staticDetector{name: "transcript", err: errors.New("provider down")}
	working := staticDetector{name: "motion", detections: []highlights.Detection{
		detection(highlights.CategoryHighlight, 50, 0.8, "motion"),
	}}
	analyzer := highlights.NewAnalyzer([]highlights.Detector{failing, working}, nil, nil)

	merged, err := analyzer.Analyze(context.Background(), valorantSource(300))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(merged) != 1 || merged[0].Metadata.Source != "motion" {
		t.Fatalf("merged = %+v, want only the working detector's output", merged)
	}
}

func TestAnalyzeFallbackOnlyWhenEmpty(t *testing.T) {
	sampler := highlights.NewRandomSampler(1)
	fallback := highlights.NewFallbackDetector(sampler)
	real := staticDetector{name: "transcript", detections: []highlights.Detection{
		detection(highlights.CategoryKill, 10, 0.85, "transcript"),
	}}

	analyzer := highlights.NewAnalyzer([]highlights.Detector{real}, fallback, nil)
	merged, err := analyzer.Analyze(context.Background(), valorantSource(600))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, d := range merged {
		if d.Metadata.Source == "fallback" {
			t.Fatalf("fallback ran despite real detections: %+v", merged)
		}
	}

	// With only failing detectors the fallback becomes the sole source.
	failing := staticDetector{name: "transcript", err: errors.New("down")}
	analyzer = highlights.NewAnalyzer([]highlights.Detector{failing}, fallback, nil)
	merged, err = analyzer.Analyze(context.Background(), valorantSource(600))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(merged) == 0 {
		t.Fatal("fallback should produce events")
	}
	for _, d := range merged {
		if d.Metadata.Source != "fallback" {
			t.Fatalf("unexpected source %q", d.Metadata.Source)
		}
	}
}

func TestAnalyzeRejectsNonPositiveDuration(t *testing.T) {
	analyzer := highlights.NewAnalyzer(nil, nil, nil)
	_, err := analyzer.Analyze(context.Background(), highlights.Source{Duration: 0})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestFallbackDetectorSpread(t *testing.T) {
	sampler := highlights.NewRandomSampler(42)
	fallback := highlights.NewFallbackDetector(sampler)

	detections, err := fallback.Detect(context.Background(), valorantSource(600))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(detections) != 12 {
		t.Fatalf("events = %d, want min(floor(600/15), 12) = 12", len(detections))
	}
	for i, d := range detections {
		if d.Timestamp < 10 || d.Timestamp > 590 {
			t.Fatalf("event %d at %v outside [10, 590]", i, d.Timestamp)
		}
		if d.Confidence < 0.65 || d.Confidence > 0.90 {
			t.Fatalf("event %d confidence %v outside [0.65, 0.90]", i, d.Confidence)
		}
		switch d.Category {
		case highlights.CategoryKill, highlights.CategoryHighlight, highlights.CategoryClutch:
		default:
			t.Fatalf("event %d category %q", i, d.Category)
		}
		if i > 0 && d.Timestamp <= detections[i-1].Timestamp {
			t.Fatalf("events not strictly increasing: %v then %v", detections[i-1].Timestamp, d.Timestamp)
		}
	}
}

func TestFallbackDetectorShortVideo(t *testing.T) {
	fallback := highlights.NewFallbackDetector(highlights.NewRandomSampler(1))
	detections, err := fallback.Detect(context.Background(), valorantSource(10))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(detections) != 0 {
		t.Fatalf("events = %d, want 0 for a 10s video", len(detections))
	}
}

func TestHeuristicDetectorConfidenceBand(t *testing.T) {
	sampler := highlights.NewRandomSampler(7)
	amplitude := highlights.NewAmplitudeDetector(sampler, 3)

	detections, err := amplitude.Detect(context.Background(), valorantSource(300))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for _, d := range detections {
		if d.Category != highlights.CategoryHype {
			t.Fatalf("amplitude category = %q", d.Category)
		}
		if d.Confidence < 0.6 || d.Confidence > 0.85 {
			t.Fatalf("confidence %v outside [0.6, 0.85]", d.Confidence)
		}
		if d.Timestamp < 0 || d.Timestamp >= 300 {
			t.Fatalf("timestamp %v outside video", d.Timestamp)
		}
	}

	motion := highlights.NewMotionDetector(highlights.NewRandomSampler(7), 3)
	motionDetections, err := motion.Detect(context.Background(), valorantSource(300))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for _, d := range motionDetections {
		if d.Category != highlights.CategoryHighlight {
			t.Fatalf("motion category = %q", d.Category)
		}
	}
}
