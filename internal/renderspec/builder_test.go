package renderspec_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"clipforge/internal/highlights"
	"clipforge/internal/queue"
	"clipforge/internal/renderspec"
	"clipforge/internal/services"
)

func testClip(duration float64) *queue.Clip {
	return &queue.Clip{
		ID:       "clip-1",
		Title:    "Ranked Grind",
		VideoURL: "https://cdn.example.com/clip.mp4",
		Duration: duration,
	}
}

func det(ts, conf float64) highlights.Detection {
	return highlights.Detection{
		Category:   highlights.CategoryKill,
		Timestamp:  ts,
		Confidence: conf,
		Metadata:   highlights.Metadata{Source: "transcript"},
	}
}

func mustResolveStyle(t *testing.T, key string) renderspec.StylePack {
	t.Helper()
	pack, err := renderspec.ResolveStylePack(key)
	if err != nil {
		t.Fatalf("ResolveStylePack(%q): %v", key, err)
	}
	return pack
}

func TestBuildHighlightTimeline(t *testing.T) {
	detections := []highlights.Detection{
		det(10, 0.9),
		det(60, 0.8),
		det(120, 0.5), // below the 0.7 bar, skipped
		det(200, 0.95),
	}
	spec, err := renderspec.Build(testClip(300), mustResolveStyle(t, "clean"), detections, nil, renderspec.Options{}, renderspec.Settings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	base := spec.Timeline.Tracks[0].Clips
	if len(base) != 3 {
		t.Fatalf("base segments = %d, want 3", len(base))
	}

	// Segment starts are contiguous: each starts where the previous ends.
	var cursor float64
	for i, segment := range base {
		if segment.Start != cursor {
			t.Fatalf("segment %d starts at %v, want %v", i, segment.Start, cursor)
		}
		cursor += segment.Length
		if segment.Transition == nil || segment.Transition.In != "fade" || segment.Transition.Out != "fade" {
			t.Fatalf("segment %d missing fade transitions", i)
		}
	}

	// Trims shift the lead-in ahead of each detection.
	if base[0].Asset.Trim != 8 || base[1].Asset.Trim != 58 || base[2].Asset.Trim != 198 {
		t.Fatalf("trims = %v, %v, %v", base[0].Asset.Trim, base[1].Asset.Trim, base[2].Asset.Trim)
	}

	if spec.Output.AspectRatio != "16:9" {
		t.Fatalf("aspect = %q, want 16:9 without reframe", spec.Output.AspectRatio)
	}
	if spec.Output.Resolution != "hd" || spec.Output.FPS != 30 {
		t.Fatalf("output defaults = %+v", spec.Output)
	}
}

func TestBuildCapsHighlightSegments(t *testing.T) {
	var detections []highlights.Detection
	for i := 0; i < 10; i++ {
		detections = append(detections, det(float64(10+i*30), 0.9))
	}
	spec, err := renderspec.Build(testClip(600), mustResolveStyle(t, "clean"), detections, nil, renderspec.Options{}, renderspec.Settings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := len(spec.Timeline.Tracks[0].Clips); got != 5 {
		t.Fatalf("base segments = %d, want capped at 5", got)
	}
}

func TestBuildFallbackTrim(t *testing.T) {
	spec, err := renderspec.Build(testClip(90), mustResolveStyle(t, "clean"), nil, nil, renderspec.Options{}, renderspec.Settings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	base := spec.Timeline.Tracks[0].Clips
	if len(base) != 1 {
		t.Fatalf("base segments = %d, want 1", len(base))
	}
	if base[0].Length != 30 || base[0].Start != 0 || base[0].Asset.Trim != 0 {
		t.Fatalf("fallback segment = %+v, want first 30s", base[0])
	}

	short, err := renderspec.Build(testClip(12), mustResolveStyle(t, "clean"), nil, nil, renderspec.Options{}, renderspec.Settings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if short.Timeline.Tracks[0].Clips[0].Length != 12 {
		t.Fatalf("short clip trim = %v, want full 12s", short.Timeline.Tracks[0].Clips[0].Length)
	}
}

func TestBuildOverlayTrack(t *testing.T) {
	pack := mustResolveStyle(t, "esports")
	spec, err := renderspec.Build(testClip(60), pack, nil, nil, renderspec.Options{}, renderspec.Settings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(spec.Timeline.Tracks) != 2 {
		t.Fatalf("tracks = %d, want base + overlay", len(spec.Timeline.Tracks))
	}
	overlay := spec.Timeline.Tracks[1].Clips[0]
	if overlay.Asset.Type != "image" || overlay.Asset.Src != pack.OverlayImage {
		t.Fatalf("overlay asset = %+v", overlay.Asset)
	}
	if overlay.Opacity != 0.2 || overlay.Position != "topRight" {
		t.Fatalf("overlay placement = %+v", overlay)
	}
	if overlay.Length != 30 {
		t.Fatalf("overlay length = %v, want base track length", overlay.Length)
	}

	// An explicit add_overlay=false suppresses the track even when the pack
	// carries an image.
	off := false
	spec, err = renderspec.Build(testClip(60), pack, nil, nil, renderspec.Options{AddOverlay: &off}, renderspec.Settings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(spec.Timeline.Tracks) != 1 {
		t.Fatalf("tracks = %d, want base only", len(spec.Timeline.Tracks))
	}
}

func TestBuildOverlayDefaultsOn(t *testing.T) {
	pack := mustResolveStyle(t, "neon")
	var opts renderspec.Options
	if err := json.Unmarshal([]byte(`{"reframe":true}`), &opts); err != nil {
		t.Fatalf("decode options: %v", err)
	}
	spec, err := renderspec.Build(testClip(60), pack, nil, nil, opts, renderspec.Settings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(spec.Timeline.Tracks) != 2 {
		t.Fatalf("tracks = %d, want base + overlay when options omit add_overlay", len(spec.Timeline.Tracks))
	}

	// The clean pack has no overlay image, so nothing is added regardless.
	spec, err = renderspec.Build(testClip(60), mustResolveStyle(t, "clean"), nil, nil, opts, renderspec.Settings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(spec.Timeline.Tracks) != 1 {
		t.Fatalf("tracks = %d, want base only for packs without an overlay image", len(spec.Timeline.Tracks))
	}
}

func TestBuildCaptionTrack(t *testing.T) {
	var captions []queue.Caption
	for i := 0; i < 30; i++ {
		captions = append(captions, queue.Caption{
			Start: float64(i),
			End:   float64(i) + 0.8,
			Text:  "word",
		})
	}
	spec, err := renderspec.Build(testClip(60), mustResolveStyle(t, "clean"), nil, captions, renderspec.Options{AddCaptions: true}, renderspec.Settings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(spec.Timeline.Tracks) != 2 {
		t.Fatalf("tracks = %d, want base + captions", len(spec.Timeline.Tracks))
	}
	captionTrack := spec.Timeline.Tracks[1].Clips
	if len(captionTrack) != 20 {
		t.Fatalf("caption segments = %d, want capped at 20", len(captionTrack))
	}
	first := captionTrack[0]
	if first.Asset.Type != "title" || first.Position != "bottom" {
		t.Fatalf("caption segment = %+v", first)
	}
}

func TestBuildReframeAspect(t *testing.T) {
	spec, err := renderspec.Build(testClip(60), mustResolveStyle(t, "clean"), nil, nil, renderspec.Options{Reframe: true}, renderspec.Settings{Resolution: "1080", FPS: 60})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if spec.Output.AspectRatio != "9:16" {
		t.Fatalf("aspect = %q", spec.Output.AspectRatio)
	}
	if spec.Output.Resolution != "1080" || spec.Output.FPS != 60 {
		t.Fatalf("output = %+v", spec.Output)
	}
}

func TestBuildRequiresVideoURL(t *testing.T) {
	clip := testClip(60)
	clip.VideoURL = ""
	_, err := renderspec.Build(clip, mustResolveStyle(t, "clean"), nil, nil, renderspec.Options{}, renderspec.Settings{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestSpecJSONShape(t *testing.T) {
	spec, err := renderspec.Build(testClip(60), mustResolveStyle(t, "clean"), []highlights.Detection{det(10, 0.9)}, nil, renderspec.Options{}, renderspec.Settings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)
	for _, want := range []string{`"timeline"`, `"tracks"`, `"clips"`, `"asset"`, `"trim"`, `"aspectRatio"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("spec JSON missing %s: %s", want, body)
		}
	}
}

func TestFormatValidation(t *testing.T) {
	shorts, err := renderspec.ResolveFormat("shorts")
	if err != nil {
		t.Fatalf("ResolveFormat: %v", err)
	}
	if shorts.MaxDuration != 60 || shorts.AspectRatio != "9:16" || shorts.Width != 1080 || shorts.Height != 1920 {
		t.Fatalf("shorts = %+v", shorts)
	}

	// A 90s clip cannot be exported as a short; the check fires before any
	// record is created.
	err = renderspec.ValidateClipDuration(shorts, 90)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if !strings.Contains(err.Error(), "YouTube Shorts") {
		t.Fatalf("error should name the format: %v", err)
	}

	if err := renderspec.ValidateClipDuration(shorts, 59); err != nil {
		t.Fatalf("59s clip should pass: %v", err)
	}

	tiktok, _ := renderspec.ResolveFormat("TikTok")
	if tiktok.MaxDuration != 180 {
		t.Fatalf("tiktok = %+v", tiktok)
	}
	reels, _ := renderspec.ResolveFormat("reels")
	if reels.MaxDuration != 90 {
		t.Fatalf("reels = %+v", reels)
	}

	if _, err := renderspec.ResolveFormat("mystery"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("unknown format err = %v", err)
	}
}

func TestStylePackResolution(t *testing.T) {
	pack, err := renderspec.ResolveStylePack("")
	if err != nil {
		t.Fatalf("ResolveStylePack: %v", err)
	}
	if pack.Key != renderspec.DefaultStylePackKey {
		t.Fatalf("default pack = %+v", pack)
	}
	if _, err := renderspec.ResolveStylePack("vaporwave"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("unknown pack err = %v", err)
	}
}

func TestBuildForFormatForcesVerticalAspect(t *testing.T) {
	format, _ := renderspec.ResolveFormat("reels")
	spec, err := renderspec.BuildForFormat(testClip(60), format, mustResolveStyle(t, "clean"), nil, nil, renderspec.Options{}, renderspec.Settings{})
	if err != nil {
		t.Fatalf("BuildForFormat: %v", err)
	}
	if spec.Output.AspectRatio != "9:16" {
		t.Fatalf("aspect = %q, want 9:16", spec.Output.AspectRatio)
	}
}
