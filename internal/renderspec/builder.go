package renderspec

import (
	"math"

	"clipforge/internal/highlights"
	"clipforge/internal/queue"
	"clipforge/internal/services"
)

const (
	highlightConfidence = 0.7
	maxHighlightSegs    = 5
	segmentLeadIn       = 2.0
	segmentLength       = 5.0
	fallbackTrimCap     = 30.0

	overlayOpacity  = 0.2
	overlayPosition = "topRight"

	maxCaptionSegs  = 20
	captionPosition = "bottom"
)

// Options are the user-chosen processing toggles for an export. AddOverlay is
// a tri-state: absent means on, so style packs keep their overlay unless the
// caller explicitly disables it.
type Options struct {
	AddCaptions bool  `json:"add_captions"`
	Reframe     bool  `json:"reframe"`
	AddOverlay  *bool `json:"add_overlay"`
}

// OverlayEnabled reports whether the overlay track should be added.
func (o Options) OverlayEnabled() bool {
	return o.AddOverlay == nil || *o.AddOverlay
}

// Settings are encode parameters for the output.
type Settings struct {
	Resolution string `json:"resolution"`
	FPS        int    `json:"fps"`
}

// Build assembles the render spec for a clip.
//
// With high-confidence detections the base track concatenates short windows
// around each detection, faded into one another, in timestamp order. Without
// them it falls back to a single leading trim. Style overlay and caption
// tracks float above the base track.
func Build(clip *queue.Clip, pack StylePack, detections []highlights.Detection, captions []queue.Caption, opts Options, settings Settings) (*Spec, error) {
	if clip == nil {
		return nil, services.Wrap(services.ErrValidation, "export", "build-spec", "clip is required", nil)
	}
	if clip.VideoURL == "" {
		return nil, services.Wrap(services.ErrValidation, "export", "build-spec", "clip has no video url", nil)
	}

	duration := clip.Duration
	if duration <= 0 {
		duration = fallbackTrimCap
	}

	base := highlightSegments(clip.VideoURL, duration, detections)
	if len(base) == 0 {
		base = []Segment{{
			Asset:  Asset{Type: "video", Src: clip.VideoURL, Trim: 0},
			Start:  0,
			Length: math.Min(duration, fallbackTrimCap),
		}}
	}

	tracks := []Track{{Clips: base}}

	if pack.OverlayImage != "" && opts.OverlayEnabled() {
		tracks = append(tracks, Track{Clips: []Segment{{
			Asset:    Asset{Type: "image", Src: pack.OverlayImage},
			Start:    0,
			Length:   totalLength(base),
			Opacity:  overlayOpacity,
			Position: overlayPosition,
		}}})
	}

	if opts.AddCaptions && len(captions) > 0 {
		if captionTrack := captionSegments(captions, pack.TitleStyle); len(captionTrack) > 0 {
			tracks = append(tracks, Track{Clips: captionTrack})
		}
	}

	aspectRatio := "16:9"
	if opts.Reframe {
		aspectRatio = "9:16"
	}

	resolution := settings.Resolution
	if resolution == "" {
		resolution = "hd"
	}
	fps := settings.FPS
	if fps <= 0 {
		fps = 30
	}

	return &Spec{
		Timeline: Timeline{Tracks: tracks},
		Output: Output{
			Format:      "mp4",
			Resolution:  resolution,
			FPS:         fps,
			AspectRatio: aspectRatio,
		},
	}, nil
}

// BuildForFormat assembles a platform-targeted vertical spec. The duration
// check must already have passed via ValidateClipDuration.
func BuildForFormat(clip *queue.Clip, format Format, pack StylePack, detections []highlights.Detection, captions []queue.Caption, opts Options, settings Settings) (*Spec, error) {
	spec, err := Build(clip, pack, detections, captions, opts, settings)
	if err != nil {
		return nil, err
	}
	spec.Output.AspectRatio = format.AspectRatio
	return spec, nil
}

// highlightSegments cuts a window around each qualifying detection. Segment
// starts are cumulative so the base track stays contiguous.
func highlightSegments(videoURL string, duration float64, detections []highlights.Detection) []Segment {
	var segments []Segment
	var cursor float64
	for _, detection := range detections {
		if detection.Confidence <= highlightConfidence {
			continue
		}
		if len(segments) >= maxHighlightSegs {
			break
		}

		trim := math.Max(0, detection.Timestamp-segmentLeadIn)
		if trim+segmentLength > duration {
			continue
		}

		segments = append(segments, Segment{
			Asset:      Asset{Type: "video", Src: videoURL, Trim: trim},
			Start:      cursor,
			Length:     segmentLength,
			Transition: &Transition{In: "fade", Out: "fade"},
		})
		cursor += segmentLength
	}
	return segments
}

func captionSegments(captions []queue.Caption, titleStyle string) []Segment {
	if titleStyle == "" {
		titleStyle = "blockbuster"
	}
	limit := len(captions)
	if limit > maxCaptionSegs {
		limit = maxCaptionSegs
	}

	segments := make([]Segment, 0, limit)
	for _, caption := range captions[:limit] {
		length := caption.End - caption.Start
		if length <= 0 {
			length = 0.5
		}
		segments = append(segments, Segment{
			Asset:    Asset{Type: "title", Text: caption.Text, Style: titleStyle},
			Start:    caption.Start,
			Length:   length,
			Position: captionPosition,
		})
	}
	return segments
}

func totalLength(segments []Segment) float64 {
	var total float64
	for _, segment := range segments {
		total += segment.Length
	}
	return total
}
