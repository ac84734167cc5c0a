// Package renderspec builds declarative render timelines for the hosted
// render provider from a clip, its detections, a style pack, and processing
// options.
package renderspec

// Asset is the media behind a timeline segment: a video with a trim offset,
// an image, or a styled title. Field names follow the provider's wire format.
type Asset struct {
	Type  string  `json:"type"`
	Src   string  `json:"src,omitempty"`
	Trim  float64 `json:"trim,omitempty"`
	Text  string  `json:"text,omitempty"`
	Style string  `json:"style,omitempty"`
}

// Transition describes segment fade behavior.
type Transition struct {
	In  string `json:"in,omitempty"`
	Out string `json:"out,omitempty"`
}

// Segment is one placed asset on a track.
type Segment struct {
	Asset      Asset       `json:"asset"`
	Start      float64     `json:"start"`
	Length     float64     `json:"length"`
	Transition *Transition `json:"transition,omitempty"`
	Opacity    float64     `json:"opacity,omitempty"`
	Position   string      `json:"position,omitempty"`
}

// Track is an ordered list of segments. Segments in the base video track are
// contiguous; overlay and caption tracks float above it.
type Track struct {
	Clips []Segment `json:"clips"`
}

// Timeline is the ordered track stack, first track bottom-most.
type Timeline struct {
	Tracks []Track `json:"tracks"`
}

// Output carries the encode parameters.
type Output struct {
	Format      string `json:"format"`
	Resolution  string `json:"resolution"`
	FPS         int    `json:"fps"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// Spec is the full render request handed to the provider.
type Spec struct {
	Timeline Timeline `json:"timeline"`
	Output   Output   `json:"output"`
}
