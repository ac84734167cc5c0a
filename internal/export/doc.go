// Package export runs the vertical export stage.
//
// Each export job pairs a completed clip with a platform format and a style
// pack. The stage builds the declarative render spec, submits it to the
// hosted render provider (or short-circuits in mock mode), and lands the
// finished file in the media store.
package export
