// Package detect runs the highlight analysis stage over ingested clips.
//
// The stage assembles the detector pipeline from configuration, persists
// the merged detections and the transcript captions, and optionally enqueues
// derived clips for the strongest highlights. The detection math itself
// lives in the highlights package; this package supplies the glue between
// the queue, the transcription provider, and that pipeline.
package detect
