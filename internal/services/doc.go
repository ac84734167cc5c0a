// Package services defines shared utilities consumed by the pipeline stage
// handlers and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp clip IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (validation vs timeout vs remote error) uniform across
//     detectors, the render pipeline, and the HTTP API.
//
// The provider clients (transcribe, renderapi, twitch) live in subpackages.
package services
