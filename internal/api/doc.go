// Package api defines wire-format types and converters for the HTTP API
// layer. It translates internal queue models into transport-friendly DTOs
// that the CLI and other consumers can render without coupling to internal
// types.
//
// # Key Types
//
// ClipItem: transport representation of a tracked clip with progress,
// detection counts, and derived-clip lineage.
//
// ExportItem: transport representation of a vertical export job.
//
// WorkflowStatus: daemon running state, queue stats, and stage health.
//
// DaemonStatus: aggregated runtime information for status commands.
//
// # Converters
//
// FromClip / FromExport: queue records -> DTOs with RFC3339 timestamps.
//
// FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
//
// StageHealthSlice: deterministic ordering of stage health map.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (queue.Status, queue.SourceType) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds. Detection metadata is passed
// through as json.RawMessage to avoid double-encoding.
package api
