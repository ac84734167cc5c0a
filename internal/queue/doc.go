// Package queue persists clips, detections, captions, and export jobs in
// SQLite and exposes helpers for driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, stale-item recovery, and guarded status
// transitions. Clips and exports share the same four-state lifecycle
// (pending, processing, completed, failed); completed and failed are
// terminal and only an explicit retry moves a failed record back to pending.
//
// The database is the single source of truth for pipeline state. Schema
// changes bump the version in schema.go; users clear the database to adopt
// the new schema.
package queue
