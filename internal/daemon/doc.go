// Package daemon coordinates the long-running ClipForge process.
//
// It wires configuration, queue storage, the workflow manager, and the HTTP
// API into a single lifecycle with flock-based locking to prevent multiple
// instances. The daemon exposes queue maintenance helpers, enqueues new
// sources and export jobs, and emits queue health summaries.
//
// Keep orchestration logic here: individual workflow stages should live in
// their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
