// Package apiclient ships the HTTP client for the daemon API used by the CLI.
//
// It owns request construction, bearer authentication, and decoding of the
// wire DTOs defined in internal/api. Calls carry short timeouts so CLI
// commands fail fast when the daemon is offline.
//
// Reuse these methods when adding new API endpoints to keep the protocol
// stable and compatible with existing command implementations.
package apiclient
