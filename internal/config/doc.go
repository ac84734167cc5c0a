// Package config loads, normalizes, and validates the TOML configuration that
// drives the clipforge daemon and CLI.
//
// Configuration is read once at startup and passed explicitly into stages and
// detectors; nothing in the pipeline consults ambient global state.
package config
