// Package main hosts the ClipForge CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into daemon
// API calls when a daemon is running, queue maintenance operations against
// the store otherwise, and configuration scaffolding. It centralizes
// configuration resolution and daemon discovery so subcommands can focus on
// user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
