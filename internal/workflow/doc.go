// Package workflow advances queued work through the configured processing
// stages.
//
// The Manager runs two independent lanes. The clip lane claims pending clips
// and carries them through ingest and detect; the export lane claims pending
// export jobs and renders them. Each lane polls its table, reclaims stale
// work via heartbeats, and records progress and failure metadata on the
// claimed record. Lanes run concurrently, so a long render never blocks clip
// analysis.
//
// Add new lifecycle stages by extending StageSet and the lane that should
// run them; this package is the authoritative home for that coordination
// logic.
package workflow
