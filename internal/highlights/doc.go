// Package highlights implements the detection and selection engine: game
// profiles, signal detectors, the detection merger, and the greedy highlight
// selector.
//
// Detectors are independent and run concurrently; each sees only the source
// video's URL, duration, and resolved game profile. Their raw detections are
// coalesced by Merge and ranked by Select. The merge and select steps are
// pure functions, deterministic for a given input multiset.
package highlights
