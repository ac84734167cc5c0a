// Package ingest resolves a queued clip's source into playable media.
//
// Twitch clip and VOD URLs are resolved through the Helix API into direct
// mp4 and thumbnail URLs. Uploads and direct media URLs are copied into the
// local media store. Every successfully ingested clip leaves the stage with
// a video URL and a positive duration; later stages rely on both.
package ingest
