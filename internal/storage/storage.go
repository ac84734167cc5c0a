// Package storage persists downloaded source videos and rendered exports on
// the local filesystem and hands out URLs the rest of the pipeline can use.
package storage

import (
	"io"
)

// FileInfo describes a file being written into storage.
type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Store abstracts where media files live. The pipeline only ever writes a
// stream and reads back a URL, so swapping in an object store later stays a
// local change.
type Store interface {
	// Save writes the stream and returns the stored object's key.
	Save(r io.Reader, info FileInfo) (string, error)
	// Open returns a reader for a previously stored object.
	Open(key string) (io.ReadSeekCloser, error)
	// Delete removes a stored object.
	Delete(key string) error
	// URL returns an addressable URL for a stored object.
	URL(key string) string
	// Size returns the stored object's size in bytes.
	Size(key string) (int64, error)
}

// FileImporter is implemented by stores that can ingest a local file directly,
// typically with stronger integrity guarantees than a streamed Save.
type FileImporter interface {
	ImportFile(path string, info FileInfo) (string, error)
}
