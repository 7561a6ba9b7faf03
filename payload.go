// Package nodefs contains core domain types and interfaces for building
// in-memory trees of named binary resources.
package nodefs

import "io"

// Payload is the binary content a tree node may own. Instances are 1:1 with
// their owning node, which releases them exactly once when it is disposed.
type Payload interface {
	io.ReaderAt

	// Returns the size of the window in bytes
	Len() int64

	// Opens a reader over the whole window. The underlying source stays
	// acquired until the returned reader is closed.
	Open() (io.ReadCloser, error)

	// Slice creates a derived window of length bytes starting at offset,
	// relative to this window. Fails when the range is outside the window.
	Slice(offset, length int64) (Payload, error)

	// Releases the payload. Calling Close more than once is a no-op.
	Close() error
}

// PayloadProvider is a factory for concrete [Payload] implementations
// generated from a request's raw source config.
// Implementations should handle resource sharing (open files etc) for their payloads
type PayloadProvider interface {
	Payload(config []byte) (Payload, error)
}

// FileSource pairs a provider with the raw config it should build a payload from
type FileSource struct {
	Provider PayloadProvider
	Config   []byte
}

// Payload builds the payload described by the source
func (s FileSource) Payload() (Payload, error) {
	return s.Provider.Payload(s.Config)
}
