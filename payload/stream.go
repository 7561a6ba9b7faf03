package payload

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/brettbedarf/nodefs"
)

// Stream is a window [offset, offset+length) over a [Source].
// Each stream holds one source reference until it is closed.
type Stream struct {
	src    *Source
	offset int64
	length int64
	closed atomic.Bool
}

// NewStream creates a window over src. The range must lie within the source.
func NewStream(src *Source, offset, length int64) (*Stream, error) {
	if err := checkRange(offset, length, src.size); err != nil {
		return nil, err
	}
	if err := src.acquire(); err != nil {
		return nil, err
	}
	return &Stream{src: src, offset: offset, length: length}, nil
}

// NewMemoryStream creates a stream owning a copy-free view of data
func NewMemoryStream(data []byte) *Stream {
	s, _ := NewStream(NewMemorySource(data), 0, int64(len(data)))
	return s
}

func checkRange(offset, length, size int64) error {
	if offset < 0 || offset > size {
		return fmt.Errorf("%w: offset %d outside [0, %d]", ErrRange, offset, size)
	}
	if length < 0 || length > size-offset {
		return fmt.Errorf("%w: length %d at offset %d exceeds %d", ErrRange, length, offset, size)
	}
	return nil
}

func (s *Stream) Len() int64 {
	return s.length
}

// Offset returns the window start within the source
func (s *Stream) Offset() int64 {
	return s.offset
}

func (s *Stream) Source() *Source {
	return s.src
}

// ReadAt reads relative to the window start. Reads past the window end
// return io.EOF like io.SectionReader.
func (s *Stream) ReadAt(p []byte, off int64) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrRange, off)
	}
	return io.NewSectionReader(s.src.r, s.offset, s.length).ReadAt(p, off)
}

// Open returns a reader over the window holding its own source reference
func (s *Stream) Open() (io.ReadCloser, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := s.src.acquire(); err != nil {
		return nil, err
	}
	return &reader{
		SectionReader: io.NewSectionReader(s.src.r, s.offset, s.length),
		src:           s.src,
	}, nil
}

// Slice creates a sub-window relative to this window
func (s *Stream) Slice(offset, length int64) (nodefs.Payload, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := checkRange(offset, length, s.length); err != nil {
		return nil, err
	}
	sub, err := NewStream(s.src, s.offset+offset, length)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Bytes reads the whole window
func (s *Stream) Bytes() ([]byte, error) {
	buf := make([]byte, s.length)
	n, err := s.ReadAt(buf, 0)
	if err == io.EOF && int64(n) == s.length {
		err = nil
	}
	return buf[:n], err
}

// Close releases the source reference. Only the first call has an effect.
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.src.release()
}

var _ nodefs.Payload = (*Stream)(nil)

type reader struct {
	*io.SectionReader
	src    *Source
	closed atomic.Bool
}

func (r *reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.src.release()
}
