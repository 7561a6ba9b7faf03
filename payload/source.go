// Package payload provides the byte windows tree nodes own: reference-counted
// sources, windows over them, a pool sharing open files between windows and
// a registry of providers building payloads from source configs.
package payload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

var (
	// ErrRange reports an offset/length outside the parent window
	ErrRange = errors.New("range error")
	// ErrClosed reports use of a released source or stream
	ErrClosed = errors.New("payload closed")
)

// Source is a reference-counted byte source shared by any number of windows.
// The underlying closer runs once the last reference is released.
type Source struct {
	r         io.ReaderAt
	size      int64
	closer    io.Closer
	refs      atomic.Int64
	closed    atomic.Bool
	mu        sync.Mutex // serializes the final release against acquire
	key       string     // pool key; empty when not pooled
	onRelease func(*Source)
}

// NewSource wraps r holding size bytes. closer may be nil.
// The source starts without references; windows acquire it.
func NewSource(r io.ReaderAt, size int64, closer io.Closer) *Source {
	return &Source{r: r, size: size, closer: closer}
}

// NewMemorySource wraps an in-memory buffer
func NewMemorySource(data []byte) *Source {
	return NewSource(bytes.NewReader(data), int64(len(data)), nil)
}

func (s *Source) Size() int64 {
	return s.size
}

// Refs returns the number of live references
func (s *Source) Refs() int64 {
	return s.refs.Load()
}

func (s *Source) IsClosed() bool {
	return s.closed.Load()
}

func (s *Source) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}
	s.refs.Add(1)
	return nil
}

func (s *Source) release() error {
	s.mu.Lock()
	if s.refs.Add(-1) > 0 {
		s.mu.Unlock()
		return nil
	}
	s.closed.Store(true)
	s.mu.Unlock()

	if s.onRelease != nil {
		s.onRelease(s)
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			return fmt.Errorf("close source: %w", err)
		}
	}
	return nil
}
