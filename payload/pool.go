package payload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/brettbedarf/nodefs/internal/util"
	"github.com/puzpuzpuz/xsync/v4"
)

// Pool shares one open [Source] per file path between all windows over it.
// A pooled source is dropped from the pool when its last window closes.
type Pool struct {
	sources *xsync.Map[string, *Source] // cleaned path -> open source
	mu      sync.Mutex                  // serializes opening
	open    func(path string) (*Source, error)
}

func NewPool() *Pool {
	return &Pool{
		sources: xsync.NewMap[string, *Source](),
		open:    openFileSource,
	}
}

func openFileSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return NewSource(f, st.Size(), f), nil
}

// Stream returns a window over the file at path, opening the file on first
// use. A negative length extends the window to the end of the file.
func (p *Pool) Stream(path string, offset, length int64) (*Stream, error) {
	logger := util.GetLogger("Pool.Stream")
	key := filepath.Clean(path)

	p.mu.Lock()
	defer p.mu.Unlock()

	if src, ok := p.sources.Load(key); ok {
		st, err := NewStream(src, offset, windowLength(src, offset, length))
		if !errors.Is(err, ErrClosed) {
			return st, err
		}
		// released between Load and acquire; reopen below
	}

	src, err := p.open(key)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", key, err)
	}
	st, err := NewStream(src, offset, windowLength(src, offset, length))
	if err != nil {
		if src.closer != nil {
			src.closer.Close()
		}
		return nil, err
	}
	src.key = key
	src.onRelease = p.forget
	p.sources.Store(key, src)
	logger.Debug().Str("path", key).Int64("size", src.size).Msg("Opened pooled source")
	return st, nil
}

func windowLength(src *Source, offset, length int64) int64 {
	if length < 0 {
		return src.size - offset
	}
	return length
}

func (p *Pool) forget(src *Source) {
	if cur, ok := p.sources.Load(src.key); ok && cur == src {
		p.sources.Delete(src.key)
	}
}

// Len returns the number of open pooled sources
func (p *Pool) Len() int {
	return p.sources.Size()
}
