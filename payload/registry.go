package payload

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/brettbedarf/nodefs"
)

// Registry ties a source "type" key to the provider building its payloads
type Registry struct {
	mu        sync.RWMutex
	providers map[string]nodefs.PayloadProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]nodefs.PayloadProvider)}
}

// Register adds a provider for sourceType. The first registration wins.
func (r *Registry) Register(sourceType string, provider nodefs.PayloadProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[sourceType]; exists {
		return
	}
	r.providers[sourceType] = provider
}

// GetProvider returns the provider registered for sourceType
func (r *Registry) GetProvider(sourceType string) (nodefs.PayloadProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[sourceType]
	if !ok {
		return nil, fmt.Errorf("no payload provider for %q", sourceType)
	}
	return p, nil
}

// SourceType extracts the "type" field of a raw source config
func SourceType(raw []byte) (string, error) {
	var meta struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return "", err
	}
	if meta.Type == "" {
		return "", fmt.Errorf("source config has no type field")
	}
	return meta.Type, nil
}

// FileSource resolves the provider for raw and pairs them without building
// the payload yet
func (r *Registry) FileSource(raw []byte) (*nodefs.FileSource, error) {
	t, err := SourceType(raw)
	if err != nil {
		return nil, err
	}
	p, err := r.GetProvider(t)
	if err != nil {
		return nil, err
	}
	return &nodefs.FileSource{Provider: p, Config: raw}, nil
}

// NewPayload picks the provider based on the "type" field and builds the payload
func (r *Registry) NewPayload(raw []byte) (nodefs.Payload, error) {
	src, err := r.FileSource(raw)
	if err != nil {
		return nil, err
	}
	return src.Payload()
}
