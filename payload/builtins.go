package payload

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brettbedarf/nodefs"
)

// Built-in source types
const (
	FileSourceType   = "file"
	InlineSourceType = "inline"
	HTTPSourceType   = "http"
)

// RegisterBuiltins registers the file provider (backed by pool), the
// inline provider and the http provider using [http.DefaultClient]
func RegisterBuiltins(r *Registry, pool *Pool) {
	r.Register(FileSourceType, &FileProvider{Pool: pool})
	r.Register(InlineSourceType, &InlineProvider{})
	r.Register(HTTPSourceType, &HTTPProvider{Client: http.DefaultClient})
}

// FileSourceConfig describes a window over a file on disk
type FileSourceConfig struct {
	Path   string `json:"path"`
	Offset int64  `json:"offset,omitempty"`
	Length *int64 `json:"length,omitempty"` // Default is the rest of the file
}

// FileProvider builds windows over files shared through a [Pool]
type FileProvider struct {
	Pool *Pool
}

func (p *FileProvider) Payload(config []byte) (nodefs.Payload, error) {
	var cfg FileSourceConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("file source requires a path")
	}
	length := int64(-1)
	if cfg.Length != nil {
		length = *cfg.Length
	}
	st, err := p.Pool.Stream(cfg.Path, cfg.Offset, length)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Inline data encodings
const (
	TextEncoding   = "text"
	Base64Encoding = "base64"
	HexEncoding    = "hex"
)

// InlineSourceConfig embeds the payload bytes in the definition itself
type InlineSourceConfig struct {
	Data     string `json:"data"`
	Encoding string `json:"encoding,omitempty"` // Default is text
}

// InlineProvider builds in-memory payloads from embedded data
type InlineProvider struct{}

func (p *InlineProvider) Payload(config []byte) (nodefs.Payload, error) {
	var cfg InlineSourceConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, err
	}
	var data []byte
	var err error
	switch cfg.Encoding {
	case "", TextEncoding:
		data = []byte(cfg.Data)
	case Base64Encoding:
		data, err = base64.StdEncoding.DecodeString(cfg.Data)
	case HexEncoding:
		data, err = hex.DecodeString(cfg.Data)
	default:
		return nil, fmt.Errorf("unknown inline encoding %q", cfg.Encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("decode inline %s data: %w", cfg.Encoding, err)
	}
	return NewMemoryStream(data), nil
}
