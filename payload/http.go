package payload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/brettbedarf/nodefs"
	"github.com/brettbedarf/nodefs/internal/util"
)

type HTTPMethod = string

const (
	HTTPMethodGet  HTTPMethod = "GET"
	HTTPMethodPost HTTPMethod = "POST"
)

// HTTPClient is the subset of [http.Client] used to fetch sources
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSourceConfig contains http-specific source fields. The window is
// requested with a Range header; servers ignoring it are sliced locally.
type HTTPSourceConfig struct {
	URL     string            `json:"url"`
	Method  *HTTPMethod       `json:"method,omitempty"` // Default is GET
	Headers map[string]string `json:"headers,omitempty"`
	Offset  int64             `json:"offset,omitempty"`
	Length  *int64            `json:"length,omitempty"` // Default is the rest of the body
}

// HTTPProvider downloads the source once into memory when the payload is built
type HTTPProvider struct {
	Client HTTPClient
}

func (p *HTTPProvider) Payload(config []byte) (nodefs.Payload, error) {
	var cfg HTTPSourceConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, err
	}
	u, err := validateURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	cfg.URL = u
	if cfg.Offset < 0 || (cfg.Length != nil && *cfg.Length < 0) {
		return nil, fmt.Errorf("%w: negative http window", ErrRange)
	}
	if cfg.Length != nil && *cfg.Length > math.MaxInt64-cfg.Offset {
		return nil, fmt.Errorf("%w: http window overflows", ErrRange)
	}
	return p.fetch(context.Background(), &cfg)
}

func (p *HTTPProvider) fetch(ctx context.Context, cfg *HTTPSourceConfig) (nodefs.Payload, error) {
	logger := util.GetLogger("Payload.HTTP")

	method := HTTPMethodGet
	if cfg.Method != nil {
		method = *cfg.Method
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	// Add custom headers
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	ranged := cfg.Offset > 0 || cfg.Length != nil
	if ranged {
		if cfg.Length != nil {
			if *cfg.Length == 0 {
				return NewMemoryStream(nil), nil
			}
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", cfg.Offset, cfg.Offset+*cfg.Length-1))
		} else {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-", cfg.Offset))
		}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("url", cfg.URL).Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("Fetched http source")

	switch {
	case resp.StatusCode == http.StatusPartialContent:
		if cfg.Length != nil {
			if int64(len(body)) < *cfg.Length {
				return nil, fmt.Errorf("%w: %s returned %d of %d bytes", ErrRange, cfg.URL, len(body), *cfg.Length)
			}
			body = body[:*cfg.Length]
		}
		return NewMemoryStream(body), nil
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		return nil, fmt.Errorf("%w: %s rejected range", ErrRange, cfg.URL)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s: unexpected status %s", cfg.URL, resp.Status)
	}

	// Full body: apply the window here
	st := NewMemoryStream(body)
	if !ranged {
		return st, nil
	}
	length := int64(len(body)) - cfg.Offset
	if cfg.Length != nil {
		length = *cfg.Length
	}
	sliced, err := st.Slice(cfg.Offset, length)
	// the slice holds its own reference
	_ = st.Close()
	if err != nil {
		return nil, err
	}
	return sliced, nil
}

// validateURL accepts absolute http(s) URLs without user info
func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("http source requires a url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}
	if u.User != nil {
		return "", fmt.Errorf("invalid url %q: user info is not allowed", raw)
	}
	return raw, nil
}
