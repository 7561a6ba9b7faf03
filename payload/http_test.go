package payload

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/nodefs"
	"github.com/brettbedarf/nodefs/internal/util"
)

var testModTime = time.Unix(1700000000, 0)

type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func TestHTTPProvider_URLValidation(t *testing.T) {
	client := &MockHTTPClient{}
	provider := &HTTPProvider{client}

	tests := []struct {
		url     string
		wantErr bool
		desc    string
	}{
		// Valid cases
		{"http://test.com", false, "basic HTTP URL"},
		{"https://test.com", false, "basic HTTPS URL"},
		{"  http://test.com   ", false, "URL with whitespace"},
		{"http://test.com/path?arg=1&arg2=2", false, "URL with path and query"},
		{"http://test.com:8080", false, "URL with port"},
		{"http://localhost:8080/test", false, "localhost with port"},
		{"http://123.123.123.123/test", false, "IP address"},
		{"http://mylocalnet/test", false, "single label hostname"},

		// Invalid cases
		{"", true, "empty string"},
		{" ", true, "whitespace only"},
		{"_", true, "invalid character"},
		{"ftp://test.com", true, "different scheme rejected"},
		{"test.com", true, "missing scheme"},
		{"http://user@test.com/path", true, "URL with user info"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := validateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.url), got)
		})
	}

	t.Run("provider rejects before fetching", func(t *testing.T) {
		p, err := provider.Payload(createCfg("ftp://test.com", nil))
		assert.Error(t, err)
		assert.Nil(t, p)
		client.AssertNotCalled(t, "Do", mock.Anything)
	})
}

func TestHTTPProvider_Fetch(t *testing.T) {
	const body = "0123456789"
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Token")
		switch r.URL.Path {
		case "/ranged":
			// ServeContent answers Range requests with 206
			http.ServeContent(w, r, "blob", testModTime, strings.NewReader(body))
		case "/overlong":
			// claims a partial response but sends everything
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write([]byte(body))
		case "/plain":
			_, _ = w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	provider := &HTTPProvider{Client: srv.Client()}

	tests := []struct {
		name    string
		path    string
		offset  int64
		length  *int64
		headers map[string]string
		want    string
	}{
		{"whole body", "/plain", 0, nil, nil, body},
		{"range honored", "/ranged", 2, util.Pointer(int64(3)), nil, "234"},
		{"range to end", "/ranged", 7, nil, nil, "789"},
		{"range ignored by server", "/plain", 4, util.Pointer(int64(2)), nil, "45"},
		{"tail sliced locally", "/plain", 8, nil, nil, "89"},
		{"empty window", "/plain", 3, util.Pointer(int64(0)), nil, ""},
		{"partial response trimmed", "/overlong", 0, util.Pointer(int64(3)), nil, "012"},
		{"custom headers", "/plain", 0, nil, map[string]string{"X-Token": "secret"}, body},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := HTTPSourceConfig{URL: srv.URL + tt.path, Offset: tt.offset, Length: tt.length, Headers: tt.headers}
			raw, err := json.Marshal(cfg)
			require.NoError(t, err)

			p, err := provider.Payload(raw)

			require.NoError(t, err)
			defer p.Close()
			assert.Equal(t, tt.want, string(readAll(t, p)))
			if tt.headers != nil {
				assert.Equal(t, "secret", gotHeader)
			}
		})
	}

	t.Run("error status", func(t *testing.T) {
		_, err := provider.Payload(createCfg(srv.URL+"/missing", nil))
		assert.ErrorContains(t, err, "unexpected status")
	})

	t.Run("window past end", func(t *testing.T) {
		raw, _ := json.Marshal(HTTPSourceConfig{URL: srv.URL + "/plain", Offset: 8, Length: util.Pointer(int64(5))})
		_, err := provider.Payload(raw)
		assert.ErrorIs(t, err, ErrRange)
	})

	t.Run("overflowing window", func(t *testing.T) {
		raw, _ := json.Marshal(HTTPSourceConfig{URL: srv.URL + "/plain", Offset: 2, Length: util.Pointer(int64(math.MaxInt64))})
		_, err := provider.Payload(raw)
		assert.ErrorIs(t, err, ErrRange)
	})

	t.Run("negative window", func(t *testing.T) {
		raw, _ := json.Marshal(HTTPSourceConfig{URL: srv.URL + "/plain", Offset: -1})
		_, err := provider.Payload(raw)
		assert.ErrorIs(t, err, ErrRange)
	})
}

func TestHTTPProvider_Method(t *testing.T) {
	client := &MockHTTPClient{}
	client.On("Do", mock.MatchedBy(func(r *http.Request) bool {
		return r.Method == HTTPMethodPost && r.URL.String() == "http://test.com/gen"
	})).Return(&http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Body:       http.NoBody,
	}, nil).Once()

	p, err := (&HTTPProvider{client}).Payload(createCfg("http://test.com/gen", util.Pointer(HTTPMethodPost)))

	require.NoError(t, err)
	assert.Zero(t, p.Len())
	client.AssertExpectations(t)
}

func TestRegisterBuiltins_HTTP(t *testing.T) {
	registry := NewRegistry()
	RegisterBuiltins(registry, NewPool())

	provider, err := registry.GetProvider(HTTPSourceType)
	require.NoError(t, err)
	assert.IsType(t, &HTTPProvider{}, provider)
}

// Test helpers

func createCfg(url string, method *HTTPMethod) []byte {
	config := HTTPSourceConfig{URL: url, Method: method}
	data, _ := json.Marshal(config)
	return data
}

func readAll(t *testing.T, p nodefs.Payload) []byte {
	t.Helper()
	buf := make([]byte, p.Len())
	n, err := p.ReadAt(buf, 0)
	if int64(n) != p.Len() {
		require.NoError(t, err)
	}
	return buf[:n]
}
