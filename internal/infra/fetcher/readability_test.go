package fetcher

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
  <nav>Site navigation links here</nav>
  <article>
    <h1>Test Article</h1>
    <p>This is the first paragraph of the article body. It carries enough
    text that the readability extractor treats it as real content rather
    than boilerplate.</p>
    <p>A second paragraph keeps the extraction stable across versions of
    the algorithm and gives the scorer more signal to work with.</p>
  </article>
  <footer>Copyright notice</footer>
</body>
</html>`

// testConfig allows requests to the httptest loopback server.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DenyPrivateIPs = false
	return cfg
}

func TestFetchContent_ExtractsArticleText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EntryHubBot/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	f := NewReadabilityFetcher(testConfig())

	content, err := f.FetchContent(context.Background(), server.URL+"/article")
	require.NoError(t, err)
	assert.Contains(t, content, "first paragraph of the article body")
	assert.NotContains(t, content, "<p>")
}

func TestFetchContent_RejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	f := NewReadabilityFetcher(testConfig())

	_, err := f.FetchContent(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 410")
}

func TestFetchContent_EnforcesBodySizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 2048
	f := NewReadabilityFetcher(cfg)

	_, err := f.FetchContent(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetchContent_RejectsPrivateIPWhenDenied(t *testing.T) {
	cfg := DefaultConfig() // DenyPrivateIPs on
	f := NewReadabilityFetcher(cfg)

	_, err := f.FetchContent(context.Background(), "http://127.0.0.1:9/article")
	assert.ErrorIs(t, err, ErrPrivateIP)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"https allowed", "https://example.com/a", nil},
		{"ftp scheme rejected", "ftp://example.com/a", ErrInvalidURL},
		{"file scheme rejected", "file:///etc/passwd", ErrInvalidURL},
		{"empty hostname", "http://", ErrInvalidURL},
		{"loopback rejected", "http://127.0.0.1/a", ErrPrivateIP},
		{"private range rejected", "http://192.168.1.10/a", ErrPrivateIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Validation of public hostnames needs DNS; keep those cases
			// resolution-free by disabling the IP check.
			deny := tt.wantErr == ErrPrivateIP
			err := validateURL(tt.url, deny)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	assert.True(t, isPrivateIP(net.ParseIP("127.0.0.1")))
	assert.True(t, isPrivateIP(net.ParseIP("10.0.0.5")))
	assert.True(t, isPrivateIP(net.ParseIP("172.16.0.1")))
	assert.True(t, isPrivateIP(net.ParseIP("192.168.1.1")))
	assert.True(t, isPrivateIP(net.ParseIP("169.254.0.1")))
	assert.True(t, isPrivateIP(net.ParseIP("::1")))
	assert.True(t, isPrivateIP(net.ParseIP("fe80::1")))
	assert.False(t, isPrivateIP(net.ParseIP("8.8.8.8")))
	assert.False(t, isPrivateIP(net.ParseIP("2001:4860:4860::8888")))
}
