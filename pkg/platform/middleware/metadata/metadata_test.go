package metadata

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/pkg/requestcontext"
)

type captured struct {
	ip, userAgent, descriptor string
}

func serve(t *testing.T, trusted []string, remote string, headers map[string]string) captured {
	t.Helper()
	prefixes, err := ParseTrustedProxies(trusted)
	require.NoError(t, err)

	var got captured
	handler := NewMiddleware(&Config{TrustedProxies: prefixes}).Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		got = captured{requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx), requestcontext.ClientDescriptor(ctx)}
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/audit/events", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted peer ignores XFF", nil, "192.168.1.1:12345", map[string]string{"X-Forwarded-For": "203.0.113.1"}, "192.168.1.1"},
		{"trusted peer uses first XFF hop", []string{"10.0.0.0/8"}, "10.0.0.1:12345", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2"}, "203.0.113.1"},
		{"trusted bare address", []string{"10.0.0.1"}, "10.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"garbage XFF falls back to peer", []string{"10.0.0.0/8"}, "10.0.0.1:1", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.1"},
		{"oversized XFF falls back to peer", []string{"10.0.0.0/8"}, "10.0.0.1:1", map[string]string{"X-Forwarded-For": strings.Repeat("1", MaxForwardedHeaderLength+1)}, "10.0.0.1"},
		{"ipv6 peer", nil, "[2001:db8::1]:443", nil, "2001:db8::1"},
		{"mapped ipv4 peer", nil, "[::ffff:192.0.2.4]:443", nil, "192.0.2.4"},
		{"unparseable peer", nil, "pipe", nil, "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, serve(t, tc.trusted, tc.remote, tc.headers).ip)
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{" 10.1.2.3/8 ", "::1"})
	require.NoError(t, err)
	require.Len(t, prefixes, 2)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "::1/128", prefixes[1].String())

	_, err = ParseTrustedProxies([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestHandlerStoresClient(t *testing.T) {
	got := serve(t, nil, "192.0.2.1:1", map[string]string{"User-Agent": "curl/8.4.0"})
	assert.Equal(t, "curl/8.4.0", got.userAgent)
	assert.Contains(t, got.descriptor, "curl")

	got = serve(t, nil, "192.0.2.1:1", nil)
	assert.Empty(t, got.userAgent)
	assert.Equal(t, "unknown", got.descriptor)
}

func TestDescribeClient(t *testing.T) {
	assert.Equal(t, "unknown", DescribeClient(""))

	chrome := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	desc := DescribeClient(chrome)
	assert.Contains(t, desc, "Chrome")
	assert.Contains(t, desc, " on ")
	assert.NotContains(t, desc, "120", "versions are dropped")
}
