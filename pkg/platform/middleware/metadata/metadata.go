// Package metadata records who is calling: the client address (honouring
// X-Forwarded-For only from trusted proxies) and a short client descriptor
// that audit events store as their origin.
package metadata

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"

	"auditwatch/pkg/requestcontext"
)

// MaxForwardedHeaderLength caps X-Forwarded-For and X-Real-IP before parsing.
const MaxForwardedHeaderLength = 500

type Config struct {
	// TrustedProxies may set X-Forwarded-For. Empty means never trust it.
	TrustedProxies []netip.Prefix
}

// ParseTrustedProxies accepts CIDR prefixes and bare addresses.
func ParseTrustedProxies(raw []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if !strings.Contains(s, "/") {
			addr, err := netip.ParseAddr(s)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", s, err)
			}
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", s, err)
		}
		out = append(out, p.Masked())
	}
	return out, nil
}

type Middleware struct {
	trusted []netip.Prefix
}

// NewMiddleware accepts a nil config, which trusts no proxy.
func NewMiddleware(cfg *Config) *Middleware {
	m := &Middleware{}
	if cfg != nil {
		m.trusted = cfg.TrustedProxies
	}
	return m
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), m.clientIP(r), userAgent, DescribeClient(userAgent))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP returns the peer address unless the peer is a trusted proxy that
// names the original client in X-Forwarded-For (first hop) or X-Real-IP.
func (m *Middleware) clientIP(r *http.Request) string {
	peer, ok := remoteAddr(r.RemoteAddr)
	if !ok {
		return "unknown"
	}
	if !m.isTrusted(peer) {
		return peer.String()
	}
	for _, forwarded := range []string{r.Header.Get("X-Forwarded-For"), r.Header.Get("X-Real-IP")} {
		if forwarded == "" || len(forwarded) > MaxForwardedHeaderLength {
			continue
		}
		first, _, _ := strings.Cut(forwarded, ",")
		if client, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return client.Unmap().String()
		}
	}
	return peer.String()
}

func (m *Middleware) isTrusted(addr netip.Addr) bool {
	for _, prefix := range m.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// remoteAddr parses "host:port" or a bare address.
func remoteAddr(raw string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return ap.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(strings.Trim(raw, "[]")); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}

// DescribeClient reduces a User-Agent to "Browser on OS", or to the bot or
// tool name for non-browser clients. Empty input yields "unknown".
func DescribeClient(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	name, _ := ua.Browser()
	if ua.Bot() || name == "" {
		if name == "" {
			name, _, _ = strings.Cut(userAgent, "/")
		}
		return strings.TrimSpace(name)
	}

	os := ua.OS()
	if ua.Mobile() && ua.Platform() != "" {
		os = ua.Platform()
	}
	if os == "" {
		return name
	}
	return name + " on " + os
}
