package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"
)

// ClientIPResolver extracts the caller's address, honouring forwarding
// headers only when the direct peer is a trusted proxy.
type ClientIPResolver struct {
	mu      sync.RWMutex
	trusted []netip.Prefix
	probes  atomic.Int64
}

// NewClientIPResolver trusts loopback and RFC 1918 networks.
func NewClientIPResolver() *ClientIPResolver {
	return &ClientIPResolver{
		trusted: []netip.Prefix{
			netip.MustParsePrefix("127.0.0.0/8"),
			netip.MustParsePrefix("::1/128"),
			netip.MustParsePrefix("10.0.0.0/8"),
			netip.MustParsePrefix("172.16.0.0/12"),
			netip.MustParsePrefix("192.168.0.0/16"),
		},
	}
}

// AddTrustedProxy adds a trusted proxy network
func (c *ClientIPResolver) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	c.mu.Lock()
	c.trusted = append(c.trusted, p.Masked())
	c.mu.Unlock()
	return nil
}

// ClientIP returns the best-known client address for r.
func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !c.isTrusted(peer.Unmap()) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.String()
		}
	}
	return host
}

func (c *ClientIPResolver) isTrusted(addr netip.Addr) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

var probePatterns = []string{
	"../", "..\\", ".env", ".git", "wp-admin", "phpmyadmin", "etc/passwd", "<script",
}

// IsProbe reports requests that look like path scanning. The API never
// serves such paths, so callers may reject them outright.
func (c *ClientIPResolver) IsProbe(r *http.Request) bool {
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, p := range probePatterns {
		if strings.Contains(target, p) {
			c.probes.Add(1)
			return true
		}
	}
	return false
}

// Probes returns how many probe requests were seen.
func (c *ClientIPResolver) Probes() int64 {
	return c.probes.Load()
}
