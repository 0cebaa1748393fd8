package security

import (
	"fmt"
	"net/http"
)

// HeadersConfig holds the response headers applied to every API response.
type HeadersConfig struct {
	CSP                   string
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	ReferrerPolicy        string
	CrossOriginResource   string
	CacheControl          string
}

// DefaultHeadersConfig returns defaults for a JSON API that serves no
// documents of its own.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		ReferrerPolicy:        "no-referrer",
		CrossOriginResource:   "same-origin",
		CacheControl:          "no-store",
	}
}

// Headers returns middleware applying cfg.
func Headers(cfg HeadersConfig) func(http.Handler) http.Handler {
	hsts := ""
	if cfg.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			if cfg.CSP != "" {
				h.Set("Content-Security-Policy", cfg.CSP)
			}
			if cfg.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			if cfg.CrossOriginResource != "" {
				h.Set("Cross-Origin-Resource-Policy", cfg.CrossOriginResource)
			}
			if cfg.CacheControl != "" {
				h.Set("Cache-Control", cfg.CacheControl)
			}
			if r.TLS != nil && hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}
