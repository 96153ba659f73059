package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/platinummonkey/hrms-lite/pkg/httputil"
)

// SecurityOptions configures Security
type SecurityOptions struct {
	HSTSSeconds         int
	SSLRedirect         bool
	TrustForwardedProto bool
}

// Security redirects plain HTTP to HTTPS when asked to and adds the
// baseline security headers. Headers the handler already set are kept.
func Security(opts SecurityOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secure := IsSecure(r, opts.TrustForwardedProto)

			if opts.SSLRedirect && !secure {
				http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusMovedPermanently)
				return
			}

			ww, finish := httputil.BeforeHeaders(w, func(h http.Header) {
				setDefault(h, "X-Content-Type-Options", "nosniff")
				setDefault(h, "Referrer-Policy", "same-origin")
				setDefault(h, "Cross-Origin-Opener-Policy", "same-origin")
				if secure && opts.HSTSSeconds > 0 {
					setDefault(h, "Strict-Transport-Security", fmt.Sprintf("max-age=%d", opts.HSTSSeconds))
				}
			})
			next.ServeHTTP(ww, r)
			finish()
		})
	}
}

// IsSecure reports whether the client reached us over TLS
func IsSecure(r *http.Request, trustForwardedProto bool) bool {
	if r.TLS != nil {
		return true
	}
	return trustForwardedProto && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func setDefault(h http.Header, key, value string) {
	if h.Get(key) == "" {
		h.Set(key, value)
	}
}
