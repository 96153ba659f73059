package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/platinummonkey/hrms-lite/pkg/httputil"
)

const corsPreflightMaxAge = 86400

var (
	corsAllowHeaders = []string{"accept", "authorization", "content-type", "user-agent", "x-csrftoken", "x-requested-with"}
	corsAllowMethods = []string{"DELETE", "GET", "OPTIONS", "PATCH", "POST", "PUT"}
)

// CORSOptions configures CORS
type CORSOptions struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// CORS answers preflight requests and grants cross-origin access to origins
// on the allow-list. Origins are compared exactly. Requests from other
// origins proceed without CORS headers, leaving enforcement to the browser.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, ok := allowed[origin]
			ok = ok && origin != ""

			decorate := func(h http.Header) {
				h.Add("Vary", "Origin")
				if !ok {
					return
				}
				h.Set("Access-Control-Allow-Origin", origin)
				if opts.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h := w.Header()
				decorate(h)
				if ok {
					h.Set("Access-Control-Allow-Headers", strings.Join(corsAllowHeaders, ", "))
					h.Set("Access-Control-Allow-Methods", strings.Join(corsAllowMethods, ", "))
					h.Set("Access-Control-Max-Age", strconv.Itoa(corsPreflightMaxAge))
				}
				h.Set("Content-Length", "0")
				w.WriteHeader(http.StatusOK)
				return
			}

			ww, finish := httputil.BeforeHeaders(w, decorate)
			next.ServeHTTP(ww, r)
			finish()
		})
	}
}
