package middleware

import (
	"net/http"

	"github.com/platinummonkey/hrms-lite/pkg/httputil"
)

// XFrameOptions sets X-Frame-Options to value unless the handler chose one
func XFrameOptions(value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww, finish := httputil.BeforeHeaders(w, func(h http.Header) {
				setDefault(h, "X-Frame-Options", value)
			})
			next.ServeHTTP(ww, r)
			finish()
		})
	}
}
