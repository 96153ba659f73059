package httputil

import (
	"io"
	"net/http"
	"sync"

	"github.com/felixge/httpsnoop"
)

// Middleware wraps a handler
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares so the first one listed is the outermost
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// BeforeHeaders wraps w so fn runs exactly once, immediately before the
// response status line is committed. Middlewares use it to mutate response
// headers (cookies, Vary, security headers) after the inner handler ran
// but before anything reaches the client.
//
// The returned finish func must be called after the inner handler returns;
// it runs fn if the handler never wrote anything.
func BeforeHeaders(w http.ResponseWriter, fn func(h http.Header)) (http.ResponseWriter, func()) {
	var once sync.Once
	run := func() { once.Do(func() { fn(w.Header()) }) }

	wrapped := httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				run()
				next(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				run()
				return next(b)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				run()
				return next(src)
			}
		},
		Flush: func(next httpsnoop.FlushFunc) httpsnoop.FlushFunc {
			return func() {
				run()
				next()
			}
		},
	})

	return wrapped, run
}
