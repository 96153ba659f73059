package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/felixge/httpsnoop"
	"github.com/platinummonkey/hrms-lite/pkg/httputil"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
)

// Recovery turns a panicking handler into a logged 500 page. The panic
// value and stack are only shown to the client when debug is set.
func Recovery(debugPages bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wroteHeader := false
			ww := httpsnoop.Wrap(w, httpsnoop.Hooks{
				WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
					return func(code int) {
						wroteHeader = true
						next(code)
					}
				},
				Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
					return func(b []byte) (int, error) {
						wroteHeader = true
						return next(b)
					}
				},
			})

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := debug.Stack()
				observability.FromContext(r.Context()).
					WithFields(map[string]interface{}{
						"panic":  fmt.Sprint(rec),
						"method": r.Method,
						"path":   r.URL.Path,
						"stack":  string(stack),
					}).
					Error("handler panicked")

				if wroteHeader {
					return
				}
				httputil.WriteServerErrorPage(w, fmt.Sprintf("%v\n\n%s", rec, stack), debugPages)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
