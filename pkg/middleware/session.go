package middleware

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/platinummonkey/hrms-lite/pkg/httputil"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
	"github.com/platinummonkey/hrms-lite/pkg/session"
)

// Sessions loads the request session and saves it, if modified, just
// before the response headers go out. A session that was read adds
// Vary: Cookie.
func Sessions(store sessions.Store, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := session.Load(r, store, cookieName)
			if err != nil {
				observability.FromContext(r.Context()).WithError(err).Debug("discarding unreadable session")
			}
			r = r.WithContext(session.WithSession(r.Context(), sess))

			ww, finish := httputil.BeforeHeaders(w, func(h http.Header) {
				if sess.Accessed() {
					h.Add("Vary", "Cookie")
				}
				if !sess.Modified() {
					return
				}
				// SetCookie only touches w.Header(), which is h
				if err := sess.Save(r, w); err != nil {
					observability.FromContext(r.Context()).WithError(err).Error("failed to save session")
				}
			})
			next.ServeHTTP(ww, r)
			finish()
		})
	}
}
