package middleware

import (
	"net/http"

	"github.com/platinummonkey/hrms-lite/pkg/httputil"
	"github.com/platinummonkey/hrms-lite/pkg/session"
)

// Messages attaches a flash message store backed by the session. Unread
// messages are written back before the session middleware saves.
func Messages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := session.NewMessageStore(session.FromContext(r.Context()))
		r = r.WithContext(session.WithMessages(r.Context(), store))

		ww, finish := httputil.BeforeHeaders(w, func(http.Header) { store.Commit() })
		next.ServeHTTP(ww, r)
		finish()
	})
}
