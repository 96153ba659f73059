package middleware

import (
	"net/http"

	"github.com/platinummonkey/hrms-lite/pkg/session"
)

// Authentication resolves the logged-in user from the session and puts it
// on the context. Requests without a session, or without a login, carry
// the anonymous user.
func Authentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := session.CurrentUser(session.FromContext(r.Context()))
		next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), user)))
	})
}
