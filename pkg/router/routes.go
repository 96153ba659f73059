package router

import (
	"fmt"
	"net/http"

	"github.com/platinummonkey/hrms-lite/pkg/httputil"
)

const (
	AdminPrefix = "/admin/"
	APIPrefix   = "/api/"
)

// Routes returns the application's route table entries in match order:
// the exact site root renders the frontend entry page, /admin/ goes to the
// admin subsystem and /api/ to the employees API.
func Routes(index, admin, api http.Handler) []Entry {
	return []Entry{
		{Name: IndexRoute, Pattern: "/", Kind: Exact, Handler: index},
		{Name: AdminRoute, Pattern: AdminPrefix, Kind: Prefix, Handler: admin},
		{Name: APIRoute, Pattern: APIPrefix, Kind: Prefix, Handler: api},
	}
}

// Unavailable stands in for a subsystem that is not linked into this
// binary. It keeps the prefix owned (so nothing falls through to another
// entry) and answers 501.
func Unavailable(subsystem string) http.Handler {
	msg := fmt.Sprintf("the %s subsystem is not configured", subsystem)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteProblem(w, http.StatusNotImplemented, "not_configured", msg)
	})
}
