package frontend

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/platinummonkey/hrms-lite/pkg/httputil"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
)

var allowedMethods = strings.Join([]string{http.MethodGet, http.MethodHead, http.MethodOptions}, ", ")

// HandlerOptions configures a template page handler
type HandlerOptions struct {
	Debug     bool
	StaticURL string
}

// Handler renders the named template for GET and HEAD. A template missing
// from every search directory yields 404; any other failure is logged and
// yields 500.
func Handler(renderer *Renderer, name string, opts HandlerOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
		case http.MethodOptions:
			w.Header().Set("Allow", allowedMethods)
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(http.StatusOK)
			return
		default:
			w.Header().Set("Allow", allowedMethods)
			httputil.WritePage(w, httputil.Page{
				Status: http.StatusMethodNotAllowed,
				Title:  "Method Not Allowed (405)",
			}, opts.Debug)
			return
		}

		buf, err := renderer.execute(name, NewPageContext(r, opts.Debug, opts.StaticURL))
		if err != nil {
			logger := observability.FromContext(r.Context()).WithError(err).WithField("template", name)
			if errors.Is(err, ErrTemplateNotFound) {
				logger.Warn("page template missing")
				httputil.WriteNotFoundPage(w, err.Error(), opts.Debug)
				return
			}
			logger.Error("failed to render page")
			httputil.WriteServerErrorPage(w, err.Error(), opts.Debug)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := buf.WriteTo(w); err != nil {
			observability.FromContext(r.Context()).WithError(err).WithField("template", name).
				Debug("client went away before the page was written")
		}
	})
}
