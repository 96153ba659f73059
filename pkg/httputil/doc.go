// Package httputil provides HTTP utilities shared by the middleware pipeline
// and the route table.
//
// # Error Pages
//
// Browser-facing routes answer with small HTML pages. Diagnostic detail is
// only rendered in debug mode:
//
//	httputil.WriteNotFoundPage(w, "tried: /, /admin/, /api/", cfg.Security.Debug)
//	httputil.WriteServerErrorPage(w, stack, cfg.Security.Debug)
//
// # JSON Responses
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteProblem(w, http.StatusNotImplemented, "not_configured", "the employees subsystem is not configured")
//
// # Middleware
//
//	handler = httputil.Chain(
//		middleware.RequestID,
//		middleware.Logging(logger),
//		middleware.Recovery(debug),
//	)(routes)
//
// BeforeHeaders lets a middleware adjust response headers after the inner
// handler decided on them but before they are sent:
//
//	ww, finish := httputil.BeforeHeaders(w, func(h http.Header) {
//		if h.Get("X-Frame-Options") == "" {
//			h.Set("X-Frame-Options", "DENY")
//		}
//	})
//	next.ServeHTTP(ww, r)
//	finish()
package httputil
