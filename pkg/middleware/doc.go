// Package middleware provides the request pipeline wrapped around the route
// table.
//
// # Overview
//
// Each middleware is a func(http.Handler) http.Handler and the pipeline is
// assembled explicitly with httputil.Chain, outermost first. The order
// matters: later middlewares rely on context values set by earlier ones.
//
//	httputil.Chain(
//		middleware.RequestID,                    // pre: X-Request-ID in context
//		middleware.Logging(logger),              // post: access log line
//		middleware.Recovery(debug),              // post: panic -> 500 page
//		observability.HTTPMetricsMiddleware(...),// post: request metrics
//		middleware.Security(...),                // pre: SSL redirect; post: security headers
//		middleware.Static(...),                  // pre: serve STATIC_URL or fall through
//		middleware.CORS(...),                    // pre: preflight; post: CORS headers
//		middleware.Sessions(store, name),        // pre: load; post: save if modified
//		middleware.AllowedHosts(hosts, debug),   // pre: Host validation -> 400
//		middleware.CSRF(...),                    // pre: verify unsafe methods; post: token cookie
//		middleware.Authentication,               // pre: user from session
//		middleware.Messages,                     // pre: flash store; post: persist unread
//		middleware.XFrameOptions("DENY"),        // post: clickjacking header
//	)(routes)
//
// Post-processing that touches headers runs through httputil.BeforeHeaders,
// so it happens before the handler's first write rather than after the
// handler returns.
//
// # CSRF
//
// Unsafe requests must carry the token from the csrftoken cookie in the
// X-CSRFToken header or the csrfmiddlewaretoken form field. Pages obtain a
// masked token with CSRFToken(ctx). Paths under an exempt prefix (the JSON
// API) skip verification.
//
// The login handler calls RotateCSRFToken(ctx) right after session.Login so
// a token seen before authentication cannot be replayed afterwards; the new
// secret is sent as a fresh cookie on the same response.
//
// # Related Packages
//
//   - pkg/session: Session store, user and flash messages
//   - pkg/httputil: Chain, BeforeHeaders and error pages
//   - pkg/observability: Logger and metrics
package middleware
