// Package session provides request sessions, the logged-in user and flash
// messages.
//
// Sessions live either in a signed and encrypted cookie (the default) or in
// redis when SESSION_REDIS_URL is set, in which case the cookie carries only
// a signed session ID:
//
//	store := session.NewStore(session.Options{
//		CookieName: cfg.Session.CookieName,
//		MaxAge:     cfg.Session.CookieAge,
//		Secure:     cfg.Session.CookieSecure,
//		SecretKey:  cfg.Security.SecretKey,
//	}, redisClient)
//
// The middleware package loads the session once per request and saves it
// only if a handler modified it. Handlers reach it through the context:
//
//	s := session.FromContext(r.Context())
//	session.AddMessage(r.Context(), session.LevelSuccess, "Employee created")
//
// # Authentication
//
// This module does not check credentials. The admin handler mounted under
// /admin/ does, and records the outcome with Login and Logout; the
// Authentication middleware then exposes it to every later request through
// UserFromContext:
//
//	s := session.FromContext(r.Context())
//	session.Login(s, &session.User{ID: "7", Username: "hr-admin", IsStaff: true})
//	middleware.RotateCSRFToken(r.Context())
//
// A handler that wants quieter pages can raise the message threshold with
// MessagesFromContext(ctx).SetMinLevel(session.LevelWarning).
package session
