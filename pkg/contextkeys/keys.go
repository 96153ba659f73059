// Package contextkeys provides centralized context key definitions
//
// All request-scoped values placed on a context by the middleware pipeline
// are keyed here, so the producer and every consumer agree on one name.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/hrms-lite/pkg/contextkeys"
//	ctx = context.WithValue(ctx, contextkeys.SessionKey, sess)
//	sess, _ := ctx.Value(contextkeys.SessionKey).(*session.Session)
package contextkeys

// Key is the type for context keys to prevent collisions
type Key string

const (
	// RequestIDKey contains request ID string (UUID)
	// Set by: middleware.RequestID
	// Used by: Logger, error pages
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: middleware.Logging
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"

	// SessionKey contains *session.Session
	// Set by: middleware.Sessions
	// Used by: CSRF rotation, user resolution, flash messages
	// Type: *session.Session
	SessionKey Key = "session"

	// CSRFTokenKey contains the unmasked CSRF secret for this request
	// Set by: middleware.CSRF
	// Used by: frontend.PageContext
	// Type: string
	CSRFTokenKey Key = "csrf_token"

	// UserKey contains *session.User (anonymous when nobody is logged in)
	// Set by: middleware.Authentication
	// Used by: templates, admin collaborator
	// Type: *session.User
	UserKey Key = "user"

	// MessagesKey contains *session.MessageStore
	// Set by: middleware.Messages
	// Used by: handlers adding flash messages, templates consuming them
	// Type: *session.MessageStore
	MessagesKey Key = "messages"
)
