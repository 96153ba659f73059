package session

import (
	"context"

	"github.com/platinummonkey/hrms-lite/pkg/contextkeys"
)

const (
	userIDKey    = "_auth_user_id"
	userNameKey  = "_auth_user_name"
	userStaffKey = "_auth_user_staff"
)

// User is the identity attached to a request. The zero value is anonymous.
type User struct {
	ID       string
	Username string
	IsStaff  bool
}

// IsAuthenticated reports whether the user logged in
func (u *User) IsAuthenticated() bool {
	return u != nil && u.ID != ""
}

// Anonymous is the user for requests without a login
var Anonymous = &User{}

// CurrentUser reads the logged-in user from s. It does not count as a
// session access, so anonymous pages stay cacheable.
func CurrentUser(s *Session) *User {
	if s == nil {
		return Anonymous
	}
	id, _ := s.raw.Values[userIDKey].(string)
	if id == "" {
		return Anonymous
	}
	name, _ := s.raw.Values[userNameKey].(string)
	staff, _ := s.raw.Values[userStaffKey].(bool)
	return &User{ID: id, Username: name, IsStaff: staff}
}

// Login records u on the session under a fresh session ID
func Login(s *Session, u *User) {
	if current := CurrentUser(s); current.IsAuthenticated() && current.ID != u.ID {
		s.Flush()
	} else {
		s.CycleKey()
	}
	s.Set(userIDKey, u.ID)
	s.Set(userNameKey, u.Username)
	s.Set(userStaffKey, u.IsStaff)
}

// Logout discards all session data
func Logout(s *Session) {
	s.Flush()
}

// WithUser stores u on ctx
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextkeys.UserKey, u)
}

// UserFromContext returns the request user, anonymous when unset
func UserFromContext(ctx context.Context) *User {
	if u, ok := ctx.Value(contextkeys.UserKey).(*User); ok && u != nil {
		return u
	}
	return Anonymous
}
