package session

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/platinummonkey/hrms-lite/pkg/contextkeys"
)

// Session wraps a gorilla session and tracks whether the request read or
// changed it, so the middleware only writes cookies when needed.
type Session struct {
	raw      *sessions.Session
	store    sessions.Store
	accessed bool
	modified bool
	flushed  bool
}

// Load fetches the named session from store. Undecodable cookies yield a
// fresh session alongside the error, which callers may log and ignore.
func Load(r *http.Request, store sessions.Store, name string) (*Session, error) {
	raw, err := store.Get(r, name)
	if raw == nil {
		raw = sessions.NewSession(store, name)
	}
	return &Session{raw: raw, store: store}, err
}

// Get returns the value stored under key
func (s *Session) Get(key string) (interface{}, bool) {
	s.accessed = true
	v, ok := s.raw.Values[key]
	return v, ok
}

// GetString returns the string stored under key, or ""
func (s *Session) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// Set stores value under key
func (s *Session) Set(key string, value interface{}) {
	s.accessed = true
	s.modified = true
	s.raw.Values[key] = value
}

// Delete removes key
func (s *Session) Delete(key string) {
	s.accessed = true
	if _, ok := s.raw.Values[key]; ok {
		delete(s.raw.Values, key)
		s.modified = true
	}
}

// Len reports the number of stored values
func (s *Session) Len() int {
	return len(s.raw.Values)
}

// Flush clears all data and forgets the session ID, so the next save
// issues a fresh identifier.
func (s *Session) Flush() {
	s.accessed = true
	s.modified = true
	s.flushed = true
	for k := range s.raw.Values {
		delete(s.raw.Values, k)
	}
}

// CycleKey keeps the data but moves it to a new session ID
func (s *Session) CycleKey() {
	s.accessed = true
	s.modified = true
	s.flushed = true
}

// IsNew reports whether the session did not exist before this request
func (s *Session) IsNew() bool { return s.raw.IsNew }

// Accessed reports whether the session was read or written
func (s *Session) Accessed() bool { return s.accessed }

// Modified reports whether the session must be saved
func (s *Session) Modified() bool { return s.modified }

// ID returns the server-side identifier (empty for cookie sessions)
func (s *Session) ID() string { return s.raw.ID }

// Save writes the session cookie onto w. An emptied session that existed
// before is deleted instead.
func (s *Session) Save(r *http.Request, w http.ResponseWriter) error {
	if s.flushed && s.raw.ID != "" {
		if rs, ok := s.store.(*RedisStore); ok {
			if err := rs.Delete(r, s.raw.ID); err != nil {
				return err
			}
		}
		s.raw.ID = ""
	}

	if len(s.raw.Values) == 0 {
		if s.raw.IsNew {
			return nil
		}
		opts := *s.raw.Options
		opts.MaxAge = -1
		s.raw.Options = &opts
	}

	if err := s.raw.Save(r, w); err != nil {
		return err
	}
	s.modified = false
	s.flushed = false
	return nil
}

// WithSession stores s on ctx
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextkeys.SessionKey, s)
}

// FromContext returns the request session, or nil outside the session middleware
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextkeys.SessionKey).(*Session)
	return s
}
