package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// DefaultKeyPrefix namespaces session keys in redis
const DefaultKeyPrefix = "session"

// RedisStore keeps session data in redis. The cookie only carries a
// signed session ID.
type RedisStore struct {
	client  *redis.Client
	codecs  []securecookie.Codec
	prefix  string
	Options *sessions.Options
}

// NewRedisStore creates a redis-backed session store
func NewRedisStore(client *redis.Client, opts Options) *RedisStore {
	return &RedisStore{
		client:  client,
		codecs:  codecs(opts),
		prefix:  DefaultKeyPrefix,
		Options: opts.cookieOptions(),
	}
}

// Get returns the session for name, cached for the lifetime of the request
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, tampered or
// expired session yields a fresh one; only redis failures are returned.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, cookie.Value, &id, s.codecs...); err != nil {
		return session, nil
	}

	raw, err := s.client.Get(r.Context(), s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return session, nil
	}
	if err != nil {
		return session, fmt.Errorf("load session: %w", err)
	}

	if err := securecookie.DecodeMulti(name, raw, &session.Values, s.codecs...); err != nil {
		return session, nil
	}
	session.ID = id
	session.IsNew = false
	return session, nil
}

// Save persists the session and sets its cookie. A negative MaxAge
// deletes both.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.client.Del(ctx, s.key(session.ID)).Err(); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.Values, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.client.Set(ctx, s.key(session.ID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	signedID, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session id: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), signedID, session.Options))
	return nil
}

// Delete removes the stored data for id
func (s *RedisStore) Delete(r *http.Request, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(r.Context(), s.key(id)).Err()
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}
