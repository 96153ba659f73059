package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	hashKeySalt  = "hrms.session.hash"
	blockKeySalt = "hrms.session.block"
)

// Options configures session cookies and the backing store
type Options struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
	SecretKey  string
}

func (o Options) cookieOptions() *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(o.MaxAge / time.Second),
		Secure:   o.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewStore returns a redis-backed store when client is non-nil and a
// signed, encrypted cookie store otherwise.
func NewStore(opts Options, client *redis.Client) sessions.Store {
	if client != nil {
		return NewRedisStore(client, opts)
	}
	return NewCookieStore(opts)
}

// NewCookieStore keeps session data in the cookie itself. Both keys are
// derived from the secret key, so rotating SECRET_KEY invalidates every
// outstanding session.
func NewCookieStore(opts Options) *sessions.CookieStore {
	store := sessions.NewCookieStore(
		DeriveKey(opts.SecretKey, hashKeySalt),
		DeriveKey(opts.SecretKey, blockKeySalt),
	)
	store.Options = opts.cookieOptions()
	store.MaxAge(store.Options.MaxAge)
	return store
}

// DeriveKey derives a 32 byte key for purpose from the application secret
func DeriveKey(secret, purpose string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(purpose))
	return mac.Sum(nil)
}

func codecs(opts Options) []securecookie.Codec {
	cs := securecookie.CodecsFromPairs(DeriveKey(opts.SecretKey, hashKeySalt))
	for _, c := range cs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(int(opts.MaxAge / time.Second))
		}
	}
	return cs
}
