package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/platinummonkey/hrms-lite/pkg/contextkeys"
	"github.com/platinummonkey/hrms-lite/pkg/httputil"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
)

const (
	csrfAllowedChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	csrfSecretLength = 32
	csrfTokenLength  = 2 * csrfSecretLength

	// CSRFHeader carries the token on AJAX requests
	CSRFHeader = "X-CSRFToken"
	// CSRFFormField carries the token on form posts
	CSRFFormField = "csrfmiddlewaretoken"

	csrfCookieAge = 52 * 7 * 24 * time.Hour
)

// CSRF failure reasons, shown on the 403 page in debug mode
const (
	reasonNoReferer        = "Referer checking failed - no Referer."
	reasonBadReferer       = "Referer checking failed - %s does not match any trusted origins."
	reasonMalformedReferer = "Referer checking failed - Referer is malformed."
	reasonInsecureReferer  = "Referer checking failed - Referer is insecure while host is secure."
	reasonBadOrigin        = "Origin checking failed - %s does not match any trusted origins."
	reasonNoCookie         = "CSRF cookie not set."
	reasonMissingToken     = "CSRF token missing."
	reasonBadLength        = "CSRF token has incorrect length."
	reasonBadChars         = "CSRF token has invalid characters."
	reasonIncorrectToken   = "CSRF token incorrect."
)

// CSRFOptions configures CSRF
type CSRFOptions struct {
	CookieName          string
	CookieSecure        bool
	TrustedOrigins      []string // scheme://host, host may start with "*."
	ExemptPrefixes      []string // path prefixes that skip verification
	TrustForwardedProto bool
	Debug               bool
}

type csrfState struct {
	mu      sync.Mutex
	secret  string
	used    bool
	rotated bool
}

// CSRF rejects unsafe requests that lack a matching token or come from an
// untrusted origin, and sets the token cookie whenever a handler asked
// for the token.
func CSRF(opts CSRFOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := &csrfState{}
			if c, err := r.Cookie(opts.CookieName); err == nil && validSecret(c.Value) {
				state.secret = c.Value
			}
			r = r.WithContext(context.WithValue(r.Context(), contextkeys.CSRFTokenKey, state))

			if !isSafeMethod(r.Method) && !exempt(r.URL.Path, opts.ExemptPrefixes) {
				if reason := verifyCSRF(r, opts, state.secret); reason != "" {
					observability.FromContext(r.Context()).
						WithFields(map[string]interface{}{"reason": reason, "path": r.URL.Path}).
						Warn("CSRF verification failed")
					httputil.WriteForbiddenPage(w, "CSRF verification failed. Request aborted.", reason, opts.Debug)
					return
				}
			}

			ww, finish := httputil.BeforeHeaders(w, func(h http.Header) {
				state.mu.Lock()
				defer state.mu.Unlock()
				if !state.used && !state.rotated {
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     opts.CookieName,
					Value:    state.secret,
					Path:     "/",
					MaxAge:   int(csrfCookieAge / time.Second),
					Expires:  time.Now().Add(csrfCookieAge),
					Secure:   opts.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
				h.Add("Vary", "Cookie")
			})
			next.ServeHTTP(ww, r)
			finish()
		})
	}
}

// CSRFToken returns a masked token for embedding in a page or form and
// makes sure the response carries the matching cookie. It returns "" when
// the CSRF middleware is not installed.
func CSRFToken(ctx context.Context) string {
	state, ok := ctx.Value(contextkeys.CSRFTokenKey).(*csrfState)
	if !ok {
		return ""
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.secret == "" {
		state.secret = randomCSRFString(csrfSecretLength)
	}
	state.used = true
	return maskSecret(state.secret)
}

// RotateCSRFToken replaces the secret, typically after login
func RotateCSRFToken(ctx context.Context) {
	state, ok := ctx.Value(contextkeys.CSRFTokenKey).(*csrfState)
	if !ok {
		return
	}
	state.mu.Lock()
	state.secret = randomCSRFString(csrfSecretLength)
	state.rotated = true
	state.mu.Unlock()
}

func verifyCSRF(r *http.Request, opts CSRFOptions, secret string) string {
	secure := IsSecure(r, opts.TrustForwardedProto)

	if origin := r.Header.Get("Origin"); origin != "" {
		if !originTrusted(origin, requestOrigin(r, secure), opts.TrustedOrigins) {
			return fmt.Sprintf(reasonBadOrigin, origin)
		}
	} else if secure {
		if reason := checkReferer(r, opts.TrustedOrigins); reason != "" {
			return reason
		}
	}

	if secret == "" {
		return reasonNoCookie
	}

	token := r.Header.Get(CSRFHeader)
	if token == "" && isFormPost(r) {
		token = r.PostFormValue(CSRFFormField)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return reasonMissingToken
	}
	if len(token) != csrfSecretLength && len(token) != csrfTokenLength {
		return reasonBadLength
	}
	if !onlyAllowedChars(token) {
		return reasonBadChars
	}
	if len(token) == csrfTokenLength {
		token = unmaskToken(token)
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return reasonIncorrectToken
	}
	return ""
}

func checkReferer(r *http.Request, trusted []string) string {
	raw := r.Header.Get("Referer")
	if raw == "" {
		return reasonNoReferer
	}
	ref, err := url.Parse(raw)
	if err != nil || ref.Scheme == "" || ref.Host == "" {
		return reasonMalformedReferer
	}
	if ref.Scheme != "https" {
		return reasonInsecureReferer
	}
	if strings.EqualFold(ref.Host, r.Host) {
		return ""
	}
	if originTrusted("https://"+ref.Host, "", trusted) {
		return ""
	}
	return fmt.Sprintf(reasonBadReferer, raw)
}

func requestOrigin(r *http.Request, secure bool) string {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return scheme + "://" + strings.ToLower(r.Host)
}

// originTrusted matches origin against the request's own origin and the
// trusted patterns. A pattern host of "*.example.com" admits example.com and
// any of its subdomains.
func originTrusted(origin, self string, trusted []string) bool {
	origin = strings.ToLower(origin)
	if self != "" && origin == self {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	for _, t := range trusted {
		tu, err := url.Parse(strings.ToLower(t))
		if err != nil || tu.Scheme != u.Scheme {
			continue
		}
		if strings.HasPrefix(tu.Host, "*.") {
			if u.Host == tu.Host[2:] || strings.HasSuffix(u.Host, tu.Host[1:]) {
				return true
			}
			continue
		}
		if tu.Host == u.Host {
			return true
		}
	}
	return false
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func exempt(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func isFormPost(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}

func validSecret(s string) bool {
	return len(s) == csrfSecretLength && onlyAllowedChars(s)
}

func onlyAllowedChars(s string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(csrfAllowedChars, s[i]) < 0 {
			return false
		}
	}
	return true
}

func randomCSRFString(n int) string {
	max := big.NewInt(int64(len(csrfAllowedChars)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("csrf: reading random bytes: %v", err))
		}
		b[i] = csrfAllowedChars[idx.Int64()]
	}
	return string(b)
}

// maskSecret returns mask+cipher so the page token changes on every
// response while still unmasking to the same secret.
func maskSecret(secret string) string {
	mask := randomCSRFString(csrfSecretLength)
	n := len(csrfAllowedChars)
	cipher := make([]byte, csrfSecretLength)
	for i := 0; i < csrfSecretLength; i++ {
		x := strings.IndexByte(csrfAllowedChars, secret[i])
		y := strings.IndexByte(csrfAllowedChars, mask[i])
		cipher[i] = csrfAllowedChars[(x+y)%n]
	}
	return mask + string(cipher)
}

func unmaskToken(token string) string {
	mask, cipher := token[:csrfSecretLength], token[csrfSecretLength:]
	n := len(csrfAllowedChars)
	secret := make([]byte, csrfSecretLength)
	for i := 0; i < csrfSecretLength; i++ {
		x := strings.IndexByte(csrfAllowedChars, cipher[i])
		y := strings.IndexByte(csrfAllowedChars, mask[i])
		secret[i] = csrfAllowedChars[(x-y+n)%n]
	}
	return string(secret)
}
