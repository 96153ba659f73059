package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/platinummonkey/hrms-lite/pkg/httputil"
	"github.com/platinummonkey/hrms-lite/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionPipeline(handler http.Handler) http.Handler {
	store := session.NewCookieStore(session.Options{
		CookieName: "sessionid",
		MaxAge:     time.Hour,
		SecretKey:  "pipeline-secret",
	})
	return httputil.Chain(
		Sessions(store, "sessionid"),
		Authentication,
		Messages,
	)(handler)
}

func TestSessions_SavesOnlyWhenModified(t *testing.T) {
	h := newSessionPipeline(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("write") != "" {
			session.FromContext(r.Context()).Set("seen", "yes")
		}
		w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rr.Result().Cookies())
	assert.Empty(t, rr.Header().Get("Vary"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?write=1", nil))
	require.Len(t, rr.Result().Cookies(), 1)
	assert.Equal(t, "sessionid", rr.Result().Cookies()[0].Name)
	assert.Equal(t, "Cookie", rr.Header().Get("Vary"))
}

func TestAuthentication_ResolvesUser(t *testing.T) {
	var user *session.User
	h := newSessionPipeline(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			session.Login(session.FromContext(r.Context()), &session.User{ID: "7", Username: "grace"})
		}
		user = session.UserFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.False(t, user.IsAuthenticated(), "user resolves before the handler logs in")
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, user.IsAuthenticated())
	assert.Equal(t, "grace", user.Username)
}

func TestMessages_FlashAcrossRequests(t *testing.T) {
	var got []session.Message
	h := newSessionPipeline(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/add":
			session.AddMessage(r.Context(), session.LevelSuccess, "Employee saved")
			http.Redirect(w, r, "/", http.StatusFound)
		default:
			got = session.MessagesFromContext(r.Context()).Messages()
		}
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/add", nil))
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Len(t, got, 1)
	assert.Equal(t, "Employee saved", got[0].Text)

	// reading the messages emptied the session, so the cookie is cleared
	cleared := rr.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}
