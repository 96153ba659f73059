package middleware

import (
	"bytes"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/platinummonkey/hrms-lite/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
})

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetRequestID(r.Context())
	}))

	t.Run("generates one", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	})

	t.Run("keeps a valid incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-123")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "upstream-123", seen)
	})

	t.Run("replaces a malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "has space")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.NotEqual(t, "has space", seen)
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.InfoLevel, &buf)

	h := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observability.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/employees/", nil))

	out := buf.String()
	assert.Contains(t, out, `"message":"inside handler"`)
	assert.Contains(t, out, `"message":"request rejected"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/api/employees/"`)
	assert.Equal(t, 2, strings.Count(out, `"request_id"`))
}

func TestRecovery(t *testing.T) {
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("employee table exploded")
	})

	t.Run("hides the panic outside debug", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Recovery(false)(boom).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "exploded")
	})

	t.Run("shows the panic in debug", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Recovery(true)(boom).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "employee table exploded")
	})

	t.Run("re-panics on abort", func(t *testing.T) {
		abort := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		})
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			Recovery(false)(abort).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

func TestSecurity(t *testing.T) {
	t.Run("sets baseline headers", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Security(SecurityOptions{HSTSSeconds: 3600})(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "same-origin", rr.Header().Get("Referrer-Policy"))
		assert.Equal(t, "same-origin", rr.Header().Get("Cross-Origin-Opener-Policy"))
		assert.Empty(t, rr.Header().Get("Strict-Transport-Security"), "no HSTS over plain http")
	})

	t.Run("HSTS on TLS", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.TLS = &tls.ConnectionState{}
		rr := httptest.NewRecorder()
		Security(SecurityOptions{HSTSSeconds: 3600})(okHandler).ServeHTTP(rr, req)
		assert.Equal(t, "max-age=3600", rr.Header().Get("Strict-Transport-Security"))
	})

	t.Run("keeps handler header", func(t *testing.T) {
		h := Security(SecurityOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "no-referrer")
		}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "no-referrer", rr.Header().Get("Referrer-Policy"))
	})

	t.Run("ssl redirect", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Security(SecurityOptions{SSLRedirect: true})(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://hr.example.com/a?b=1", nil))
		assert.Equal(t, http.StatusMovedPermanently, rr.Code)
		assert.Equal(t, "https://hr.example.com/a?b=1", rr.Header().Get("Location"))
	})

	t.Run("forwarded proto only when trusted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		assert.False(t, IsSecure(req, false))
		assert.True(t, IsSecure(req, true))
	})
}

func TestXFrameOptions(t *testing.T) {
	rr := httptest.NewRecorder()
	XFrameOptions("DENY")(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	rr = httptest.NewRecorder()
	XFrameOptions("DENY")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "SAMEORIGIN", rr.Header().Get("X-Frame-Options"))
}

func TestCORS(t *testing.T) {
	h := CORS(CORSOptions{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
	})(okHandler)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/employees/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "Origin", rr.Header().Get("Vary"))
		assert.Equal(t, "ok", rr.Body.String())
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/employees/", nil)
		req.Header.Set("Origin", "http://localhost:3000.evil.test")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", rr.Header().Get("Vary"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/employees/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "DELETE")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Body.String())
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "DELETE")
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "x-csrftoken")
		assert.Equal(t, "86400", rr.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("plain OPTIONS reaches the handler", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/employees/", nil))
		assert.Equal(t, "ok", rr.Body.String())
	})
}

func TestAllowedHosts(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		debug    bool
		host     string
		want     int
	}{
		{"wildcard", []string{"*"}, false, "anything.test", http.StatusOK},
		{"exact", []string{"hr.example.com"}, false, "hr.example.com:8000", http.StatusOK},
		{"exact mismatch", []string{"hr.example.com"}, false, "evil.test", http.StatusBadRequest},
		{"subdomain pattern root", []string{".example.com"}, false, "example.com", http.StatusOK},
		{"subdomain pattern child", []string{".example.com"}, false, "a.b.example.com", http.StatusOK},
		{"subdomain pattern lookalike", []string{".example.com"}, false, "badexample.com", http.StatusBadRequest},
		{"case insensitive", []string{"HR.example.com"}, false, "hr.EXAMPLE.com", http.StatusOK},
		{"trailing dot", []string{"hr.example.com"}, false, "hr.example.com.", http.StatusOK},
		{"ipv6", []string{"[::1]"}, false, "[::1]:8000", http.StatusOK},
		{"garbage", []string{"*"}, false, "bad host", http.StatusBadRequest},
		{"debug defaults", nil, true, "localhost:8000", http.StatusOK},
		{"debug defaults reject", nil, true, "hr.example.com", http.StatusBadRequest},
		{"empty outside debug", nil, false, "localhost", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			rr := httptest.NewRecorder()
			AllowedHosts(tt.patterns, tt.debug)(okHandler).ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestStatic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.js", "console.log('hr')")
	writeFile(t, root, "app.js.gz", "GZIPPED")
	writeFile(t, root, "app.0123abcd.css", "body{}")

	debugDir := t.TempDir()
	writeFile(t, debugDir, "only-in-source.txt", "source")

	fallthroughHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := Static(StaticOptions{URL: "/static/", Dirs: []string{root, debugDir}})(fallthroughHandler)

	serve := func(path, acceptEncoding string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if acceptEncoding != "" {
			req.Header.Set("Accept-Encoding", acceptEncoding)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	t.Run("plain file", func(t *testing.T) {
		rr := serve("/static/app.js", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "console.log('hr')", rr.Body.String())
		assert.Equal(t, "max-age=60, public", rr.Header().Get("Cache-Control"))
	})

	t.Run("gzip sibling", func(t *testing.T) {
		rr := serve("/static/app.js", "br, gzip")
		assert.Equal(t, "GZIPPED", rr.Body.String())
		assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
		assert.Contains(t, rr.Header().Get("Content-Type"), "javascript")
	})

	t.Run("gzip refused", func(t *testing.T) {
		rr := serve("/static/app.js", "gzip;q=0")
		assert.Empty(t, rr.Header().Get("Content-Encoding"))
	})

	t.Run("hashed name is immutable", func(t *testing.T) {
		rr := serve("/static/app.0123abcd.css", "")
		assert.Equal(t, immutableCacheControl, rr.Header().Get("Cache-Control"))
	})

	t.Run("second directory", func(t *testing.T) {
		assert.Equal(t, "source", serve("/static/only-in-source.txt", "").Body.String())
	})

	t.Run("miss falls through", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve("/static/missing.js", "").Code)
	})

	t.Run("traversal stays inside root", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve("/static/../../etc/passwd", "").Code)
	})

	t.Run("outside prefix falls through", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve("/app.js", "").Code)
	})
}
