package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+":pre")
				next.ServeHTTP(w, r)
				order = append(order, name+":post")
			})
		}
	}

	h := Chain(mark("a"), mark("b"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, []string{"a:pre", "b:pre", "handler", "b:post", "a:post"}, order)
}

func TestBeforeHeaders(t *testing.T) {
	t.Run("runs before the handler writes", func(t *testing.T) {
		rr := httptest.NewRecorder()
		calls := 0
		ww, finish := BeforeHeaders(rr, func(h http.Header) {
			calls++
			h.Set("X-Hook", "yes")
		})

		ww.WriteHeader(http.StatusCreated)
		ww.Write([]byte("body"))
		finish()

		assert.Equal(t, 1, calls)
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "yes", rr.Header().Get("X-Hook"))
	})

	t.Run("sees headers set by the handler", func(t *testing.T) {
		rr := httptest.NewRecorder()
		var seen string
		ww, finish := BeforeHeaders(rr, func(h http.Header) {
			seen = h.Get("Content-Type")
		})

		ww.Header().Set("Content-Type", "text/plain")
		ww.Write([]byte("x"))
		finish()

		assert.Equal(t, "text/plain", seen)
	})

	t.Run("finish runs the hook when nothing was written", func(t *testing.T) {
		rr := httptest.NewRecorder()
		calls := 0
		_, finish := BeforeHeaders(rr, func(h http.Header) { calls++ })

		finish()
		finish()

		assert.Equal(t, 1, calls)
	})
}
