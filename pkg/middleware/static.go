package middleware

import (
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	immutableCacheControl = "max-age=315360000, public, immutable"
	defaultCacheControl   = "max-age=60, public"
)

// hashedName matches collected assets carrying a content hash, e.g. app.3f2a9c1b.js
var hashedName = regexp.MustCompile(`\.[0-9a-f]{8,32}\.\w+$`)

// StaticOptions configures Static
type StaticOptions struct {
	URL  string   // URL prefix, e.g. /static/
	Dirs []string // searched in order
}

// Static serves GET and HEAD requests under opts.URL from the first
// directory holding the file. A precompressed .gz sibling is preferred when
// the client accepts gzip. Misses fall through to next.
func Static(opts StaticOptions) func(http.Handler) http.Handler {
	dirs := make([]http.Dir, 0, len(opts.Dirs))
	for _, d := range opts.Dirs {
		dirs = append(dirs, http.Dir(d))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if (r.Method != http.MethodGet && r.Method != http.MethodHead) ||
				!strings.HasPrefix(r.URL.Path, opts.URL) {
				next.ServeHTTP(w, r)
				return
			}

			name := path.Clean("/" + strings.TrimPrefix(r.URL.Path, opts.URL))
			if name == "/" || strings.HasSuffix(name, ".gz") {
				next.ServeHTTP(w, r)
				return
			}

			for _, dir := range dirs {
				if serveStatic(w, r, dir, name) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func serveStatic(w http.ResponseWriter, r *http.Request, dir http.Dir, name string) bool {
	f, err := dir.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	h := w.Header()
	h.Add("Vary", "Accept-Encoding")
	if hashedName.MatchString(name) {
		h.Set("Cache-Control", immutableCacheControl)
	} else {
		h.Set("Cache-Control", defaultCacheControl)
	}

	if acceptsGzip(r) {
		if gz, err := dir.Open(name + ".gz"); err == nil {
			defer gz.Close()
			if gzInfo, err := gz.Stat(); err == nil && !gzInfo.IsDir() {
				ctype := mime.TypeByExtension(filepath.Ext(name))
				if ctype == "" {
					ctype = "application/octet-stream"
				}
				h.Set("Content-Type", ctype)
				h.Set("Content-Encoding", "gzip")
				http.ServeContent(w, r, name, info.ModTime(), gz)
				return true
			}
		}
	}

	http.ServeContent(w, r, name, info.ModTime(), f)
	return true
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		return strings.ReplaceAll(params, " ", "") != "q=0"
	}
	return false
}
