package frontend

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
)

// ErrTemplateNotFound is returned when no search directory holds the template
var ErrTemplateNotFound = errors.New("template not found")

// NotFoundError names the template and every location that was tried
type NotFoundError struct {
	Name  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s (tried %s)", ErrTemplateNotFound, e.Name, strings.Join(e.Tried, ", "))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrTemplateNotFound }

// RendererOptions configures a Renderer
type RendererOptions struct {
	Dirs      []string // searched in order
	CacheSize int
	// NoCache parses templates on every render, so edits show up at once
	NoCache   bool
	StaticURL string
	Metrics   *observability.Metrics
}

// Renderer loads html/templates from an ordered list of directories and
// caches parsed templates in an LRU keyed by template name.
type Renderer struct {
	dirs      []string
	cache     *lru.LRU[string, *template.Template]
	noCache   bool
	staticURL string
	metrics   *observability.Metrics
	mu        sync.Mutex // serializes parsing of a missing entry
}

// NewRenderer creates a renderer
func NewRenderer(opts RendererOptions) *Renderer {
	size := opts.CacheSize
	if size < 1 {
		size = 1
	}
	dirs := make([]string, len(opts.Dirs))
	copy(dirs, opts.Dirs)

	return &Renderer{
		dirs:      dirs,
		cache:     lru.NewLRU[string, *template.Template](size, nil, 0),
		noCache:   opts.NoCache,
		staticURL: opts.StaticURL,
		metrics:   opts.Metrics,
	}
}

// Dirs returns the template search path
func (r *Renderer) Dirs() []string {
	out := make([]string, len(r.dirs))
	copy(out, r.dirs)
	return out
}

// Lookup returns the parsed template for name
func (r *Renderer) Lookup(name string) (*template.Template, error) {
	if !r.noCache {
		if t, ok := r.cache.Get(name); ok {
			r.countHit()
			return t, nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.noCache {
		if t, ok := r.cache.Get(name); ok {
			r.countHit()
			return t, nil
		}
	}
	r.countMiss()

	file, err := r.find(name)
	if err != nil {
		return nil, err
	}

	t, err := template.New(path.Base(name)).Funcs(r.funcs()).ParseFiles(file)
	if err != nil {
		r.countError(name, "parse")
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	if !r.noCache {
		r.cache.Add(name, t)
	}
	return t, nil
}

// Render executes name with data into w. Output is buffered, so a failing
// template never produces a partial response.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	buf, err := r.execute(name, data)
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

func (r *Renderer) execute(name string, data interface{}) (*bytes.Buffer, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		r.countError(name, "execute")
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf, nil
}

// Purge drops every cached template
func (r *Renderer) Purge() {
	r.cache.Purge()
}

// Cached reports how many templates are cached
func (r *Renderer) Cached() int {
	return r.cache.Len()
}

func (r *Renderer) find(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return "", &NotFoundError{Name: name}
	}

	tried := make([]string, 0, len(r.dirs))
	for _, dir := range r.dirs {
		candidate := filepath.Join(dir, rel)
		tried = append(tried, candidate)
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", &NotFoundError{Name: name, Tried: tried}
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"static": func(p string) string {
			return r.staticURL + strings.TrimPrefix(p, "/")
		},
	}
}

func (r *Renderer) countHit() {
	if r.metrics != nil {
		r.metrics.TemplateCacheHitsTotal.Inc()
	}
}

func (r *Renderer) countMiss() {
	if r.metrics != nil {
		r.metrics.TemplateCacheMissesTotal.Inc()
	}
}

func (r *Renderer) countError(name, reason string) {
	if r.metrics != nil {
		r.metrics.TemplateRenderErrors.WithLabelValues(name, reason).Inc()
	}
}
