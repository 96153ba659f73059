package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/hrms-lite/pkg/httputil"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
)

// Route names of the default table, also used as metrics labels
const (
	IndexRoute = "index"
	AdminRoute = "admin"
	APIRoute   = "api"

	// UnmatchedRoute labels requests no entry matched
	UnmatchedRoute = "unmatched"
)

// MatchKind selects how an entry's pattern is compared to the request path
type MatchKind int

const (
	// Exact matches the pattern and nothing else
	Exact MatchKind = iota
	// Prefix matches every path starting with the pattern
	Prefix
)

func (k MatchKind) String() string {
	if k == Prefix {
		return "prefix"
	}
	return "exact"
}

// Entry binds a path pattern to a handler. A Prefix entry delegates a whole
// subtree; its handler sees the unmodified request path and may itself be
// a Table.
type Entry struct {
	Name    string
	Pattern string
	Kind    MatchKind
	Handler http.Handler
}

// Options configures a Table
type Options struct {
	// AppendSlash redirects GET and HEAD requests for /x to /x/ when only
	// the latter matches.
	AppendSlash bool
	// Debug lists the tried patterns on the 404 page
	Debug bool
}

// Table is an ordered, immutable route table. Entries are tried in
// declaration order and the first match wins.
type Table struct {
	router  *mux.Router
	entries []Entry
	byName  map[string]Entry
	opts    Options
}

// New builds a table from entries, in order
func New(entries []Entry, opts Options) (*Table, error) {
	t := &Table{
		// paths are matched as sent; "//" is not "/"
		router:  mux.NewRouter().SkipClean(true),
		entries: make([]Entry, 0, len(entries)),
		byName:  make(map[string]Entry, len(entries)),
		opts:    opts,
	}

	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if err := validate(e); err != nil {
			return nil, fmt.Errorf("route %d (%q): %w", i, e.Name, err)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, fmt.Errorf("route %d: duplicate name %q", i, e.Name)
		}
		key := e.Kind.String() + " " + e.Pattern
		if seen[key] {
			return nil, fmt.Errorf("route %d (%q): pattern %s is already bound", i, e.Name, e.Pattern)
		}
		seen[key] = true

		var route *mux.Route
		if e.Kind == Prefix {
			route = t.router.PathPrefix(e.Pattern)
		} else {
			route = t.router.Path(e.Pattern)
		}
		route.Name(e.Name).Handler(e.Handler)

		t.entries = append(t.entries, e)
		t.byName[e.Name] = e
	}

	t.router.NotFoundHandler = http.HandlerFunc(t.notFound)
	return t, nil
}

func validate(e Entry) error {
	switch {
	case e.Name == "":
		return fmt.Errorf("name is required")
	case e.Handler == nil:
		return fmt.Errorf("handler is required")
	case !strings.HasPrefix(e.Pattern, "/"):
		return fmt.Errorf("pattern %q must start with '/'", e.Pattern)
	case strings.ContainsAny(e.Pattern, "{}"):
		return fmt.Errorf("pattern %q must be literal", e.Pattern)
	case e.Kind == Prefix && !strings.HasSuffix(e.Pattern, "/"):
		return fmt.Errorf("prefix pattern %q must end with '/'", e.Pattern)
	}
	return nil
}

// ServeHTTP dispatches r to the first matching entry
func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.router.ServeHTTP(w, r)
}

// Match returns the entry that would serve r
func (t *Table) Match(r *http.Request) (Entry, bool) {
	var m mux.RouteMatch
	// mux reports a match for its NotFoundHandler too, with no Route set
	if !t.router.Match(r, &m) || m.Route == nil {
		return Entry{}, false
	}
	e, ok := t.byName[m.Route.GetName()]
	return e, ok
}

// RouteName returns the name of the entry serving r, or UnmatchedRoute
func (t *Table) RouteName(r *http.Request) string {
	if e, ok := t.Match(r); ok {
		return e.Name
	}
	return UnmatchedRoute
}

// Entries returns a copy of the entries in match order
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Table) notFound(w http.ResponseWriter, r *http.Request) {
	if t.opts.AppendSlash && (r.Method == http.MethodGet || r.Method == http.MethodHead) &&
		!strings.HasSuffix(r.URL.Path, "/") {
		slashed := r.Clone(r.Context())
		slashed.URL.Path += "/"
		slashed.URL.RawPath = ""
		if _, ok := t.Match(slashed); ok {
			target := slashed.URL.Path
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}
	}

	observability.FromContext(r.Context()).
		WithFields(map[string]interface{}{"method": r.Method, "path": r.URL.Path}).
		Debug("no route matched")

	httputil.WriteNotFoundPage(w, t.describe(r), t.opts.Debug)
}

func (t *Table) describe(r *http.Request) string {
	var b strings.Builder
	b.WriteString("Tried these URL patterns, in this order:\n")
	for i, e := range t.entries {
		fmt.Fprintf(&b, "%d. %s [%s, name=%q]\n", i+1, e.Pattern, e.Kind, e.Name)
	}
	fmt.Fprintf(&b, "The current path, %s, didn't match any of these.", r.URL.Path)
	return b.String()
}
