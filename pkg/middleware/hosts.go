package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/platinummonkey/hrms-lite/pkg/httputil"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
)

var hostPattern = regexp.MustCompile(`^([a-z0-9.-]+|\[[a-f0-9]*:[a-f0-9.:]+\])(:[0-9]+)?$`)

// debugHosts are accepted in debug mode when no hosts are configured
var debugHosts = []string{".localhost", "127.0.0.1", "[::1]"}

// AllowedHosts rejects requests whose Host header matches none of the
// patterns with 400. A pattern is "*" (anything), ".example.com" (the
// domain and all its subdomains) or an exact host name.
func AllowedHosts(patterns []string, debug bool) func(http.Handler) http.Handler {
	if debug && len(patterns) == 0 {
		patterns = debugHosts
	}
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			domain, ok := SplitHost(r.Host)
			if !ok || !ValidateHost(domain, lowered) {
				observability.FromContext(r.Context()).
					WithField("host", r.Host).
					Warn("rejected request for disallowed host")
				detail := fmt.Sprintf("Invalid HTTP_HOST header: %q.", r.Host)
				if ok {
					detail += fmt.Sprintf(" You may need to add %q to ALLOWED_HOSTS.", domain)
				}
				httputil.WriteBadRequestPage(w, detail, debug)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SplitHost lowercases host, strips the port and a trailing dot, and
// reports whether the result is syntactically valid. IPv6 literals keep
// their brackets.
func SplitHost(host string) (string, bool) {
	host = strings.ToLower(host)
	if !hostPattern.MatchString(host) {
		return "", false
	}
	if strings.HasSuffix(host, "]") {
		return host, true
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.HasPrefix(host, "[") {
		host = host[:i]
	} else if strings.HasPrefix(host, "[") {
		host = host[:strings.LastIndexByte(host, ']')+1]
	}
	return strings.TrimSuffix(host, "."), true
}

// ValidateHost reports whether domain matches any of patterns
func ValidateHost(domain string, patterns []string) bool {
	for _, p := range patterns {
		if matchHost(domain, p) {
			return true
		}
	}
	return false
}

func matchHost(domain, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasPrefix(pattern, ".") {
		return domain == pattern[1:] || strings.HasSuffix(domain, pattern)
	}
	return domain == pattern
}
