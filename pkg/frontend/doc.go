// Package frontend serves the single-page application entry point.
//
// The site root renders one template, index.html, looked up along the
// template search path (the project's frontend directory). Templates
// receive a PageContext:
//
//	<form method="post">{{ .CSRFInput }}</form>
//	{{ range .Messages }}<p class="{{ .Tags }}">{{ .Text }}</p>{{ end }}
//	<script src="{{ static "app.js" }}"></script>
//
// Parsed templates are cached in an LRU. With DEBUG on the cache is
// bypassed; otherwise a Watcher purges it when files change on disk.
package frontend
