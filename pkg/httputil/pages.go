package httputil

import (
	"html/template"
	"net/http"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{with .Message}}<p>{{.}}</p>
{{end}}{{with .Detail}}<pre>{{.}}</pre>
{{end}}</body>
</html>
`))

// Page describes an HTML error page. Detail is only rendered in debug mode.
type Page struct {
	Status  int
	Title   string
	Message string
	Detail  string
}

// WritePage renders p as a minimal HTML document. When debug is false the
// detail section is omitted so internals never leak to clients.
func WritePage(w http.ResponseWriter, p Page, debug bool) {
	if !debug {
		p.Detail = ""
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(p.Status)
	// the status is already sent; a failed write means the client went away
	_ = pageTemplate.Execute(w, p)
}

// WriteNotFoundPage writes the standard 404 page
func WriteNotFoundPage(w http.ResponseWriter, detail string, debug bool) {
	WritePage(w, Page{
		Status:  http.StatusNotFound,
		Title:   "Not Found",
		Message: "The requested resource was not found on this server.",
		Detail:  detail,
	}, debug)
}

// WriteServerErrorPage writes the standard 500 page
func WriteServerErrorPage(w http.ResponseWriter, detail string, debug bool) {
	WritePage(w, Page{
		Status: http.StatusInternalServerError,
		Title:  "Server Error (500)",
		Detail: detail,
	}, debug)
}

// WriteBadRequestPage writes the standard 400 page
func WriteBadRequestPage(w http.ResponseWriter, detail string, debug bool) {
	WritePage(w, Page{
		Status: http.StatusBadRequest,
		Title:  "Bad Request (400)",
		Detail: detail,
	}, debug)
}

// WriteForbiddenPage writes a 403 page with a public message
func WriteForbiddenPage(w http.ResponseWriter, message, detail string, debug bool) {
	WritePage(w, Page{
		Status:  http.StatusForbidden,
		Title:   "Forbidden (403)",
		Message: message,
		Detail:  detail,
	}, debug)
}
