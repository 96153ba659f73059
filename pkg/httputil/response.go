package httputil

import (
	"encoding/json"
	"net/http"
)

// Problem is the JSON error body used under /api/ and /admin/. The shape
// matches what the employees API returns for its own errors, so clients
// handle one format.
type Problem struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// WriteJSON encodes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteProblem writes a Problem body
func WriteProblem(w http.ResponseWriter, status int, code, detail string) {
	WriteJSON(w, status, Problem{Detail: detail, Code: code})
}
