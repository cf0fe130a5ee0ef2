// Package response writes the catalog's JSON and plain-text bodies.
//
// Bodies are bare values, not enveloped: a product list is a JSON array,
// an error is {"message": "..."}.
package response

import (
	"encoding/json"
	"net/http"
)

// ContentTypeJSON is sent on every JSON response.
const ContentTypeJSON = "application/json; charset=UTF-8"

type message struct {
	Message string `json:"message"`
}

// JSON encodes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// OK sends a 200 with v as the body.
func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

// Message sends {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, message{Message: msg})
}

// NotFound sends a 404 with msg.
func NotFound(w http.ResponseWriter, msg string) {
	Message(w, http.StatusNotFound, msg)
}

// Error sends a 500 with msg. The cause is logged by the caller, never sent.
func Error(w http.ResponseWriter, msg string) {
	Message(w, http.StatusInternalServerError, msg)
}

// Empty sends status with a JSON content type and no body.
func Empty(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
}

// Text sends a text/plain body.
func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
