// Package httputil holds shared JSON response helpers for HTTP handlers,
// including the mapping from the surface error taxonomy to response codes.
package httputil

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/banshee-data/roughness.report/internal/surface"
)

// ErrorResponse is the JSON body of every error response. Kind carries a
// machine-readable label for the core failure modes so clients can branch
// without parsing the message.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// WriteJSONError writes a JSON error response with the given status code and message.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	writeError(w, status, ErrorResponse{Error: msg})
}

func writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode json error response: %v", err)
	}
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

// WriteJSONOK writes a successful JSON response (200 OK).
func WriteJSONOK(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// MethodNotAllowed writes a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter) {
	WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// BadRequest writes a 400 Bad Request response with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusBadRequest, msg)
}

// InternalServerError writes a 500 Internal Server Error response.
func InternalServerError(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusInternalServerError, msg)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusNotFound, msg)
}

// WriteAnalysisError writes the error for a scan that could not be
// analysed. Every documented failure mode is the submitted scan's fault,
// so the status is 422; the surface error taxonomy is labelled in Kind.
func WriteAnalysisError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error: err.Error(),
		Kind:  errorKind(err),
	})
}

func errorKind(err error) string {
	var (
		insufficient *surface.InsufficientDataError
		geometry     *surface.DegenerateGeometryError
		degenerate   *surface.DegenerateSurfaceError
		malformed    *surface.MalformedGridError
	)
	switch {
	case errors.As(err, &insufficient):
		return "insufficient_data"
	case errors.As(err, &geometry):
		return "degenerate_geometry"
	case errors.As(err, &degenerate):
		return "degenerate_surface"
	case errors.As(err, &malformed):
		return "malformed_grid"
	}
	return ""
}
