package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/roughness.report/internal/surface"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONOK(rec, map[string]int{"count": 3})

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}

	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["count"] != 3 {
		t.Errorf("count = %d, want 3", body["count"])
	}
}

func TestWriteAnalysisError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantKind string
	}{
		{"insufficient data", &surface.InsufficientDataError{Op: "FitPlane", Rows: 1, Cols: 5}, "insufficient_data"},
		{"degenerate geometry", &surface.DegenerateGeometryError{Op: "FitPlane", Reason: "dx must be positive"}, "degenerate_geometry"},
		{"degenerate surface", &surface.DegenerateSurfaceError{Metric: "Ssk"}, "degenerate_surface"},
		{"malformed grid", &surface.MalformedGridError{Reason: "grid has no cells"}, "malformed_grid"},
		{"wrapped", fmt.Errorf("scan.txt: %w", &surface.MalformedGridError{Reason: "ragged"}), "malformed_grid"},
		{"parse error", errors.New("expected x,y,z triplets"), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAnalysisError(rec, tc.err)

			if rec.Code != 422 {
				t.Errorf("status = %d, want 422", rec.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body.Kind != tc.wantKind {
				t.Errorf("kind = %q, want %q", body.Kind, tc.wantKind)
			}
			if body.Error == "" {
				t.Error("error message missing from body")
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	cases := []struct {
		name string
		fn   func(*httptest.ResponseRecorder)
		want int
	}{
		{"bad request", func(r *httptest.ResponseRecorder) { BadRequest(r, "nope") }, 400},
		{"not found", func(r *httptest.ResponseRecorder) { NotFound(r, "missing") }, 404},
		{"method not allowed", func(r *httptest.ResponseRecorder) { MethodNotAllowed(r) }, 405},
		{"internal error", func(r *httptest.ResponseRecorder) { InternalServerError(r, "boom") }, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.fn(rec)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body["error"] == "" {
				t.Error("error message missing from body")
			}
		})
	}
}
