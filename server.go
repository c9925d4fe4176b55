package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/banshee-data/roughness.report/internal/analysis"
	"github.com/banshee-data/roughness.report/internal/db"
	"github.com/banshee-data/roughness.report/internal/httputil"
	"github.com/banshee-data/roughness.report/internal/report"
	"github.com/banshee-data/roughness.report/internal/scanfile"
	"github.com/banshee-data/roughness.report/internal/surface"
	"github.com/banshee-data/roughness.report/internal/units"
)

// Server exposes stored runs and chart rendering over HTTP. Detrended
// grids are not persisted, so chart endpoints only work for runs analysed
// by this process; earlier runs remain listable from the database.
type Server struct {
	db *db.DB

	mu   sync.Mutex
	runs map[string]runArtifact
}

type runArtifact struct {
	result    *analysis.Result
	detrended *surface.HeightGrid
	steps     surface.SampleSteps
}

func NewServer(database *db.DB) *Server {
	return &Server{
		db:   database,
		runs: make(map[string]runArtifact),
	}
}

// AddRun registers an analysed run so its detrended surface can be
// rendered by the chart endpoints.
func (s *Server) AddRun(res *analysis.Result, detrended *surface.HeightGrid, steps surface.SampleSteps) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[res.RunID] = runArtifact{result: res, detrended: detrended, steps: steps}
}

func (s *Server) artifact(runID string) (runArtifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.runs[runID]
	return a, ok
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Welcome to the Surface Roughness Server!"))
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homeHandler)
	mux.HandleFunc("/api/analyze", s.analyzeScan)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/run", s.getRun)
	mux.HandleFunc("/report/heatmap", s.heatmapHandler)
	mux.HandleFunc("/report/profile", s.profileHandler)
	return mux
}

// maxScanBytes caps uploaded scan exports. The largest instrument
// exports seen are a few tens of MB of text.
const maxScanBytes = 64 << 20

// analyzeScan runs the full pipeline on a scan export POSTed as the
// request body, records the run, and returns the result. The optional
// filename query parameter labels the run.
func (s *Server) analyzeScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "upload"
	}

	scan, err := scanfile.Parse(http.MaxBytesReader(w, r.Body, maxScanBytes), filename)
	if err != nil {
		httputil.WriteAnalysisError(w, err)
		return
	}
	res, detrended, err := analysis.AnalyzeDetrended(scan)
	if err != nil {
		httputil.WriteAnalysisError(w, err)
		return
	}
	if err := s.db.RecordRun(res); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to record run: %v", err))
		return
	}
	s.AddRun(res, detrended, scan.Steps())
	httputil.WriteJSONOK(w, res)
}

// listRuns returns stored runs, newest first. Query params:
//   - limit (optional; default 100)
//   - units (optional; um, nm or mm; heights converted on the way out)
func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 1 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = v
	}
	targetUnits, ok := requestedUnits(w, r)
	if !ok {
		return
	}

	runs, err := s.db.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	for i := range runs {
		convertHeights(&runs[i], targetUnits)
	}
	httputil.WriteJSONOK(w, map[string]any{"runs": runs, "units": targetUnits})
}

// getRun returns one stored run by run_id.
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		httputil.BadRequest(w, "run_id is required")
		return
	}
	targetUnits, ok := requestedUnits(w, r)
	if !ok {
		return
	}

	res, err := s.db.GetRun(runID)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.NotFound(w, "no such run")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load run: %v", err))
		return
	}
	convertHeights(res, targetUnits)
	httputil.WriteJSONOK(w, res)
}

// heatmapHandler renders the detrended surface of a resident run as an
// HTML heatmap.
func (s *Server) heatmapHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	a, ok := s.artifact(r.URL.Query().Get("run_id"))
	if !ok {
		httputil.NotFound(w, "run not resident; re-analyse the scan to render charts")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderHeatmap(w, a.result, a.detrended); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
	}
}

// profileHandler renders one cross-section of a resident run as a PNG.
// Query params: run_id, axis (row|col, default row), index (default
// centre line).
func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	a, ok := s.artifact(r.URL.Query().Get("run_id"))
	if !ok {
		httputil.NotFound(w, "run not resident; re-analyse the scan to render charts")
		return
	}

	axis := r.URL.Query().Get("axis")
	if axis == "" {
		axis = "row"
	}
	index := a.detrended.Rows() / 2
	if axis == "col" {
		index = a.detrended.Cols() / 2
	}
	if idx := r.URL.Query().Get("index"); idx != "" {
		v, err := strconv.Atoi(idx)
		if err != nil || v < 0 {
			httputil.BadRequest(w, "index must be a non-negative integer")
			return
		}
		index = v
	}

	w.Header().Set("Content-Type", "image/png")
	if err := report.WriteProfilePNG(w, a.detrended, a.steps, axis, index); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render profile: %v", err))
	}
}

// requestedUnits parses the units query parameter, writing a 400 response
// and returning ok=false when it is invalid.
func requestedUnits(w http.ResponseWriter, r *http.Request) (string, bool) {
	target := r.URL.Query().Get("units")
	if target == "" {
		return units.UM, true
	}
	if !units.IsValid(target) {
		httputil.BadRequest(w, "invalid units, must be one of: "+units.GetValidUnitsString())
		return "", false
	}
	return target, true
}

// convertHeights converts every height-valued field of a result from
// micrometres to the target units. Steps, plane slopes (ratios) and the
// dimensionless moments are unaffected.
func convertHeights(res *analysis.Result, targetUnits string) {
	if targetUnits == units.UM {
		return
	}
	res.Sa = units.ConvertHeight(res.Sa, targetUnits)
	res.Sq = units.ConvertHeight(res.Sq, targetUnits)
	res.Sz = units.ConvertHeight(res.Sz, targetUnits)
	res.Sp = units.ConvertHeight(res.Sp, targetUnits)
	res.Sv = units.ConvertHeight(res.Sv, targetUnits)
	res.PlaneC = units.ConvertHeight(res.PlaneC, targetUnits)
}
