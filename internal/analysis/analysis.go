// Package analysis wires scan ingestion into the surface pipeline and
// bundles the full metric family for one scan into a single result record.
package analysis

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/roughness.report/internal/scanfile"
	"github.com/banshee-data/roughness.report/internal/surface"
	"github.com/banshee-data/roughness.report/internal/timeutil"
)

// Clock stamps results with their creation time. Tests swap in a
// timeutil.MockClock to pin timestamps.
var Clock timeutil.Clock = timeutil.RealClock{}

// Result holds everything computed for one scan: the removed plane, the
// roughness parameters from the detrended grid, and enough metadata to
// reproduce the run. Heights are micrometres.
type Result struct {
	RunID    string  `json:"run_id"`
	Filename string  `json:"filename"`
	Nx       int     `json:"nx"`
	Ny       int     `json:"ny"`
	Dx       float64 `json:"dx"`
	Dy       float64 `json:"dy"`

	PlaneA float64 `json:"plane_a"`
	PlaneB float64 `json:"plane_b"`
	PlaneC float64 `json:"plane_c"`

	Sa  float64 `json:"sa"`
	Sq  float64 `json:"sq"`
	Sz  float64 `json:"sz"`
	Sp  float64 `json:"sp"`
	Sv  float64 `json:"sv"`
	Ssk float64 `json:"ssk"`
	Sku float64 `json:"sku"`
	// A perfectly flat detrended surface has no defined Ssk/Sku; the
	// values above are zero and this flag records why.
	DegenerateMoments bool `json:"degenerate_moments,omitempty"`

	CreatedUnixNanos int64 `json:"created_unix_nanos"`
}

// Analyze detrends the scan's height grid once and evaluates the full
// S-parameter family on the shared detrended grid. A zero-variance
// detrended surface is not an error at this level: Sa through Sv are still
// meaningful (all zero) and the undefined moments are flagged instead.
func Analyze(scan *scanfile.Scan) (*Result, error) {
	res, _, err := AnalyzeDetrended(scan)
	return res, err
}

// AnalyzeDetrended is Analyze but also returns the detrended grid, for
// callers that render the residual surface afterwards.
func AnalyzeDetrended(scan *scanfile.Scan) (*Result, *surface.HeightGrid, error) {
	detrended, plane, err := surface.DetrendWithPlane(scan.ZData, scan.Steps())
	if err != nil {
		return nil, nil, fmt.Errorf("analyze %s: %w", scan.Filename, err)
	}
	res := &Result{
		RunID:            uuid.New().String(),
		Filename:         scan.Filename,
		Nx:               scan.Counts[0],
		Ny:               scan.Counts[1],
		Dx:               scan.Incs[0],
		Dy:               scan.Incs[1],
		PlaneA:           plane.A,
		PlaneB:           plane.B,
		PlaneC:           plane.C,
		CreatedUnixNanos: Clock.Now().UnixNano(),
	}

	metrics := []struct {
		fn  func(*surface.HeightGrid) (float64, error)
		dst *float64
	}{
		{surface.Sa, &res.Sa},
		{surface.Sq, &res.Sq},
		{surface.Sz, &res.Sz},
		{surface.Sp, &res.Sp},
		{surface.Sv, &res.Sv},
	}
	for _, m := range metrics {
		v, err := m.fn(detrended)
		if err != nil {
			return nil, nil, fmt.Errorf("analyze %s: %w", scan.Filename, err)
		}
		*m.dst = v
	}

	res.Ssk, err = surface.Ssk(detrended)
	if err == nil {
		res.Sku, err = surface.Sku(detrended)
	}
	if err != nil {
		var degenerate *surface.DegenerateSurfaceError
		if !errors.As(err, &degenerate) {
			return nil, nil, fmt.Errorf("analyze %s: %w", scan.Filename, err)
		}
		res.Ssk, res.Sku = 0, 0
		res.DegenerateMoments = true
	}

	return res, detrended, nil
}

// AnalyzeGrid is Analyze for callers that already hold a grid and steps
// rather than a parsed scan file.
func AnalyzeGrid(grid *surface.HeightGrid, steps surface.SampleSteps, name string) (*Result, error) {
	return Analyze(&scanfile.Scan{
		Filename: name,
		Counts:   [2]int{grid.Cols(), grid.Rows()},
		Incs:     [2]float64{steps.Dx, steps.Dy},
		ZData:    grid,
	})
}
