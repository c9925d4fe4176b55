// Package surface computes areal roughness parameters from profilometer
// height grids. The pipeline is: build a HeightGrid, remove the best-fit
// reference plane with Detrend, then evaluate the S-family metrics on the
// residual grid. All operations are pure; grids are never mutated in place.
package surface

import (
	"fmt"
	"math"
)

// SampleSteps holds the uniform physical spacing between adjacent grid
// columns (Dx) and rows (Dy). Both must be positive; the grid is assumed
// uniformly sampled along each axis. Units match the height units
// (micrometres throughout this codebase).
type SampleSteps struct {
	Dx float64
	Dy float64
}

// HeightGrid is an immutable rectangular grid of surface heights, row-major
// by scan line: element (i, j) is the height at row i (y = i*Dy) and
// column j (x = j*Dx).
type HeightGrid struct {
	rows int
	cols int
	data []float64 // row-major, len == rows*cols
}

// NewHeightGrid builds a HeightGrid from row slices. The input is copied,
// so the caller may reuse its backing storage. Returns a
// MalformedGridError if the input is empty, ragged, or holds a non-finite
// height; every metric would otherwise propagate that cell as a silent
// NaN or Inf.
func NewHeightGrid(rows [][]float64) (*HeightGrid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &MalformedGridError{Reason: "grid has no cells"}
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, &MalformedGridError{
				Reason: fmt.Sprintf("row %d has %d columns, want %d", i, len(row), cols),
			}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &MalformedGridError{
					Reason: fmt.Sprintf("cell (%d, %d) is not a finite height", i, j),
				}
			}
		}
		data = append(data, row...)
	}
	return &HeightGrid{rows: len(rows), cols: cols, data: data}, nil
}

// newGridFromData wraps an already-validated row-major slice without
// copying. Internal constructor for derived grids.
func newGridFromData(rows, cols int, data []float64) *HeightGrid {
	return &HeightGrid{rows: rows, cols: cols, data: data}
}

// Rows returns the number of scan lines (Ny).
func (g *HeightGrid) Rows() int { return g.rows }

// Cols returns the number of points per scan line (Nx).
func (g *HeightGrid) Cols() int { return g.cols }

// Cells returns the total cell count Ny*Nx.
func (g *HeightGrid) Cells() int { return g.rows * g.cols }

// At returns the height at row i, column j.
func (g *HeightGrid) At(i, j int) float64 {
	return g.data[i*g.cols+j]
}

// Row returns a copy of row i.
func (g *HeightGrid) Row(i int) []float64 {
	out := make([]float64, g.cols)
	copy(out, g.data[i*g.cols:(i+1)*g.cols])
	return out
}

// Col returns a copy of column j.
func (g *HeightGrid) Col(j int) []float64 {
	out := make([]float64, g.rows)
	for i := 0; i < g.rows; i++ {
		out[i] = g.data[i*g.cols+j]
	}
	return out
}

// heights exposes the backing slice to sibling functions in this package.
// Callers must not modify it.
func (g *HeightGrid) heights() []float64 { return g.data }

// validate is the shared metric precondition: a usable grid with at least
// one cell. Construction already guarantees this for grids built through
// NewHeightGrid; nil grids from careless callers are caught here.
func validate(op string, g *HeightGrid) error {
	if g == nil || len(g.data) == 0 {
		return &MalformedGridError{Reason: op + " requires a non-empty grid"}
	}
	return nil
}
