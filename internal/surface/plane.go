package surface

import (
	"gonum.org/v1/gonum/mat"
)

// PlaneModel describes the least-squares reference plane
// z = A*x + B*y + C over the sampled physical coordinates.
type PlaneModel struct {
	A float64 // slope along x (per unit Dx direction)
	B float64 // slope along y (per unit Dy direction)
	C float64 // offset
}

// FitPlane fits a reference plane to the grid by ordinary least squares.
// Each cell contributes one sample at (x, y, z) = (j*steps.Dx, i*steps.Dy,
// grid[i][j]), every cell weighted equally. The system is solved by QR
// factorisation of the full [x y 1] design matrix rather than the 3x3
// normal equations; at profilometer scan sizes either is adequate, QR
// avoids the squared condition number.
//
// Returns an InsufficientDataError when the grid has fewer than two rows
// or columns, and a DegenerateGeometryError when a step size is not
// positive or the system is rank-deficient.
func FitPlane(g *HeightGrid, steps SampleSteps) (PlaneModel, error) {
	const op = "FitPlane"
	if err := validate(op, g); err != nil {
		return PlaneModel{}, err
	}
	if g.rows < 2 || g.cols < 2 {
		return PlaneModel{}, &InsufficientDataError{Op: op, Rows: g.rows, Cols: g.cols}
	}
	if steps.Dx <= 0 {
		return PlaneModel{}, &DegenerateGeometryError{Op: op, Reason: "dx must be positive"}
	}
	if steps.Dy <= 0 {
		return PlaneModel{}, &DegenerateGeometryError{Op: op, Reason: "dy must be positive"}
	}

	n := g.Cells()
	design := mat.NewDense(n, 3, nil)
	z := mat.NewVecDense(n, nil)
	for i := 0; i < g.rows; i++ {
		y := float64(i) * steps.Dy
		for j := 0; j < g.cols; j++ {
			k := i*g.cols + j
			design.Set(k, 0, float64(j)*steps.Dx)
			design.Set(k, 1, y)
			design.Set(k, 2, 1)
			z.SetVec(k, g.data[k])
		}
	}

	var qr mat.QR
	qr.Factorize(design)
	coeffs := mat.NewDense(3, 1, nil)
	if err := qr.SolveTo(coeffs, false, z); err != nil {
		return PlaneModel{}, &DegenerateGeometryError{Op: op, Reason: "least-squares system is rank-deficient"}
	}

	return PlaneModel{
		A: coeffs.At(0, 0),
		B: coeffs.At(1, 0),
		C: coeffs.At(2, 0),
	}, nil
}

// HeightAt evaluates the plane at physical coordinates (x, y).
func (p PlaneModel) HeightAt(x, y float64) float64 {
	return p.A*x + p.B*y + p.C
}

// Detrend fits a reference plane to the grid and returns a new grid of
// residual heights with the plane subtracted at the same physical
// coordinates used for fitting. The input grid is untouched. The mean of
// the returned grid is numerically ~0.
func Detrend(g *HeightGrid, steps SampleSteps) (*HeightGrid, error) {
	plane, err := FitPlane(g, steps)
	if err != nil {
		return nil, err
	}
	return subtractPlane(g, steps, plane), nil
}

// DetrendWithPlane is Detrend but also returns the fitted plane, for
// callers that report the removed tilt alongside the residuals.
func DetrendWithPlane(g *HeightGrid, steps SampleSteps) (*HeightGrid, PlaneModel, error) {
	plane, err := FitPlane(g, steps)
	if err != nil {
		return nil, PlaneModel{}, err
	}
	return subtractPlane(g, steps, plane), plane, nil
}

func subtractPlane(g *HeightGrid, steps SampleSteps, plane PlaneModel) *HeightGrid {
	out := make([]float64, len(g.data))
	for i := 0; i < g.rows; i++ {
		y := float64(i) * steps.Dy
		for j := 0; j < g.cols; j++ {
			k := i*g.cols + j
			out[k] = g.data[k] - plane.HeightAt(float64(j)*steps.Dx, y)
		}
	}
	return newGridFromData(g.rows, g.cols, out)
}
