package surface

import "fmt"

// InsufficientDataError reports a grid too small for the requested
// operation. A plane fit needs at least two rows and two columns.
type InsufficientDataError struct {
	Op   string
	Rows int
	Cols int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: grid %dx%d is too small (need at least 2x2)", e.Op, e.Rows, e.Cols)
}

// DegenerateGeometryError reports invalid sample geometry: a zero or
// negative step size, or a least-squares system that turned out
// rank-deficient.
type DegenerateGeometryError struct {
	Op     string
	Reason string
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("%s: degenerate geometry: %s", e.Op, e.Reason)
}

// DegenerateSurfaceError reports a zero-variance surface, which makes
// the normalised moment metrics (Ssk, Sku) undefined.
type DegenerateSurfaceError struct {
	Metric string
}

func (e *DegenerateSurfaceError) Error() string {
	return fmt.Sprintf("%s: surface has zero variance (Sq = 0), metric undefined", e.Metric)
}

// MalformedGridError reports a non-rectangular or empty height grid.
// Ingestion is responsible for producing rectangular grids; the core
// re-checks at its boundary.
type MalformedGridError struct {
	Reason string
}

func (e *MalformedGridError) Error() string {
	return fmt.Sprintf("malformed height grid: %s", e.Reason)
}
