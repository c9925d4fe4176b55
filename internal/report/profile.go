package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/roughness.report/internal/surface"
)

// profilePlot builds a line plot of one cross-section through the grid.
// axis is "row" (heights along x at a fixed y) or "col" (heights along y
// at a fixed x).
func profilePlot(grid *surface.HeightGrid, steps surface.SampleSteps, axis string, index int) (*plot.Plot, error) {
	var heights []float64
	var step float64
	var xLabel string
	switch axis {
	case "row":
		if index < 0 || index >= grid.Rows() {
			return nil, fmt.Errorf("row %d out of range (grid has %d rows)", index, grid.Rows())
		}
		heights = grid.Row(index)
		step = steps.Dx
		xLabel = "X (um)"
	case "col":
		if index < 0 || index >= grid.Cols() {
			return nil, fmt.Errorf("column %d out of range (grid has %d columns)", index, grid.Cols())
		}
		heights = grid.Col(index)
		step = steps.Dy
		xLabel = "Y (um)"
	default:
		return nil, fmt.Errorf("unknown profile axis %q (want row or col)", axis)
	}

	pts := make(plotter.XYs, len(heights))
	for k, z := range heights {
		pts[k] = plotter.XY{X: float64(k) * step, Y: z}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Detrended profile (%s %d)", axis, index)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Height (um)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Add(plotter.NewGrid())

	return p, nil
}

// WriteProfilePNG renders one cross-section profile as a PNG to w.
func WriteProfilePNG(w io.Writer, grid *surface.HeightGrid, steps surface.SampleSteps, axis string, index int) error {
	p, err := profilePlot(grid, steps, axis, index)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render profile: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// SaveProfilePlots writes the centre row and centre column profiles of the
// grid as PNGs under dir, returning the created paths.
func SaveProfilePlots(dir string, grid *surface.HeightGrid, steps surface.SampleSteps) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	sections := []struct {
		axis  string
		index int
		file  string
	}{
		{"row", grid.Rows() / 2, fmt.Sprintf("profile_row_%03d.png", grid.Rows()/2)},
		{"col", grid.Cols() / 2, fmt.Sprintf("profile_col_%03d.png", grid.Cols()/2)},
	}

	var paths []string
	for _, s := range sections {
		p, err := profilePlot(grid, steps, s.axis, s.index)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, s.file)
		if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("save %s profile: %w", s.axis, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
