// Package report renders analysis output: an HTML heatmap of the detrended
// surface (go-echarts) and PNG cross-section profiles (gonum/plot).
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/roughness.report/internal/analysis"
	"github.com/banshee-data/roughness.report/internal/surface"
)

// maxHeatmapCells caps the rendered payload; larger grids are downsampled
// by stride so the chart stays responsive in the browser.
const maxHeatmapCells = 40000

// RenderHeatmap writes an HTML heatmap of the detrended surface to w, with
// the run's metric summary in the chart subtitle.
func RenderHeatmap(w io.Writer, res *analysis.Result, grid *surface.HeightGrid) error {
	if grid == nil || grid.Cells() == 0 {
		return fmt.Errorf("render heatmap: empty grid")
	}

	stride := 1
	if cells := grid.Cells(); cells > maxHeatmapCells {
		stride = int(math.Ceil(math.Sqrt(float64(cells) / float64(maxHeatmapCells))))
	}

	var xcats, ycats []string
	for j := 0; j < grid.Cols(); j += stride {
		xcats = append(xcats, fmt.Sprintf("%.1f", float64(j)*res.Dx))
	}
	for i := 0; i < grid.Rows(); i += stride {
		ycats = append(ycats, fmt.Sprintf("%.1f", float64(i)*res.Dy))
	}

	data := make([]opts.HeatMapData, 0, len(xcats)*len(ycats))
	zmin, zmax := math.Inf(1), math.Inf(-1)
	for yi, i := 0, 0; i < grid.Rows(); yi, i = yi+1, i+stride {
		for xi, j := 0, 0; j < grid.Cols(); xi, j = xi+1, j+stride {
			z := grid.At(i, j)
			if z < zmin {
				zmin = z
			}
			if z > zmax {
				zmax = z
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{xi, yi, z}})
		}
	}
	if zmin == zmax {
		// Flat surface; give the visual map a non-empty range.
		zmax = zmin + 1
	}

	subtitle := fmt.Sprintf("%s  %dx%d @ %gx%g um  Sa=%.4g Sq=%.4g Sz=%.4g Ssk=%.4g Sku=%.4g",
		res.Filename, res.Nx, res.Ny, res.Dx, res.Dy, res.Sa, res.Sq, res.Sz, res.Ssk, res.Sku)

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Surface Roughness Heatmap",
			Width:     "900px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Detrended Surface Height (um)",
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xcats, Name: "X (um)"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ycats, Name: "Y (um)"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(zmin),
			Max:        float32(zmax),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"},
			},
		}),
	)
	hm.AddSeries("height", data)

	if err := hm.Render(w); err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	return nil
}
