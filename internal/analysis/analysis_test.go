package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/roughness.report/internal/scanfile"
	"github.com/banshee-data/roughness.report/internal/surface"
	"github.com/banshee-data/roughness.report/internal/timeutil"
)

func mustGrid(t *testing.T, rows [][]float64) *surface.HeightGrid {
	t.Helper()
	g, err := surface.NewHeightGrid(rows)
	require.NoError(t, err)
	return g
}

func TestAnalyze_TiltedTexturedSurface(t *testing.T) {
	t.Parallel()

	// z = x + y tilt with a +/-1 checker texture on top.
	rows := make([][]float64, 4)
	for i := range rows {
		rows[i] = make([]float64, 4)
		for j := range rows[i] {
			texture := 1.0
			if (i+j)%2 == 1 {
				texture = -1.0
			}
			rows[i][j] = float64(i) + float64(j) + texture
		}
	}
	scan := &scanfile.Scan{
		Filename: "textured.txt",
		Counts:   [2]int{4, 4},
		Incs:     [2]float64{1, 1},
		ZData:    mustGrid(t, rows),
	}

	res, err := Analyze(scan)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "textured.txt", res.Filename)
	assert.Equal(t, 4, res.Nx)
	assert.Equal(t, 4, res.Ny)
	assert.NotZero(t, res.CreatedUnixNanos)

	// The checker texture averages to zero, so the fit recovers the tilt.
	assert.InDelta(t, 1.0, res.PlaneA, 1e-9)
	assert.InDelta(t, 1.0, res.PlaneB, 1e-9)
	assert.InDelta(t, 0.0, res.PlaneC, 1e-9)

	// Residuals are +/-1 everywhere: Sa = Sq = 1, Sz = 2, Sku = 1.
	assert.InDelta(t, 1.0, res.Sa, 1e-9)
	assert.InDelta(t, 1.0, res.Sq, 1e-9)
	assert.InDelta(t, 2.0, res.Sz, 1e-9)
	assert.InDelta(t, 1.0, res.Sp, 1e-9)
	assert.InDelta(t, 1.0, res.Sv, 1e-9)
	assert.InDelta(t, 0.0, res.Ssk, 1e-9)
	assert.InDelta(t, 1.0, res.Sku, 1e-9)
	assert.False(t, res.DegenerateMoments)
}

func TestAnalyze_PerfectPlaneFlagsDegenerateMoments(t *testing.T) {
	t.Parallel()

	res, err := AnalyzeGrid(mustGrid(t, [][]float64{
		{0, 1, 2},
		{1, 2, 3},
		{2, 3, 4},
	}), surface.SampleSteps{Dx: 1, Dy: 1}, "plane.txt")
	require.NoError(t, err)

	assert.True(t, res.DegenerateMoments)
	assert.Zero(t, res.Ssk)
	assert.Zero(t, res.Sku)
	assert.InDelta(t, 0, res.Sa, 1e-9)
	assert.InDelta(t, 0, res.Sz, 1e-9)
}

func TestAnalyze_StampsResultWithClock(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	orig := Clock
	Clock = timeutil.NewMockClock(fixed)
	t.Cleanup(func() { Clock = orig })

	res, err := AnalyzeGrid(mustGrid(t, [][]float64{
		{0, 1},
		{2, 4},
	}), surface.SampleSteps{Dx: 1, Dy: 1}, "stamped.txt")
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixNano(), res.CreatedUnixNanos)
}

func TestAnalyze_PropagatesCoreErrors(t *testing.T) {
	t.Parallel()

	_, err := AnalyzeGrid(mustGrid(t, [][]float64{{1, 2, 3}}),
		surface.SampleSteps{Dx: 1, Dy: 1}, "profile.txt")
	require.Error(t, err)
	var insufficient *surface.InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)
	assert.Contains(t, err.Error(), "profile.txt")
}
