package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores the option flags after a test mutates them.
func resetFlags(t *testing.T) {
	t.Helper()
	origConfig, origDx, origDy, origUnits, origPlots := *configPath, *dxOverride, *dyOverride, *metricUnits, *plotsDir
	t.Cleanup(func() {
		*configPath, *dxOverride, *dyOverride, *metricUnits, *plotsDir = origConfig, origDx, origDy, origUnits, origPlots
	})
}

func TestMergeOptions_Defaults(t *testing.T) {
	resetFlags(t)

	opts, err := mergeOptions()
	require.NoError(t, err)
	assert.Equal(t, runOptions{units: "um"}, opts)
}

func TestMergeOptions_FlagsOverrideConfig(t *testing.T) {
	resetFlags(t)

	cfg := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"dx_um": 5, "dy_um": 5, "units": "mm"}`), 0o644))
	*configPath = cfg
	*dxOverride = 2.5
	*metricUnits = "nm"

	opts, err := mergeOptions()
	require.NoError(t, err)
	assert.Equal(t, 2.5, opts.dx)
	assert.Equal(t, 5.0, opts.dy)
	assert.Equal(t, "nm", opts.units)
}

func TestMergeOptions_InvalidUnits(t *testing.T) {
	resetFlags(t)

	*metricUnits = "cubits"
	_, err := mergeOptions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid -units")
}

func TestMergeOptions_BadConfigFile(t *testing.T) {
	resetFlags(t)

	*configPath = filepath.Join(t.TempDir(), "missing.json")
	_, err := mergeOptions()
	require.Error(t, err)
}
