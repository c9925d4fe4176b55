package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `{"dx_um": 2.5, "units": "nm"}`))
	require.NoError(t, err)

	require.NotNil(t, cfg.DxUM)
	assert.Equal(t, 2.5, *cfg.DxUM)
	require.NotNil(t, cfg.Units)
	assert.Equal(t, "nm", *cfg.Units)
	assert.Nil(t, cfg.DyUM)
	assert.Nil(t, cfg.PlotsDir)
}

func TestLoad_EmptyConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	assert.Nil(t, cfg.DxUM)
	assert.Nil(t, cfg.Units)
}

func TestLoad_Rejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		contents string
		wantErr  string
	}{
		{"bad json", `{"dx_um": `, "failed to parse"},
		{"zero step", `{"dx_um": 0}`, "dx_um must be positive"},
		{"negative step", `{"dy_um": -1}`, "dy_um must be positive"},
		{"bad units", `{"units": "furlongs"}`, "units must be one of"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.contents))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_RequiresJSONExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".json extension")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat")
}
