// Package config loads optional analysis settings from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/roughness.report/internal/units"
)

// RunConfig holds analysis settings that can be supplied from a JSON file
// instead of flags. All fields are pointers so a partial config only
// overrides what it names; nil fields keep the built-in behaviour.
type RunConfig struct {
	// Sampling overrides, micrometres. When set they replace the step
	// sizes declared by the scan file, for exports with a miscalibrated
	// header.
	DxUM *float64 `json:"dx_um,omitempty"`
	DyUM *float64 `json:"dy_um,omitempty"`

	// Units for logged metric values: um, nm or mm.
	Units *string `json:"units,omitempty"`

	// PlotsDir, when set, receives centre-line profile PNGs per scan.
	PlotsDir *string `json:"plots_dir,omitempty"`
}

// Load reads a RunConfig from a JSON file. The file must have a .json
// extension and fit under the max file size. Fields omitted from the
// file stay nil, so partial configs are safe.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &RunConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cleanPath, err)
	}
	return cfg, nil
}

// Validate rejects settings the analysis pipeline would refuse later,
// so a bad config fails at startup rather than mid-run.
func (c *RunConfig) Validate() error {
	if c.DxUM != nil && *c.DxUM <= 0 {
		return fmt.Errorf("dx_um must be positive, got %g", *c.DxUM)
	}
	if c.DyUM != nil && *c.DyUM <= 0 {
		return fmt.Errorf("dy_um must be positive, got %g", *c.DyUM)
	}
	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("units must be one of %s, got %q", units.GetValidUnitsString(), *c.Units)
	}
	return nil
}
