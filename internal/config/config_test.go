package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
viewport:
  center: [30.873098, 120.13309]
  zoom: 16
basemap:
  label: Imagery
  url: "https://tiles.example.com/{z}/{x}/{y}.png"
icons:
  pin:
    svg: "<svg/>"
patterns:
  water:
    href: "https://img.example.com/water.jpg"
layers:
  - id: poi
    label: POI
    source: data/poi.json
    icon: pin
  - id: water
    label: Water
    source: data/water.json
    pattern: water
  - id: training
    label: Training
    source: /abs/training.json
    kind: polygon-group
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadNormalizes(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultContainer, cfg.Viewport.Container)
	assert.Equal(t, DefaultWidth, cfg.Viewport.Width)
	assert.Equal(t, DefaultHeight, cfg.Viewport.Height)
	assert.Equal(t, DefaultBasemapID, cfg.Basemap.ID)
	assert.Equal(t, 13, cfg.Basemap.MinZoom)
	assert.Equal(t, 18, cfg.Basemap.MaxZoom)

	icon := cfg.Icons["pin"]
	assert.Equal(t, []int{24, 24}, icon.Size)
	assert.Equal(t, []int{12, 12}, icon.Anchor)

	pattern := cfg.Patterns["water"]
	assert.Equal(t, "water", pattern.ID)
	assert.Equal(t, 225, pattern.Width)
	assert.Equal(t, 225, pattern.Height)

	assert.Equal(t, KindFeature, cfg.Layers[0].Kind)
	assert.Equal(t, KindPolygonGroup, cfg.Layers[2].Kind)
	assert.Equal(t, []string{"basemap", "poi", "water", "training"}, cfg.Control.Entries)
	assert.False(t, cfg.Control.Collapsed)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "data/poi.json"), cfg.SourcePath(cfg.Layers[0]))
	assert.Equal(t, "/abs/training.json", cfg.SourcePath(cfg.Layers[2]))
	assert.Equal(t, filepath.Join(dir, DefaultCacheDir), cfg.CachePath())
}

func TestNormalizeCapsCacheZoom(t *testing.T) {
	cfg := &Config{Viewport: Viewport{Center: []float64{0, 0}, Zoom: 21}}
	cfg.Normalize()

	assert.Equal(t, 18, cfg.Basemap.MinZoom)
	assert.Equal(t, 22, cfg.Basemap.MaxZoom)
}

func TestLabel(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "Imagery", cfg.Label("basemap"))
	assert.Equal(t, "Water", cfg.Label("water"))
	assert.Equal(t, "nope", cfg.Label("nope"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "bad center",
			mutate:  func(c *Config) { c.Viewport.Center = []float64{1} },
			wantErr: "viewport.center",
		},
		{
			name:    "negative zoom",
			mutate:  func(c *Config) { c.Viewport.Zoom = -1 },
			wantErr: "viewport.zoom -1 out of range",
		},
		{
			name:    "zoom past pyramid",
			mutate:  func(c *Config) { c.Viewport.Zoom = 30 },
			wantErr: "viewport.zoom 30 out of range",
		},
		{
			name:    "basemap max zoom too deep",
			mutate:  func(c *Config) { c.Basemap.MaxZoom = 40 },
			wantErr: "basemap zoom range 13..40 exceeds 0..22",
		},
		{
			name:    "basemap negative min zoom",
			mutate:  func(c *Config) { c.Basemap.MinZoom = -2 },
			wantErr: "basemap zoom range -2..18 exceeds",
		},
		{
			name:    "missing basemap url",
			mutate:  func(c *Config) { c.Basemap.URL = "" },
			wantErr: "basemap.url",
		},
		{
			name:    "duplicate id",
			mutate:  func(c *Config) { c.Layers[1].ID = "poi" },
			wantErr: `duplicate layer id "poi"`,
		},
		{
			name:    "unknown icon",
			mutate:  func(c *Config) { c.Layers[0].Icon = "ghost" },
			wantErr: `unknown icon "ghost"`,
		},
		{
			name:    "unknown pattern",
			mutate:  func(c *Config) { c.Layers[1].Pattern = "lava" },
			wantErr: `unknown pattern "lava"`,
		},
		{
			name:    "unsupported kind",
			mutate:  func(c *Config) { c.Layers[2].Kind = "heatmap" },
			wantErr: `unsupported kind "heatmap"`,
		},
		{
			name:    "unknown control entry",
			mutate:  func(c *Config) { c.Control.Entries = append(c.Control.Entries, "roads") },
			wantErr: `control: unknown layer "roads"`,
		},
		{
			name:    "duplicate control label",
			mutate:  func(c *Config) { c.Layers[1].Label = "POI" },
			wantErr: `duplicate label "POI"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, minimalConfig))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "layers: ["))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "viewport: {zoom: 3}"))
	assert.ErrorContains(t, err, "invalid config")
}

func TestRepositoryConfig(t *testing.T) {
	cfg, err := Load("../../config.yaml")
	require.NoError(t, err)

	assert.Len(t, cfg.Layers, 9)
	assert.Len(t, cfg.Control.Entries, 10)
	for _, l := range cfg.Layers {
		_, err := os.Stat(cfg.SourcePath(l))
		assert.NoError(t, err, l.Source)
	}
}
