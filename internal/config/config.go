// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/woozymasta/campusmap/internal/geo"
	"github.com/woozymasta/campusmap/internal/style"

	"gopkg.in/yaml.v3"
)

// Layer kinds.
const (
	KindFeature      = "feature"
	KindPolygonGroup = "polygon-group"
)

// Defaults applied by Normalize.
const (
	DefaultContainer = "map"
	DefaultWidth     = 1024
	DefaultHeight    = 768
	DefaultIconSize  = 24
	DefaultPatternPx = 225
	DefaultBasemapID = "basemap"
	DefaultCacheDir  = "cache"
	cacheZoomsAbove  = 2
	cacheZoomsBelow  = 3
)

// Config represents the root configuration file structure.
type Config struct {
	Icons       map[string]style.Icon    `yaml:"icons,omitempty"`
	Patterns    map[string]style.Pattern `yaml:"patterns,omitempty"`
	Name        string                   `yaml:"name"`
	Attribution string                   `yaml:"attribution,omitempty"`
	CacheDir    string                   `yaml:"cache_dir,omitempty"`
	Layers      []Layer                  `yaml:"layers"`
	Basemap     Basemap                  `yaml:"basemap"`
	Control     Control                  `yaml:"control"`
	Viewport    Viewport                 `yaml:"viewport"`

	// directory the config was loaded from, layer sources resolve against it
	baseDir string
}

// Viewport is the initial view of the map.
type Viewport struct {
	Container string    `yaml:"container,omitempty"`
	Center    []float64 `yaml:"center"` // [Lat, Lon]
	Zoom      int       `yaml:"zoom"`
	Width     int       `yaml:"width,omitempty"`  // snapshot only
	Height    int       `yaml:"height,omitempty"` // snapshot only
}

// Basemap is the raster tile layer drawn below all overlays.
type Basemap struct {
	ID          string `yaml:"id,omitempty"`
	Label       string `yaml:"label"`
	URL         string `yaml:"url"`
	Subdomains  string `yaml:"subdomains,omitempty"`
	Attribution string `yaml:"attribution,omitempty"`
	// zoom range cached by the loader
	MinZoom int `yaml:"min_zoom,omitempty"`
	MaxZoom int `yaml:"max_zoom,omitempty"`
}

// Layer is one overlay built from a GeoJSON source.
type Layer struct {
	Style   style.Style `yaml:"style,omitempty"`
	ID      string      `yaml:"id"`
	Label   string      `yaml:"label"`
	Source  string      `yaml:"source"`
	Kind    string      `yaml:"kind,omitempty"`
	Icon    string      `yaml:"icon,omitempty"`    // point features become markers
	Pattern string      `yaml:"pattern,omitempty"` // pattern fill applied after render
}

// Control is the layer toggle widget.
type Control struct {
	Collapsed bool     `yaml:"collapsed"`
	Entries   []string `yaml:"entries,omitempty"` // layer ids in display order
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(path)

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// SourcePath resolves a layer source relative to the config file.
func (c *Config) SourcePath(l Layer) string {
	if filepath.IsAbs(l.Source) || c.baseDir == "" {
		return l.Source
	}
	return filepath.Join(c.baseDir, l.Source)
}

// CachePath resolves the cache directory relative to the config file.
func (c *Config) CachePath() string {
	if filepath.IsAbs(c.CacheDir) || c.baseDir == "" {
		return c.CacheDir
	}
	return filepath.Join(c.baseDir, c.CacheDir)
}

// Normalize fills unset options with defaults.
func (c *Config) Normalize() {
	if c.Viewport.Container == "" {
		c.Viewport.Container = DefaultContainer
	}
	if c.Viewport.Width <= 0 {
		c.Viewport.Width = DefaultWidth
	}
	if c.Viewport.Height <= 0 {
		c.Viewport.Height = DefaultHeight
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}

	if c.Basemap.ID == "" {
		c.Basemap.ID = DefaultBasemapID
	}
	if c.Basemap.Attribution == "" {
		c.Basemap.Attribution = c.Attribution
	}
	if c.Basemap.MaxZoom <= 0 {
		c.Basemap.MaxZoom = min(c.Viewport.Zoom+cacheZoomsAbove, geo.MaxZoom)
	}
	if c.Basemap.MinZoom <= 0 {
		c.Basemap.MinZoom = max(c.Viewport.Zoom-cacheZoomsBelow, 0)
	}

	for name, icon := range c.Icons {
		if len(icon.Size) < 2 {
			icon.Size = []int{DefaultIconSize, DefaultIconSize}
		}
		if len(icon.Anchor) < 2 {
			icon.Anchor = []int{icon.Size[0] / 2, icon.Size[1] / 2}
		}
		c.Icons[name] = icon
	}

	for id, p := range c.Patterns {
		p.ID = id
		if p.Width <= 0 {
			p.Width = DefaultPatternPx
		}
		if p.Height <= 0 {
			p.Height = DefaultPatternPx
		}
		c.Patterns[id] = p
	}

	for i := range c.Layers {
		if c.Layers[i].Kind == "" {
			c.Layers[i].Kind = KindFeature
		}
	}

	if len(c.Control.Entries) == 0 {
		c.Control.Entries = append(c.Control.Entries, c.Basemap.ID)
		for _, l := range c.Layers {
			c.Control.Entries = append(c.Control.Entries, l.ID)
		}
	}
}

// Validate checks references between layers, icons, patterns and the control.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Viewport.Center) != 2 {
		errs = append(errs, errors.New("viewport.center must be [lat, lon]"))
	}
	if c.Viewport.Zoom < 0 || c.Viewport.Zoom > geo.MaxZoom {
		errs = append(errs, fmt.Errorf("viewport.zoom %d out of range 0..%d", c.Viewport.Zoom, geo.MaxZoom))
	}
	if c.Basemap.URL == "" {
		errs = append(errs, errors.New("basemap.url is required"))
	}
	if c.Basemap.MinZoom < 0 || c.Basemap.MaxZoom > geo.MaxZoom {
		errs = append(errs, fmt.Errorf("basemap zoom range %d..%d exceeds 0..%d", c.Basemap.MinZoom, c.Basemap.MaxZoom, geo.MaxZoom))
	}
	if c.Basemap.MinZoom > c.Basemap.MaxZoom {
		errs = append(errs, fmt.Errorf("basemap zoom range %d..%d is empty", c.Basemap.MinZoom, c.Basemap.MaxZoom))
	}

	ids := map[string]bool{c.Basemap.ID: true}
	for _, l := range c.Layers {
		if l.ID == "" {
			errs = append(errs, errors.New("layer without id"))
			continue
		}
		if ids[l.ID] {
			errs = append(errs, fmt.Errorf("duplicate layer id %q", l.ID))
		}
		ids[l.ID] = true

		if l.Source == "" {
			errs = append(errs, fmt.Errorf("layer %q: source is required", l.ID))
		}
		if l.Kind != KindFeature && l.Kind != KindPolygonGroup {
			errs = append(errs, fmt.Errorf("layer %q: unsupported kind %q", l.ID, l.Kind))
		}
		if l.Icon != "" {
			if _, ok := c.Icons[l.Icon]; !ok {
				errs = append(errs, fmt.Errorf("layer %q: unknown icon %q", l.ID, l.Icon))
			}
		}
		if l.Pattern != "" {
			if _, ok := c.Patterns[l.Pattern]; !ok {
				errs = append(errs, fmt.Errorf("layer %q: unknown pattern %q", l.ID, l.Pattern))
			}
		}
	}

	labels := make(map[string]bool, len(c.Control.Entries))
	for _, id := range c.Control.Entries {
		if !ids[id] {
			errs = append(errs, fmt.Errorf("control: unknown layer %q", id))
			continue
		}
		label := c.Label(id)
		if labels[label] {
			errs = append(errs, fmt.Errorf("control: duplicate label %q", label))
		}
		labels[label] = true
	}

	return errors.Join(errs...)
}

// Label returns the human readable label of a layer id, or the id itself.
func (c *Config) Label(id string) string {
	if id == c.Basemap.ID {
		if c.Basemap.Label != "" {
			return c.Basemap.Label
		}
		return id
	}
	for _, l := range c.Layers {
		if l.ID == id && l.Label != "" {
			return l.Label
		}
	}
	return id
}
