package composer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/woozymasta/campusmap/internal/config"
	"github.com/woozymasta/campusmap/internal/geo"
	"github.com/woozymasta/campusmap/internal/render"
	"github.com/woozymasta/campusmap/internal/style"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// ErrMissingSource is returned when a configured layer has no loaded collection.
var ErrMissingSource = errors.New("layer source not loaded")

// Sources holds the loaded collections keyed by layer id. They are
// immutable once loaded and shared by every composition.
type Sources map[string]*geojson.FeatureCollection

// LoadSources reads every layer source named in the configuration.
func LoadSources(cfg *config.Config) (Sources, error) {
	sources := make(Sources, len(cfg.Layers))

	for _, l := range cfg.Layers {
		path := cfg.SourcePath(l)
		fc, err := geo.LoadCollection(path)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.ID, err)
		}

		log.Debug().
			Str("layer", l.ID).
			Str("path", path).
			Int("features", len(fc.Features)).
			Msg("Layer source loaded")

		sources[l.ID] = fc
	}

	return sources, nil
}

// Map is a composed campus map.
type Map struct {
	Viewport    *Viewport
	Control     *Control
	Name        string
	Attribution string
	Patterns    []style.Pattern
}

// Compose builds the map in a fixed sequence: viewport, basemap, overlays
// in configuration order, the layer control, then post-render hooks.
func Compose(cfg *config.Config, sources Sources) (*Map, error) {
	if len(cfg.Viewport.Center) != 2 {
		return nil, errors.New("viewport center must be [lat, lon]")
	}

	center := geo.LatLng{Lat: cfg.Viewport.Center[0], Lng: cfg.Viewport.Center[1]}
	v, err := NewViewport(cfg.Viewport.Container, center, cfg.Viewport.Zoom)
	if err != nil {
		return nil, err
	}
	v.SetSize(cfg.Viewport.Width, cfg.Viewport.Height)

	basemap := NewTileLayer(cfg.Basemap.ID, cfg.Basemap.Label, TileSource{
		URL:         cfg.Basemap.URL,
		Subdomains:  cfg.Basemap.Subdomains,
		Attribution: cfg.Basemap.Attribution,
	})
	if err := v.AddLayer(basemap); err != nil {
		return nil, err
	}

	for _, lc := range cfg.Layers {
		fc, ok := sources[lc.ID]
		if !ok || fc == nil {
			return nil, fmt.Errorf("%s: %w", lc.ID, ErrMissingSource)
		}

		builder, err := BuilderFor(Kind(lc.Kind))
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", lc.ID, err)
		}

		spec := LayerSpec{ID: lc.ID, Label: lc.Label, Style: lc.Style}
		if lc.Icon != "" {
			icon, ok := cfg.Icons[lc.Icon]
			if !ok {
				return nil, fmt.Errorf("layer %s: unknown icon %q", lc.ID, lc.Icon)
			}
			spec.Icon = &icon
		}

		layer, err := builder.Build(spec, fc)
		if err != nil {
			return nil, err
		}

		if lc.Pattern != "" {
			p, ok := cfg.Patterns[lc.Pattern]
			if !ok {
				return nil, fmt.Errorf("layer %s: unknown pattern %q", lc.ID, lc.Pattern)
			}
			layer.Hooks = append(layer.Hooks, PatternFill{Pattern: p})
		}

		if err := v.AddLayer(layer); err != nil {
			return nil, err
		}
	}

	control := NewControl(v, cfg.Control.Collapsed)
	for _, id := range cfg.Control.Entries {
		if err := control.AddOverlay(v.Layer(id), cfg.Label(id)); err != nil {
			return nil, fmt.Errorf("control entry %s: %w", id, err)
		}
	}

	return &Map{
		Viewport:    v,
		Control:     control,
		Name:        cfg.Name,
		Attribution: cfg.Attribution,
		Patterns:    sortedPatterns(cfg.Patterns),
	}, nil
}

func sortedPatterns(in map[string]style.Pattern) []style.Pattern {
	out := make([]style.Pattern, 0, len(in))
	for _, p := range in {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Render draws the active layers in render order and then runs their
// post-render hooks on the finished document.
func (m *Map) Render() (*render.Document, error) {
	v := m.Viewport
	doc := render.NewDocument(v.Width, v.Height)
	proj := geo.NewProjector(v.Center, v.Zoom, v.Width, v.Height)

	active := v.Active()
	for _, l := range active {
		if l.Kind == KindTile {
			drawTiles(doc, proj, l.ID, l.Tile, v.Zoom)
			continue
		}
		for _, o := range l.Overlays {
			o.draw(doc, proj, l.ID)
		}
	}

	for _, l := range active {
		for _, h := range l.Hooks {
			if err := h.Apply(doc, l); err != nil {
				return nil, fmt.Errorf("post-render hook on %s: %w", l.ID, err)
			}
		}
	}

	return doc, nil
}
