package composer

import (
	"errors"
	"fmt"

	"github.com/woozymasta/campusmap/internal/geo"
	"github.com/woozymasta/campusmap/internal/style"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNotPolygon is returned when a polygon group source holds other geometry.
var ErrNotPolygon = errors.New("geometry is not a polygon")

// LayerSpec describes an overlay before it is built.
type LayerSpec struct {
	Icon      *style.Icon
	StyleFunc StyleFunc // overrides Style per feature when set
	ID        string
	Label     string
	Style     style.Style
}

func (s LayerSpec) styleOf(f *geojson.Feature) style.Style {
	if s.StyleFunc != nil {
		return s.StyleFunc(f)
	}
	return s.Style
}

// Builder turns a feature collection into a layer.
type Builder interface {
	Build(spec LayerSpec, fc *geojson.FeatureCollection) (*Layer, error)
}

// BuilderFor returns the builder of a layer kind.
func BuilderFor(kind Kind) (Builder, error) {
	switch kind {
	case KindFeature, "":
		return FeatureAdapter{}, nil
	case KindPolygonGroup:
		return PrimitiveBuilder{}, nil
	default:
		return nil, fmt.Errorf("no builder for layer kind %q", kind)
	}
}

// FeatureAdapter is the generic GeoJSON binding. Point features become
// markers from the layer icon, everything else becomes a styled path.
// Geometry is not validated; what cannot be drawn is skipped at render.
type FeatureAdapter struct{}

// Build implements Builder.
func (FeatureAdapter) Build(spec LayerSpec, fc *geojson.FeatureCollection) (*Layer, error) {
	l := newLayer(spec, KindFeature, fc)

	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}

		switch g := f.Geometry.(type) {
		case orb.Point:
			l.Overlays = append(l.Overlays, &Marker{Feature: f, Icon: spec.Icon, Position: geo.ToLatLng(g)})
		case orb.MultiPoint:
			for _, p := range g {
				l.Overlays = append(l.Overlays, &Marker{Feature: f, Icon: spec.Icon, Position: geo.ToLatLng(p)})
			}
		default:
			l.Overlays = append(l.Overlays, &Path{Feature: f, Geometry: g, Style: spec.styleOf(f)})
		}
	}

	return l, nil
}

// PrimitiveBuilder builds one polygon primitive per feature directly from
// the coordinate rings, swapping every pair into display order, instead of
// going through the generic binding.
type PrimitiveBuilder struct{}

// Build implements Builder.
func (PrimitiveBuilder) Build(spec LayerSpec, fc *geojson.FeatureCollection) (*Layer, error) {
	l := newLayer(spec, KindPolygonGroup, fc)

	for i, f := range fc.Features {
		if f == nil {
			continue
		}

		poly, ok := f.Geometry.(orb.Polygon)
		if !ok {
			return nil, fmt.Errorf("layer %s feature %d (%s): %w", spec.ID, i, geometryType(f.Geometry), ErrNotPolygon)
		}

		l.Overlays = append(l.Overlays, &Polygon{
			Feature: f,
			LatLngs: geo.SwapPolygon(poly),
			Style:   spec.styleOf(f),
		})
	}

	return l, nil
}

func newLayer(spec LayerSpec, kind Kind, fc *geojson.FeatureCollection) *Layer {
	return &Layer{
		ID:         spec.ID,
		Label:      spec.Label,
		Kind:       kind,
		Collection: fc,
		Icon:       spec.Icon,
		Style:      spec.Style,
		StyleFunc:  spec.StyleFunc,
	}
}

// NewTileLayer returns a raster basemap layer.
func NewTileLayer(id, label string, src TileSource) *Layer {
	return &Layer{ID: id, Label: label, Kind: KindTile, Tile: &src}
}

func geometryType(g orb.Geometry) string {
	if g == nil {
		return "null"
	}
	return g.GeoJSONType()
}
