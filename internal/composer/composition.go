package composer

import (
	"github.com/woozymasta/campusmap/internal/geo"
	"github.com/woozymasta/campusmap/internal/style"

	"github.com/paulmach/orb/geojson"
)

// Composition is the serializable form of a Map replayed by the browser.
type Composition struct {
	Name        string          `json:"name,omitempty" yaml:"name,omitempty"`
	Attribution string          `json:"attribution,omitempty" yaml:"attribution,omitempty"`
	Container   string          `json:"container" yaml:"container"`
	Layers      []LayerView     `json:"layers" yaml:"layers"`
	Patterns    []style.Pattern `json:"patterns" yaml:"patterns"`
	Control     ControlView     `json:"control" yaml:"control"`
	Center      geo.LatLng      `json:"center" yaml:"center"`
	Zoom        int             `json:"zoom" yaml:"zoom"`
}

// LayerView is one layer of a Composition.
type LayerView struct {
	Data          *geojson.FeatureCollection `json:"data,omitempty" yaml:"-"`
	Tile          *TileSource                `json:"tile,omitempty" yaml:"tile,omitempty"`
	Icon          *IconView                  `json:"icon,omitempty" yaml:"icon,omitempty"`
	Style         *style.Style               `json:"style,omitempty" yaml:"style,omitempty"`
	ID            string                     `json:"id" yaml:"id"`
	Label         string                     `json:"label" yaml:"label"`
	Kind          Kind                       `json:"kind" yaml:"kind"`
	FeatureStyles []style.Style              `json:"featureStyles,omitempty" yaml:"-"`
	Polygons      [][][]geo.LatLng           `json:"polygons,omitempty" yaml:"-"`
	Hooks         []PostRenderHook           `json:"hooks,omitempty" yaml:"-"`
	Features      int                        `json:"-" yaml:"features"`
	Visible       bool                       `json:"visible" yaml:"visible"`
}

// IconView is a marker icon in Leaflet option names.
type IconView struct {
	URL    string `json:"iconUrl" yaml:"-"`
	Size   []int  `json:"iconSize" yaml:"size"`
	Anchor []int  `json:"iconAnchor" yaml:"anchor"`
}

// ControlView is the layer control of a Composition.
type ControlView struct {
	Entries   []ControlEntryView `json:"entries" yaml:"entries"`
	Collapsed bool               `json:"collapsed" yaml:"collapsed"`
}

// ControlEntryView is one control entry.
type ControlEntryView struct {
	Label string `json:"label" yaml:"label"`
	Layer string `json:"layer" yaml:"layer"`
}

// Composition describes the map for the browser.
func (m *Map) Composition() Composition {
	v := m.Viewport

	c := Composition{
		Name:        m.Name,
		Attribution: m.Attribution,
		Container:   v.Container,
		Center:      v.Center,
		Zoom:        v.Zoom,
		Patterns:    m.Patterns,
		Control:     ControlView{Collapsed: m.Control.Collapsed},
	}

	for _, l := range v.Layers() {
		c.Layers = append(c.Layers, layerView(l, v.HasLayer(l)))
	}

	for _, e := range m.Control.Entries() {
		c.Control.Entries = append(c.Control.Entries, ControlEntryView{Label: e.Label, Layer: e.Layer.ID})
	}

	return c
}

func layerView(l *Layer, visible bool) LayerView {
	lv := LayerView{
		ID:      l.ID,
		Label:   l.Label,
		Kind:    l.Kind,
		Tile:    l.Tile,
		Hooks:   l.Hooks,
		Visible: visible,
	}

	if l.Kind == KindTile {
		return lv
	}

	s := l.Style
	lv.Style = &s

	if l.Icon != nil {
		lv.Icon = &IconView{URL: l.Icon.DataURL(), Size: l.Icon.Size, Anchor: l.Icon.Anchor}
	}

	switch l.Kind {
	case KindFeature:
		lv.Data = l.Collection
		if l.Collection != nil {
			lv.Features = len(l.Collection.Features)
			if l.StyleFunc != nil {
				lv.FeatureStyles = make([]style.Style, len(l.Collection.Features))
				for i, f := range l.Collection.Features {
					lv.FeatureStyles[i] = l.StyleFunc(f)
				}
			}
		}
	case KindPolygonGroup:
		polys := l.Polygons()
		lv.Features = len(polys)
		lv.Polygons = make([][][]geo.LatLng, len(polys))
		for i, p := range polys {
			lv.Polygons[i] = p.LatLngs
		}
	}

	return lv
}
