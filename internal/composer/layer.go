package composer

import (
	"math"

	"github.com/woozymasta/campusmap/internal/geo"
	"github.com/woozymasta/campusmap/internal/render"
	"github.com/woozymasta/campusmap/internal/style"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Kind is the rendering variant of a layer.
type Kind string

// Layer kinds.
const (
	KindTile         Kind = "tile"
	KindFeature      Kind = "feature"
	KindPolygonGroup Kind = "polygon-group"
)

// StyleFunc returns the path style of a feature.
type StyleFunc func(f *geojson.Feature) style.Style

// Static returns a StyleFunc that ignores the feature.
func Static(s style.Style) StyleFunc {
	return func(*geojson.Feature) style.Style { return s }
}

// TileSource is a raster tile endpoint.
type TileSource struct {
	URL         string `json:"url"`
	Subdomains  string `json:"subdomains,omitempty"`
	Attribution string `json:"attribution,omitempty"`
}

// Layer is a renderable wrapper around one collection or primitive set.
// It is owned by exactly one Viewport once added.
type Layer struct {
	Collection *geojson.FeatureCollection
	Tile       *TileSource
	Icon       *style.Icon
	StyleFunc  StyleFunc
	owner      *Viewport
	ID         string
	Label      string
	Kind       Kind
	Overlays   []Overlay
	Hooks      []PostRenderHook
	Style      style.Style
}

// Markers returns the point markers built for the layer.
func (l *Layer) Markers() []*Marker {
	var out []*Marker
	for _, o := range l.Overlays {
		if m, ok := o.(*Marker); ok {
			out = append(out, m)
		}
	}
	return out
}

// Polygons returns the polygon primitives built for the layer.
func (l *Layer) Polygons() []*Polygon {
	var out []*Polygon
	for _, o := range l.Overlays {
		if p, ok := o.(*Polygon); ok {
			out = append(out, p)
		}
	}
	return out
}

// Overlay is one sub-shape of a layer.
type Overlay interface {
	draw(doc *render.Document, proj geo.Projector, layer string)
}

// Marker is a point feature drawn as an icon.
type Marker struct {
	Feature  *geojson.Feature
	Icon     *style.Icon
	Position geo.LatLng
}

func (m *Marker) draw(doc *render.Document, proj geo.Projector, layer string) {
	x, y := proj.Pixel(m.Position.Point())

	if m.Icon == nil {
		doc.Add(&render.Shape{
			Layer:   layer,
			Element: render.ElementCircle,
			Attrs: map[string]string{
				"cx":   render.Num(x),
				"cy":   render.Num(y),
				"r":    "6",
				"fill": style.DefaultColor,
			},
		})
		return
	}

	doc.Add(&render.Shape{
		Layer:   layer,
		Element: render.ElementImage,
		Attrs: map[string]string{
			"href":   m.Icon.DataURL(),
			"x":      render.Num(x - float64(m.Icon.AnchorX())),
			"y":      render.Num(y - float64(m.Icon.AnchorY())),
			"width":  render.Num(float64(m.Icon.Width())),
			"height": render.Num(float64(m.Icon.Height())),
		},
	})
}

// Path is a feature drawn through the generic GeoJSON binding. Its
// geometry stays in storage order.
type Path struct {
	Feature  *geojson.Feature
	Geometry orb.Geometry
	Style    style.Style
}

func (p *Path) draw(doc *render.Document, proj geo.Projector, layer string) {
	drawGeometry(doc, proj, layer, p.Geometry, p.Style)
}

func drawGeometry(doc *render.Document, proj geo.Projector, layer string, g orb.Geometry, s style.Style) {
	switch g := g.(type) {
	case orb.LineString:
		addPath(doc, layer, [][]render.Point{pixels(proj, g)}, false, s)
	case orb.MultiLineString:
		rings := make([][]render.Point, len(g))
		for i, ls := range g {
			rings[i] = pixels(proj, ls)
		}
		addPath(doc, layer, rings, false, s)
	case orb.Ring:
		addPath(doc, layer, [][]render.Point{pixels(proj, g)}, true, s)
	case orb.Polygon:
		addPath(doc, layer, polygonPixels(proj, g), true, s)
	case orb.MultiPolygon:
		var rings [][]render.Point
		for _, poly := range g {
			rings = append(rings, polygonPixels(proj, poly)...)
		}
		addPath(doc, layer, rings, true, s)
	case orb.Collection:
		for _, member := range g {
			drawGeometry(doc, proj, layer, member, s)
		}
	}
	// points without an icon factory and unknown geometry draw nothing
}

func pixels[P ~[]orb.Point](proj geo.Projector, pts P) []render.Point {
	out := make([]render.Point, len(pts))
	for i, p := range pts {
		x, y := proj.Pixel(p)
		out[i] = render.Point{X: x, Y: y}
	}
	return out
}

func polygonPixels(proj geo.Projector, poly orb.Polygon) [][]render.Point {
	out := make([][]render.Point, len(poly))
	for i, r := range poly {
		out[i] = pixels(proj, r)
	}
	return out
}

// Polygon is a polygon primitive built from display-order coordinates.
type Polygon struct {
	Feature *geojson.Feature
	LatLngs [][]geo.LatLng
	Style   style.Style
}

func (p *Polygon) draw(doc *render.Document, proj geo.Projector, layer string) {
	rings := make([][]render.Point, len(p.LatLngs))
	for i, ring := range p.LatLngs {
		rings[i] = make([]render.Point, len(ring))
		for j, ll := range ring {
			x, y := proj.Pixel(ll.Point())
			rings[i][j] = render.Point{X: x, Y: y}
		}
	}
	addPath(doc, layer, rings, true, p.Style)
}

// addPath adds a path with the attributes Leaflet's SVG renderer sets.
func addPath(doc *render.Document, layer string, rings [][]render.Point, area bool, s style.Style) {
	r := s.Resolve(area)

	shape := &render.Shape{
		Layer:   layer,
		Element: render.ElementPath,
		Attrs: map[string]string{
			"class": "leaflet-interactive",
			"d":     render.PathData(rings, area),
		},
	}

	if r.Stroke {
		shape.SetAttr("stroke", r.Color)
		shape.SetAttr("stroke-opacity", render.Num(r.Opacity))
		shape.SetAttr("stroke-width", render.Num(r.Weight))
		shape.SetAttr("stroke-linecap", "round")
		shape.SetAttr("stroke-linejoin", "round")
	} else {
		shape.SetAttr("stroke", "none")
	}

	if r.Fill {
		shape.SetAttr("fill", r.FillColor)
		shape.SetAttr("fill-opacity", render.Num(r.FillOpacity))
		shape.SetAttr("fill-rule", "evenodd")
	} else {
		shape.SetAttr("fill", "none")
	}

	doc.Add(shape)
}

// drawTiles adds the basemap tiles covering the view as images.
func drawTiles(doc *render.Document, proj geo.Projector, layer string, src *TileSource, zoom int) {
	if zoom < 0 || zoom > geo.MaxZoom {
		return
	}

	ox, oy := proj.Origin()
	limit := 1 << zoom

	minX := int(math.Floor(ox / geo.TileSize))
	minY := int(math.Floor(oy / geo.TileSize))
	maxX := int(math.Floor((ox + float64(doc.Width) - 1) / geo.TileSize))
	maxY := int(math.Floor((oy + float64(doc.Height) - 1) / geo.TileSize))

	for ty := max(minY, 0); ty <= min(maxY, limit-1); ty++ {
		for tx := minX; tx <= maxX; tx++ {
			// wrap horizontally like a world-copy map
			wx := ((tx % limit) + limit) % limit
			doc.Add(&render.Shape{
				Layer:   layer,
				Element: render.ElementImage,
				Attrs: map[string]string{
					"href":   geo.TileURL(src.URL, src.Subdomains, wx, ty, zoom),
					"x":      render.Num(float64(tx*geo.TileSize) - ox),
					"y":      render.Num(float64(ty*geo.TileSize) - oy),
					"width":  render.Num(geo.TileSize),
					"height": render.Num(geo.TileSize),
				},
			})
		}
	}
}
