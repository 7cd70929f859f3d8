package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// TileSize is the pixel size of one web map tile at any zoom.
const TileSize = 256

// MaxZoom is the deepest zoom level of the tile pyramid.
const MaxZoom = 22

// MaxLat is the latitude limit of the spherical Mercator projection.
const MaxLat = 85.0511287798

// Projector maps WGS84 points to pixels of a fixed-size view centered on
// a coordinate at a zoom level, in the EPSG:3857 pixel space used by
// Leaflet and most tile servers.
type Projector struct {
	worldSize float64
	originX   float64
	originY   float64
}

// NewProjector returns a projector for a width x height view.
func NewProjector(center LatLng, zoom, width, height int) Projector {
	p := Projector{worldSize: TileSize * math.Exp2(float64(zoom))}
	cx, cy := p.world(center.Point())
	p.originX = cx - float64(width)/2
	p.originY = cy - float64(height)/2
	return p
}

// Pixel returns the view pixel of a [Lon, Lat] point.
func (p Projector) Pixel(pt orb.Point) (x, y float64) {
	wx, wy := p.world(pt)
	return wx - p.originX, wy - p.originY
}

// Origin returns the absolute pixel of the view's top-left corner.
func (p Projector) Origin() (x, y float64) {
	return p.originX, p.originY
}

// world returns the absolute pixel of a point at the projector zoom.
func (p Projector) world(pt orb.Point) (x, y float64) {
	lat := pt[1]
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	m := project.WGS84.ToMercator(orb.Point{pt[0], lat})

	// mercator meters [-PI*R..PI*R] -> [0..1], y axis pointing down
	circumference := 2 * math.Pi * orb.EarthRadius
	x = (m[0]/circumference + 0.5) * p.worldSize
	y = (0.5 - m[1]/circumference) * p.worldSize

	return x, y
}
