// Package geo handles geographic data structures and coordinate conversions.
package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LatLng is a coordinate in display order (latitude first), as web map
// libraries expect it. Stored GeoJSON geometry is always [Lon, Lat].
type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// MarshalJSON encodes the coordinate as a [lat, lng] pair.
func (ll LatLng) MarshalJSON() ([]byte, error) {
	return fmt.Appendf(nil, "[%g,%g]", ll.Lat, ll.Lng), nil
}

// Point returns the coordinate back in storage order.
func (ll LatLng) Point() orb.Point {
	return orb.Point{ll.Lng, ll.Lat}
}

// ToLatLng swaps a [Lon, Lat] point into display order.
func ToLatLng(p orb.Point) LatLng {
	return LatLng{Lat: p[1], Lng: p[0]}
}

// SwapRing converts every point of the ring into display order,
// preserving point count and order.
func SwapRing(r orb.Ring) []LatLng {
	out := make([]LatLng, len(r))
	for i, p := range r {
		out[i] = ToLatLng(p)
	}
	return out
}

// SwapPolygon converts every ring of the polygon into display order.
func SwapPolygon(p orb.Polygon) [][]LatLng {
	out := make([][]LatLng, len(p))
	for i, r := range p {
		out[i] = SwapRing(r)
	}
	return out
}

// LoadCollection reads a GeoJSON FeatureCollection from disk.
func LoadCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return fc, nil
}

// CollectionBound returns the union bound of all features in the collections.
// The second value is false when no feature carries geometry.
func CollectionBound(collections ...*geojson.FeatureCollection) (orb.Bound, bool) {
	var (
		bound orb.Bound
		found bool
	)

	for _, fc := range collections {
		if fc == nil {
			continue
		}
		for _, f := range fc.Features {
			if f == nil || f.Geometry == nil {
				continue
			}
			b := f.Geometry.Bound()
			if !found {
				bound = b
				found = true
				continue
			}
			bound = bound.Union(b)
		}
	}

	return bound, found
}
