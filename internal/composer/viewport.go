// Package composer builds the campus map: a viewport owning the basemap
// and overlay layers, the layer toggle control and post-render hooks.
package composer

import (
	"errors"
	"fmt"

	"github.com/woozymasta/campusmap/internal/geo"
)

// Viewport errors.
var (
	ErrNoContainer    = errors.New("map container id is empty")
	ErrDuplicateLayer = errors.New("layer id already used in viewport")
	ErrForeignLayer   = errors.New("layer belongs to another viewport")
	ErrNotOwned       = errors.New("layer is not part of viewport")
	ErrInvalidZoom    = errors.New("zoom out of range")
)

// Viewport is the root display surface. It owns its layers in render order
// and tracks which of them are active. A Viewport is not safe for
// concurrent use; each composition gets its own.
type Viewport struct {
	active    map[*Layer]bool
	Container string
	layers    []*Layer
	Center    geo.LatLng
	Zoom      int
	Width     int
	Height    int
}

// NewViewport creates a viewport mounted on a container.
func NewViewport(container string, center geo.LatLng, zoom int) (*Viewport, error) {
	if container == "" {
		return nil, ErrNoContainer
	}
	if err := checkZoom(zoom); err != nil {
		return nil, err
	}

	return &Viewport{
		Container: container,
		Center:    center,
		Zoom:      zoom,
		active:    make(map[*Layer]bool),
	}, nil
}

// SetView moves the viewport. Coordinates are not range checked, the zoom
// must be within the tile pyramid.
func (v *Viewport) SetView(center geo.LatLng, zoom int) error {
	if err := checkZoom(zoom); err != nil {
		return err
	}
	v.Center = center
	v.Zoom = zoom
	return nil
}

func checkZoom(zoom int) error {
	if zoom < 0 || zoom > geo.MaxZoom {
		return fmt.Errorf("%d: %w", zoom, ErrInvalidZoom)
	}
	return nil
}

// SetSize sets the pixel size used for snapshots.
func (v *Viewport) SetSize(width, height int) {
	v.Width = width
	v.Height = height
}

// AddLayer activates a layer, taking ownership on first add.
func (v *Viewport) AddLayer(l *Layer) error {
	switch {
	case l.owner == v:
	case l.owner != nil:
		return fmt.Errorf("%s: %w", l.ID, ErrForeignLayer)
	default:
		if v.Layer(l.ID) != nil {
			return fmt.Errorf("%s: %w", l.ID, ErrDuplicateLayer)
		}
		l.owner = v
		v.layers = append(v.layers, l)
	}

	v.active[l] = true
	return nil
}

// RemoveLayer deactivates a layer. The viewport keeps ownership so the
// layer can be added back in its original position.
func (v *Viewport) RemoveLayer(l *Layer) error {
	if l.owner != v {
		return fmt.Errorf("%s: %w", l.ID, ErrNotOwned)
	}
	delete(v.active, l)
	return nil
}

// HasLayer reports whether the layer is active.
func (v *Viewport) HasLayer(l *Layer) bool {
	return v.active[l]
}

// Layer returns the owned layer with the given id.
func (v *Viewport) Layer(id string) *Layer {
	for _, l := range v.layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Layers returns all owned layers in render order.
func (v *Viewport) Layers() []*Layer {
	return append([]*Layer(nil), v.layers...)
}

// Active returns the active layers in render order.
func (v *Viewport) Active() []*Layer {
	out := make([]*Layer, 0, len(v.active))
	for _, l := range v.layers {
		if v.active[l] {
			out = append(out, l)
		}
	}
	return out
}
