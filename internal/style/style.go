// Package style holds declarative layer styling: path styles, point icons
// and fill patterns. Option names follow Leaflet so the same values drive
// both the browser map and the server-side snapshot.
package style

import (
	"net/url"
	"strings"
)

// Leaflet path defaults.
const (
	DefaultColor       = "#3388ff"
	DefaultWeight      = 3.0
	DefaultOpacity     = 1.0
	DefaultFillOpacity = 0.2
)

// Style is a path style. Unset fields fall back to Leaflet defaults.
type Style struct {
	Opacity     *float64 `yaml:"opacity,omitempty" json:"opacity,omitempty"`
	FillOpacity *float64 `yaml:"fill_opacity,omitempty" json:"fillOpacity,omitempty"`
	Stroke      *bool    `yaml:"stroke,omitempty" json:"stroke,omitempty"`
	Fill        *bool    `yaml:"fill,omitempty" json:"fill,omitempty"`
	Color       string   `yaml:"color,omitempty" json:"color,omitempty"`
	FillColor   string   `yaml:"fill_color,omitempty" json:"fillColor,omitempty"`
	Weight      float64  `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// Resolved is a Style with every option decided.
type Resolved struct {
	Color       string
	FillColor   string
	Weight      float64
	Opacity     float64
	FillOpacity float64
	Stroke      bool
	Fill        bool
}

// Resolve applies Leaflet defaults. Fill defaults to on for areas and off
// for lines, as Leaflet polygons and polylines do.
func (s Style) Resolve(area bool) Resolved {
	r := Resolved{
		Color:       DefaultColor,
		Weight:      DefaultWeight,
		Opacity:     DefaultOpacity,
		FillOpacity: DefaultFillOpacity,
		Stroke:      true,
		Fill:        area,
	}

	if s.Color != "" {
		r.Color = s.Color
	}
	if s.Weight > 0 {
		r.Weight = s.Weight
	}
	if s.Opacity != nil {
		r.Opacity = *s.Opacity
	}
	if s.FillOpacity != nil {
		r.FillOpacity = *s.FillOpacity
	}
	if s.Stroke != nil {
		r.Stroke = *s.Stroke
	}
	if s.Fill != nil {
		r.Fill = *s.Fill
	}

	r.FillColor = r.Color
	if s.FillColor != "" {
		r.FillColor = s.FillColor
	}

	return r
}

// Icon is a point marker image described by inline SVG markup.
type Icon struct {
	SVG    string `yaml:"svg" json:"-"`
	Size   []int  `yaml:"size,omitempty" json:"iconSize"`
	Anchor []int  `yaml:"anchor,omitempty" json:"iconAnchor"`
}

// DataURL returns the icon as a data URL usable as an image source.
func (i Icon) DataURL() string {
	return "data:image/svg+xml," + EncodeURIComponent(i.SVG)
}

// Width returns the icon width in pixels.
func (i Icon) Width() int { return dim(i.Size, 0) }

// Height returns the icon height in pixels.
func (i Icon) Height() int { return dim(i.Size, 1) }

// AnchorX returns the horizontal anchor offset in pixels.
func (i Icon) AnchorX() int { return dim(i.Anchor, 0) }

// AnchorY returns the vertical anchor offset in pixels.
func (i Icon) AnchorY() int { return dim(i.Anchor, 1) }

func dim(v []int, i int) int {
	if len(v) > i {
		return v[i]
	}
	return 0
}

// Pattern is an image tile repeated to fill a shape.
type Pattern struct {
	ID     string `yaml:"-" json:"id"`
	Href   string `yaml:"href" json:"href"`
	Width  int    `yaml:"width,omitempty" json:"width"`
	Height int    `yaml:"height,omitempty" json:"height"`
}

// URL returns the fill reference for the pattern.
func (p Pattern) URL() string {
	return "url(#" + p.ID + ")"
}

// EncodeURIComponent escapes s the way the browser encodeURIComponent does:
// everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ) is percent-encoded and
// spaces become %20.
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	return uriComponentReplacer.Replace(escaped)
}

var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
