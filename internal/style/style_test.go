package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestResolveDefaults(t *testing.T) {
	area := Style{}.Resolve(true)
	assert.Equal(t, Resolved{
		Color:       DefaultColor,
		FillColor:   DefaultColor,
		Weight:      DefaultWeight,
		Opacity:     DefaultOpacity,
		FillOpacity: DefaultFillOpacity,
		Stroke:      true,
		Fill:        true,
	}, area)

	line := Style{}.Resolve(false)
	assert.False(t, line.Fill)
}

func TestResolveOverrides(t *testing.T) {
	tests := []struct {
		name  string
		style Style
		area  bool
		check func(t *testing.T, r Resolved)
	}{
		{
			name:  "water",
			style: Style{Color: "#3388ff", Weight: 1, FillOpacity: ptr(1.0)},
			area:  true,
			check: func(t *testing.T, r Resolved) {
				assert.Equal(t, 1.0, r.Weight)
				assert.Equal(t, 1.0, r.FillOpacity)
				assert.Equal(t, "#3388ff", r.FillColor)
			},
		},
		{
			name:  "green without stroke",
			style: Style{Color: "#33ff88", Weight: 1, Stroke: ptr(false)},
			area:  true,
			check: func(t *testing.T, r Resolved) {
				assert.False(t, r.Stroke)
				assert.True(t, r.Fill)
			},
		},
		{
			name:  "explicit fill color",
			style: Style{Color: "#333333", FillColor: "#ffffff"},
			area:  true,
			check: func(t *testing.T, r Resolved) {
				assert.Equal(t, "#333333", r.Color)
				assert.Equal(t, "#ffffff", r.FillColor)
			},
		},
		{
			name:  "forced fill on a line",
			style: Style{Fill: ptr(true)},
			area:  false,
			check: func(t *testing.T, r Resolved) {
				assert.True(t, r.Fill)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.style.Resolve(tt.area))
		})
	}
}

func TestEncodeURIComponent(t *testing.T) {
	tests := map[string]string{
		`<svg width="24"/>`: `%3Csvg%20width%3D%2224%22%2F%3E`,
		"a b+c":             "a%20b%2Bc",
		"!'()*-_.~":         "!'()*-_.~",
		"#fff":              "%23fff",
	}

	for in, want := range tests {
		assert.Equal(t, want, EncodeURIComponent(in), in)
	}
}

func TestIconDataURL(t *testing.T) {
	icon := Icon{SVG: `<svg/>`, Size: []int{24, 24}, Anchor: []int{12, 12}}

	assert.Equal(t, "data:image/svg+xml,%3Csvg%2F%3E", icon.DataURL())
	assert.Equal(t, 24, icon.Width())
	assert.Equal(t, 24, icon.Height())
	assert.Equal(t, 12, icon.AnchorX())
	assert.Equal(t, 12, icon.AnchorY())
	assert.Equal(t, 0, Icon{}.AnchorY())
}

func TestPatternURL(t *testing.T) {
	assert.Equal(t, "url(#water)", Pattern{ID: "water"}.URL())
}
