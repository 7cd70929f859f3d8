package composer

import (
	"encoding/json"

	"github.com/woozymasta/campusmap/internal/render"
	"github.com/woozymasta/campusmap/internal/style"
)

// PostRenderHook patches a layer's rendered output after every layer has
// been drawn. It covers styles the declarative options cannot express.
type PostRenderHook interface {
	Apply(doc *render.Document, layer *Layer) error
}

// PatternFill fills every rendered path of the layer with an image pattern.
type PatternFill struct {
	Pattern style.Pattern
}

// Apply implements PostRenderHook.
func (h PatternFill) Apply(doc *render.Document, layer *Layer) error {
	doc.DefinePattern(render.PatternDef{
		ID:     h.Pattern.ID,
		Href:   h.Pattern.Href,
		Width:  h.Pattern.Width,
		Height: h.Pattern.Height,
	})

	for _, s := range doc.LayerShapes(layer.ID) {
		if s.Element == render.ElementPath {
			s.SetAttr("fill", h.Pattern.URL())
		}
	}

	return nil
}

// MarshalJSON describes the hook for the browser.
func (h PatternFill) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Pattern string `json:"pattern"`
	}{"pattern-fill", h.Pattern.ID})
}
