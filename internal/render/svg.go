// Package render builds and writes SVG snapshots of a map view.
package render

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Shape elements.
const (
	ElementPath   = "path"
	ElementImage  = "image"
	ElementCircle = "circle"
)

// Shape is one rendered element owned by a layer.
type Shape struct {
	Attrs   map[string]string
	Layer   string
	Element string
}

// Attr returns an attribute value.
func (s *Shape) Attr(name string) string {
	return s.Attrs[name]
}

// SetAttr sets an attribute value.
func (s *Shape) SetAttr(name, value string) {
	if s.Attrs == nil {
		s.Attrs = make(map[string]string)
	}
	s.Attrs[name] = value
}

// PatternDef is an image pattern definition placed in <defs>.
type PatternDef struct {
	ID     string
	Href   string
	Width  int
	Height int
}

// Document is a rendered map view.
type Document struct {
	Patterns []PatternDef
	Shapes   []*Shape
	Width    int
	Height   int
}

// NewDocument creates an empty document of the given pixel size.
func NewDocument(width, height int) *Document {
	return &Document{Width: width, Height: height}
}

// Add appends a shape on top of the ones already rendered.
func (d *Document) Add(s *Shape) {
	d.Shapes = append(d.Shapes, s)
}

// DefinePattern registers a pattern. A pattern id is defined only once;
// later definitions with the same id are ignored.
func (d *Document) DefinePattern(p PatternDef) {
	for _, existing := range d.Patterns {
		if existing.ID == p.ID {
			return
		}
	}
	d.Patterns = append(d.Patterns, p)
}

// LayerShapes returns the shapes owned by a layer, in render order.
func (d *Document) LayerShapes(layer string) []*Shape {
	var out []*Shape
	for _, s := range d.Shapes {
		if s.Layer == layer {
			out = append(out, s)
		}
	}
	return out
}

// WriteSVG writes the document as a standalone SVG image. Shapes are
// grouped per layer in render order.
func (d *Document) WriteSVG(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		d.Width, d.Height, d.Width, d.Height)

	if len(d.Patterns) > 0 {
		bw.WriteString("<defs>")
		for _, p := range d.Patterns {
			fmt.Fprintf(bw, `<pattern id="%s" width="%d" height="%d" patternUnits="userSpaceOnUse">`,
				escape(p.ID), p.Width, p.Height)
			fmt.Fprintf(bw, `<image href="%s" x="0" y="0" width="%d" height="%d"/>`,
				escape(p.Href), p.Width, p.Height)
			bw.WriteString("</pattern>")
		}
		bw.WriteString("</defs>")
	}

	group := ""
	for i, s := range d.Shapes {
		if i == 0 || s.Layer != group {
			if i > 0 {
				bw.WriteString("</g>")
			}
			group = s.Layer
			fmt.Fprintf(bw, `<g class="layer" data-layer="%s">`, escape(group))
		}
		writeShape(bw, s)
	}
	if len(d.Shapes) > 0 {
		bw.WriteString("</g>")
	}

	bw.WriteString("</svg>")

	return bw.Flush()
}

func writeShape(w *bufio.Writer, s *Shape) {
	names := make([]string, 0, len(s.Attrs))
	for name := range s.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	w.WriteByte('<')
	w.WriteString(s.Element)
	for _, name := range names {
		fmt.Fprintf(w, ` %s="%s"`, name, escape(s.Attrs[name]))
	}
	w.WriteString("/>")
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// Point is a pixel position.
type Point struct {
	X, Y float64
}

// PathData formats pixel rings as SVG path data. Closed rings end with z.
func PathData(rings [][]Point, closed bool) string {
	var b strings.Builder
	for _, ring := range rings {
		for i, p := range ring {
			if i == 0 {
				b.WriteByte('M')
			} else {
				b.WriteByte('L')
			}
			b.WriteString(Num(p.X))
			b.WriteByte(' ')
			b.WriteString(Num(p.Y))
		}
		if closed && len(ring) > 0 {
			b.WriteByte('z')
		}
	}
	return b.String()
}

// Num formats a pixel value rounded to 1/100 px.
func Num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
