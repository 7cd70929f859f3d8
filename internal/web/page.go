// Package web builds the minified browser page and minifies inline assets.
package web

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/woozymasta/campusmap/assets"
	"github.com/woozymasta/campusmap/internal/style"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	mjson "github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
)

// Media types registered on the minifier.
const (
	TypeCSS  = "text/css"
	TypeHTML = "text/html"
	TypeJS   = "text/javascript"
	TypeSVG  = "image/svg+xml"
	TypeJSON = "application/json"
)

// NewMinifier returns a minifier for every asset type the page uses.
func NewMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(TypeCSS, css.Minify)
	m.AddFunc(TypeHTML, html.Minify)
	m.AddFunc(TypeJS, js.Minify)
	m.AddFunc(TypeSVG, svg.Minify)
	m.AddFunc(TypeJSON, mjson.Minify)
	return m
}

// PageData is the input of the index template.
type PageData struct {
	Title     string
	Container string
	// composition JSON inlined into the page, empty to fetch /api/map
	Composition string
	CSS         string
	JS          string
}

// BuildIndex renders and minifies the index page. CSS and JS default to
// the embedded assets when empty.
func BuildIndex(m *minify.M, data PageData) ([]byte, error) {
	var err error

	if data.CSS == "" {
		data.CSS = assets.Style
	}
	if data.JS == "" {
		data.JS = assets.Script
	}

	if data.CSS, err = m.String(TypeCSS, data.CSS); err != nil {
		return nil, fmt.Errorf("minify CSS: %w", err)
	}
	if data.JS, err = m.String(TypeJS, data.JS); err != nil {
		return nil, fmt.Errorf("minify JS: %w", err)
	}
	if data.Composition != "" {
		if data.Composition, err = m.String(TypeJSON, data.Composition); err != nil {
			return nil, fmt.Errorf("minify composition: %w", err)
		}
	}

	tmpl, err := template.New("index").Parse(assets.IndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	out, err := m.Bytes(TypeHTML, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify HTML: %w", err)
	}

	return out, nil
}

// MinifyIcons minifies the SVG markup of every icon in place, so the data
// URLs built from them stay short.
func MinifyIcons(m *minify.M, icons map[string]style.Icon) error {
	for name, icon := range icons {
		out, err := m.String(TypeSVG, icon.SVG)
		if err != nil {
			return fmt.Errorf("icon %s: %w", name, err)
		}
		icon.SVG = out
		icons[name] = icon
	}
	return nil
}
