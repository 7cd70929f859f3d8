// Package assets embeds the browser page sources.
package assets

import _ "embed"

// IndexTemplate is the HTML page template.
//
//go:embed index.html.tpl
var IndexTemplate string

// Script replays a composition with Leaflet.
//
//go:embed script.js
var Script string

// Style is the page stylesheet.
//
//go:embed style.css
var Style string
