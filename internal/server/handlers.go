// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/woozymasta/campusmap/internal/composer"
	"github.com/woozymasta/campusmap/internal/processor"

	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog/log"
)

const etagCap = 64

// HandleComposition serves the map composition replayed by the page.
func (s *ServerContext) HandleComposition(w http.ResponseWriter, r *http.Request) {
	data, err := s.CompositionJSON()
	if err != nil {
		log.Error().Err(err).Msg("Failed to compose map")
		http.Error(w, "compose failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(data)
}

type layerInfo struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Features int    `json:"features"`
}

// HandleLayers lists the layers with their feature counts.
func (s *ServerContext) HandleLayers(w http.ResponseWriter, r *http.Request) {
	m, err := s.Compose()
	if err != nil {
		log.Error().Err(err).Msg("Failed to compose map")
		http.Error(w, "compose failed", http.StatusInternalServerError)
		return
	}

	layers := make([]layerInfo, 0, len(m.Viewport.Layers()))
	for _, lv := range m.Composition().Layers {
		layers = append(layers, layerInfo{
			ID:       lv.ID,
			Label:    lv.Label,
			Kind:     string(lv.Kind),
			Features: lv.Features,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(layers)
}

// HandleSnapshot renders the map as SVG. Every ?hide=<label> is toggled
// off through the layer control before rendering.
func (s *ServerContext) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	m, err := s.Compose()
	if err != nil {
		log.Error().Err(err).Msg("Failed to compose map")
		http.Error(w, "compose failed", http.StatusInternalServerError)
		return
	}

	for _, label := range r.URL.Query()["hide"] {
		if err := m.Control.SetVisible(label, false); err != nil {
			if errors.Is(err, composer.ErrUnknownLabel) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "toggle failed", http.StatusInternalServerError)
			return
		}
	}

	doc, err := m.Render()
	if err != nil {
		log.Error().Err(err).Msg("Failed to render map")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	if err := doc.WriteSVG(w); err != nil {
		log.Debug().Err(err).Msg("Failed to write snapshot")
	}
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/favicon.ico" || len(s.Favicon) == 0 {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	etag := s.IndexETag
	if etag == "" {
		etag = contentETag(s.IndexHTML)
	}

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleData serves layer sources: /data/{layer}.geojson
func (s *ServerContext) HandleData(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 || !strings.HasSuffix(parts[1], ".geojson") {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimSuffix(parts[1], ".geojson")
	for _, l := range s.Config.Layers {
		if l.ID != id {
			continue
		}
		if !s.serveFile(w, r, s.Config.SourcePath(l), "application/geo+json") {
			http.NotFound(w, r)
		}
		return
	}

	http.NotFound(w, r)
}

// HandleTile serves cached basemap tiles: /tiles/{z}/{x}/{y}.webp
// Missing tiles get a transparent tile so the map keeps rendering.
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || !strings.HasSuffix(parts[3], ".webp") {
		http.NotFound(w, r)
		return
	}

	// parse to prevent path probing
	z, errZ := strconv.ParseUint(parts[1], 10, 32)
	x, errX := strconv.ParseUint(parts[2], 10, 32)
	y, errY := strconv.ParseUint(strings.TrimSuffix(parts[3], ".webp"), 10, 32)
	if errZ != nil || errX != nil || errY != nil {
		http.NotFound(w, r)
		return
	}

	tile := maptile.New(uint32(x), uint32(y), maptile.Zoom(z))
	if s.serveFile(w, r, processor.TilePath(s.CacheDir, tile), "image/webp") {
		return
	}

	// cache transparent tile
	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(s.TransparentTile)
}

// HandlePattern serves cached pattern images: /patterns/{id}.webp
func (s *ServerContext) HandlePattern(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 || !strings.HasSuffix(parts[1], ".webp") {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimSuffix(parts[1], ".webp")
	if _, ok := s.Config.Patterns[id]; !ok {
		http.NotFound(w, r)
		return
	}

	if !s.serveFile(w, r, processor.PatternPath(s.CacheDir, id), "image/webp") {
		http.NotFound(w, r)
	}
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}
