package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/woozymasta/campusmap/internal/composer"
	"github.com/woozymasta/campusmap/internal/config"
	"github.com/woozymasta/campusmap/internal/processor"
	"github.com/woozymasta/campusmap/internal/web"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
)

// Local URL templates used when the cache holds the remote resources.
const (
	localTileURL    = "/tiles/{z}/{x}/{y}.webp"
	localPatternURL = "/patterns/%s.webp"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config          *config.Config
	Sources         composer.Sources
	IndexHTML       []byte
	IndexETag       string
	Favicon         []byte
	TransparentTile []byte
	CacheDir        string
}

// NewServerContext prepares the configuration for serving. Remote tiles and
// patterns are swapped for local URLs when the loader has cached them, and
// one composition is built up front so configuration errors surface at start.
func NewServerContext(cfg *config.Config, sources composer.Sources) (*ServerContext, error) {
	log.Info().Int("layers", len(cfg.Layers)).Msg("Initializing server context")

	cacheDir := cfg.CachePath()
	m := web.NewMinifier()

	if err := web.MinifyIcons(m, cfg.Icons); err != nil {
		return nil, err
	}

	// Check basemap cache
	tilesDir := processor.TilesDir(cacheDir)
	if info, err := os.Stat(tilesDir); err == nil && info.IsDir() {
		cfg.Basemap.URL = localTileURL
		cfg.Basemap.Subdomains = ""
		log.Debug().
			Str("path", tilesDir).
			Msg("Basemap served from tile cache")
	} else {
		log.Trace().
			Str("path", tilesDir).
			Msg("Tile cache not found, using remote basemap")
	}

	// Check pattern cache
	for id, p := range cfg.Patterns {
		path := processor.PatternPath(cacheDir, id)
		if _, err := os.Stat(path); err != nil {
			log.Trace().
				Str("pattern", id).
				Str("path", path).
				Msg("Pattern cache not found, using remote image")
			continue
		}
		p.Href = fmt.Sprintf(localPatternURL, id)
		cfg.Patterns[id] = p
		log.Debug().Str("pattern", id).Msg("Pattern served from cache")
	}

	if _, err := composer.Compose(cfg, sources); err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}

	index, err := web.BuildIndex(m, web.PageData{
		Title:     cfg.Name,
		Container: cfg.Viewport.Container,
	})
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	tile, err := transparentTile()
	if err != nil {
		return nil, fmt.Errorf("encode transparent tile: %w", err)
	}

	log.Info().
		Int("sources", len(sources)).
		Int("index_bytes", len(index)).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:          cfg,
		Sources:         sources,
		IndexHTML:       index,
		IndexETag:       contentETag(index),
		Favicon:         favicon(cfg),
		TransparentTile: tile,
		CacheDir:        cacheDir,
	}, nil
}

// Compose builds a fresh map for one request.
func (s *ServerContext) Compose() (*composer.Map, error) {
	return composer.Compose(s.Config, s.Sources)
}

// CompositionJSON returns the composition as JSON.
func (s *ServerContext) CompositionJSON() ([]byte, error) {
	m, err := s.Compose()
	if err != nil {
		return nil, err
	}
	return json.Marshal(m.Composition())
}

// contentETag is a strong ETag derived from the body.
func contentETag(body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf(`"%x"`, sum[:12])
}

func transparentTile() ([]byte, error) {
	var buf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// favicon picks the first icon by name.
func favicon(cfg *config.Config) []byte {
	names := make([]string, 0, len(cfg.Icons))
	for name := range cfg.Icons {
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return []byte(cfg.Icons[names[0]].SVG)
}
