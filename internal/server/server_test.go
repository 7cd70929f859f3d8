package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woozymasta/campusmap/internal/composer"
	"github.com/woozymasta/campusmap/internal/config"
	"github.com/woozymasta/campusmap/internal/processor"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestContext loads the repository configuration with a temporary cache.
// prepare runs on the cache directory before the context is built.
func newTestContext(t *testing.T, prepare func(cacheDir string)) *ServerContext {
	t.Helper()

	cfg, err := config.Load(filepath.Join("..", "..", "config.yaml"))
	require.NoError(t, err)
	cfg.CacheDir = t.TempDir()

	sources, err := composer.LoadSources(cfg)
	require.NoError(t, err)

	if prepare != nil {
		prepare(cfg.CacheDir)
	}

	s, err := NewServerContext(cfg, sources)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.HandlerFunc, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRemoteResourcesWithoutCache(t *testing.T) {
	s := newTestContext(t, nil)

	assert.Contains(t, s.Config.Basemap.URL, "{s}")
	assert.NotEmpty(t, s.Config.Basemap.Subdomains)
	assert.True(t, strings.HasPrefix(s.Config.Patterns["water"].Href, "https://"))
	assert.NotEmpty(t, s.TransparentTile)
	assert.NotEmpty(t, s.IndexHTML)
}

func TestLocalResourcesWithCache(t *testing.T) {
	s := newTestContext(t, func(dir string) {
		require.NoError(t, os.MkdirAll(processor.TilesDir(dir), 0o755))
		path := processor.PatternPath(dir, "water")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))
	})

	assert.Equal(t, localTileURL, s.Config.Basemap.URL)
	assert.Empty(t, s.Config.Basemap.Subdomains)
	assert.Equal(t, "/patterns/water.webp", s.Config.Patterns["water"].Href)

	rec := get(t, s.HandlePattern, "/patterns/water.webp")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.Equal(t, "RIFF", rec.Body.String())

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	rec = get(t, s.HandlePattern, "/patterns/water.webp", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = get(t, s.HandlePattern, "/patterns/lava.webp")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleComposition(t *testing.T) {
	s := newTestContext(t, nil)

	rec := get(t, s.HandleComposition, "/api/map")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var c struct {
		Container string `json:"container"`
		Layers    []struct {
			ID      string `json:"id"`
			Visible bool   `json:"visible"`
		} `json:"layers"`
		Control struct {
			Entries []struct {
				Label string `json:"label"`
			} `json:"entries"`
		} `json:"control"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))

	assert.Equal(t, s.Config.Viewport.Container, c.Container)
	require.Len(t, c.Layers, len(s.Config.Layers)+1)
	assert.Equal(t, s.Config.Basemap.ID, c.Layers[0].ID)
	for _, l := range c.Layers {
		assert.True(t, l.Visible, l.ID)
	}
	assert.Len(t, c.Control.Entries, len(s.Config.Control.Entries))
}

func TestHandleLayers(t *testing.T) {
	s := newTestContext(t, nil)

	rec := get(t, s.HandleLayers, "/api/layers")
	require.Equal(t, http.StatusOK, rec.Code)

	var layers []layerInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layers))
	require.Len(t, layers, len(s.Config.Layers)+1)

	assert.Equal(t, string(composer.KindTile), layers[0].Kind)
	for i, l := range s.Config.Layers {
		got := layers[i+1]
		assert.Equal(t, l.ID, got.ID)
		assert.Equal(t, l.Label, got.Label)
		assert.Equal(t, l.Kind, got.Kind)
		assert.Positive(t, got.Features, l.ID)
	}
}

func TestHandleSnapshot(t *testing.T) {
	s := newTestContext(t, nil)

	rec := get(t, s.HandleSnapshot, "/map.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<svg"))
	assert.Contains(t, body, `data-layer="water"`)
	assert.Contains(t, body, `<pattern id="water"`)
	assert.Contains(t, body, "url(#water)")

	water := s.Config.Label("water")
	rec = get(t, s.HandleSnapshot, "/map.svg?hide="+url.QueryEscape(water))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `data-layer="water"`)
	assert.Contains(t, rec.Body.String(), `data-layer="buildings"`)

	rec = get(t, s.HandleSnapshot, "/map.svg?hide=nowhere")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleData(t *testing.T) {
	s := newTestContext(t, nil)

	rec := get(t, s.HandleData, "/data/water.geojson")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "FeatureCollection")

	for _, target := range []string{"/data/lava.geojson", "/data/water.json", "/data/a/water.geojson"} {
		rec = get(t, s.HandleData, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestHandleTile(t *testing.T) {
	s := newTestContext(t, func(dir string) {
		path := processor.TilePath(dir, maptile.New(54229, 26866, 16))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("cached"), 0o644))
	})

	rec := get(t, s.HandleTile, "/tiles/16/54229/26866.webp")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cached", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	// missing tiles fall back to a transparent tile
	rec = get(t, s.HandleTile, "/tiles/16/54230/26866.webp")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.Equal(t, s.TransparentTile, rec.Body.Bytes())

	for _, target := range []string{"/tiles/16/x/1.webp", "/tiles/16/1/1.png", "/tiles/16/1.webp"} {
		rec = get(t, s.HandleTile, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestHandleIndexAndFavicon(t *testing.T) {
	s := newTestContext(t, nil)

	rec := get(t, s.HandleIndex, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "leaflet")
	etag := rec.Header().Get("ETag")

	rec = get(t, s.HandleIndex, "/", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = get(t, s.HandleIndex, "/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, s.HandleFavicon, "/favicon.ico")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestIndexETagTracksContent(t *testing.T) {
	s := newTestContext(t, nil)

	rec := get(t, s.HandleIndex, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentETag(s.IndexHTML), rec.Header().Get("ETag"))

	// same length, different page
	a := &ServerContext{IndexHTML: []byte("<p>east</p>")}
	b := &ServerContext{IndexHTML: []byte("<p>west</p>")}
	etagA := get(t, a.HandleIndex, "/").Header().Get("ETag")
	etagB := get(t, b.HandleIndex, "/").Header().Get("ETag")
	require.NotEmpty(t, etagA)
	assert.NotEqual(t, etagA, etagB)

	rec = get(t, b.HandleIndex, "/", "If-None-Match", etagA)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>west</p>", rec.Body.String())
}

func TestRequestLogger(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tiles/1/1/1.webp", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "tea", rec.Body.String())
}
