// Package processor downloads and caches basemap tiles and pattern images.
package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/woozymasta/campusmap/internal/config"
	"github.com/woozymasta/campusmap/internal/geo"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TilesDir returns the basemap tile cache directory.
func TilesDir(cacheDir string) string {
	return filepath.Join(cacheDir, "tiles")
}

// TilePath returns the cached file of a tile.
func TilePath(cacheDir string, t maptile.Tile) string {
	return filepath.Join(
		TilesDir(cacheDir),
		strconv.Itoa(int(t.Z)),
		strconv.Itoa(int(t.X)),
		strconv.Itoa(int(t.Y))+".webp",
	)
}

type job struct {
	URLTemplate string
	Subdomains  string
	CacheDir    string
	Tile        maptile.Tile
}

type result struct {
	Tile  maptile.Tile
	Valid bool
}

// Stats summarizes a tile run.
type Stats struct {
	Requested int
	Cached    int
}

// ProcessTiles caches every basemap tile covering the bound for each zoom
// of the configured basemap zoom range.
func ProcessTiles(client *http.Client, cfg *config.Config, bound orb.Bound, concurrency int, force, fastCheck bool) Stats {
	var stats Stats
	cacheDir := cfg.CachePath()
	baseDir := TilesDir(cacheDir)

	if fastCheck {
		if _, err := os.Stat(baseDir); err == nil {
			log.Info().
				Str("path", baseDir).
				Msg("Tile cache exists, skipping (fast-check)")
			return stats
		}
	}

	log.Info().
		Str("layer", cfg.Basemap.ID).
		Int("min_zoom", cfg.Basemap.MinZoom).
		Int("max_zoom", cfg.Basemap.MaxZoom).
		Msg("Starting tile download")

	for z := cfg.Basemap.MinZoom; z <= cfg.Basemap.MaxZoom; z++ {
		tiles := TileRange(bound, maptile.Zoom(z))

		log.Debug().Int("zoom", z).Int("count", len(tiles)).Msg("Processing zoom level")

		valid := processBatch(client, concurrency, tiles, job{
			URLTemplate: cfg.Basemap.URL,
			Subdomains:  cfg.Basemap.Subdomains,
			CacheDir:    cacheDir,
		}, force)

		stats.Requested += len(tiles)
		stats.Cached += len(valid)
	}

	log.Info().
		Int("requested", stats.Requested).
		Int("cached", stats.Cached).
		Msg("Tile download finished")

	return stats
}

// TileRange returns the tiles covering the bound at zoom z, row by row.
// Zooms past geo.MaxZoom yield nothing.
func TileRange(bound orb.Bound, z maptile.Zoom) []maptile.Tile {
	if z > geo.MaxZoom {
		return nil
	}

	// top-left and bottom-right corners in tile space
	tl := maptile.At(orb.Point{bound.Min[0], bound.Max[1]}, z)
	br := maptile.At(orb.Point{bound.Max[0], bound.Min[1]}, z)

	tiles := make([]maptile.Tile, 0, int(br.X-tl.X+1)*int(br.Y-tl.Y+1))
	for y := tl.Y; y <= br.Y; y++ {
		for x := tl.X; x <= br.X; x++ {
			tiles = append(tiles, maptile.New(x, y, z))
		}
	}

	return tiles
}

func processBatch(client *http.Client, concurrency int, tiles []maptile.Tile, tpl job, force bool) []maptile.Tile {
	if concurrency <= 0 {
		concurrency = 1
	}

	jobs := make(chan job, len(tiles))
	results := make(chan result, len(tiles))

	go func() {
		for _, t := range tiles {
			j := tpl
			j.Tile = t
			jobs <- j
		}
		close(jobs)
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				isValid, err := downloadAndConvert(client, j, force)
				if err != nil {
					log.Trace().
						Err(err).
						Str("url", tileURL(j)).
						Msg("Failed to download tile")
				}
				results <- result{Tile: j.Tile, Valid: isValid}
			}
		}()
	}
	wg.Wait()
	close(results)

	var valid []maptile.Tile
	for res := range results {
		if res.Valid {
			valid = append(valid, res.Tile)
		}
	}

	return valid
}

func tileURL(j job) string {
	return geo.TileURL(j.URLTemplate, j.Subdomains, int(j.Tile.X), int(j.Tile.Y), int(j.Tile.Z))
}

func downloadAndConvert(client *http.Client, j job, force bool) (bool, error) {
	outPath := TilePath(j.CacheDir, j.Tile)

	// Check existence if not forcing overwrite
	if !force {
		if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
			return true, nil
		}
	}

	url := tileURL(j)
	resp, err := client.Get(url)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		log.Trace().Str("url", url).Msg("Tile not found (404)")
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("status code %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	img, _, err := image.Decode(bytes.NewReader(bodyBytes))
	if err != nil {
		log.Trace().Err(err).Str("url", url).Msg("Failed to decode image")
		return false, nil // Not an image or corrupted
	}

	// Filter out empty/1px tiles often returned by map servers for OOB areas
	if img.Bounds().Dx() <= 1 {
		log.Trace().Str("url", url).Msg("Filtered empty tile")
		return false, nil
	}

	if err := writeWebP(outPath, img, 80); err != nil {
		return false, err
	}

	return true, nil
}

func writeWebP(path string, img image.Image, quality float32) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := webp.Encode(f, img, &webp.Options{Lossless: false, Quality: quality}); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
