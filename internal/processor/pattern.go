package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/campusmap/internal/style"

	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
)

// PatternPath returns the cached file of a pattern image.
func PatternPath(cacheDir, id string) string {
	return filepath.Join(cacheDir, "patterns", id+".webp")
}

// ProcessPattern downloads (or opens) the pattern image, scales it to the
// pattern tile size and caches it as WebP.
func ProcessPattern(client *http.Client, cacheDir string, p style.Pattern, force bool) error {
	outPath := PatternPath(cacheDir, p.ID)

	if !force {
		if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
			log.Debug().Str("pattern", p.ID).Msg("Pattern cached, skipping")
			return nil
		}
	}

	srcImg, err := loadSourceImage(client, p.Href)
	if err != nil {
		return fmt.Errorf("pattern %s: %w", p.ID, err)
	}

	dstImg := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	xdraw.CatmullRom.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Over, nil)

	if err := writeWebP(outPath, dstImg, 85); err != nil {
		return fmt.Errorf("pattern %s: %w", p.ID, err)
	}

	log.Info().
		Str("pattern", p.ID).
		Int("width", p.Width).
		Int("height", p.Height).
		Str("path", outPath).
		Msg("Pattern cached")

	return nil
}

func loadSourceImage(client *http.Client, source string) (image.Image, error) {
	var reader io.Reader

	if strings.HasPrefix(source, "http") {
		// Remote URL
		log.Info().Str("url", source).Msg("Downloading source image...")
		resp, err := client.Get(source)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("download failed: %d", resp.StatusCode)
		}

		// Need to buffer for decoding if stream doesn't support seek (some decoders need it)
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(bodyBytes)
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()

		reader = f
	}

	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	log.Debug().Str("format", format).Msg("Image decoded successfully")
	return img, nil
}
