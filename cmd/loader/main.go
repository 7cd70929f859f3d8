package main

import (
	"crypto/tls"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/campusmap/internal/composer"
	"github.com/woozymasta/campusmap/internal/config"
	"github.com/woozymasta/campusmap/internal/geo"
	"github.com/woozymasta/campusmap/internal/logger"
	"github.com/woozymasta/campusmap/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile   string `short:"c" long:"config"        env:"CONFIG_FILE"  description:"Path to configuration file" default:"config.yaml"`
	BoundLayer   string `short:"b" long:"bound-layer"   env:"BOUND_LAYER"  description:"Layer whose extent limits the tile download" default:"boundary"`
	Concurrency  int    `short:"p" long:"concurrency"   env:"CONCURRENCY"  description:"Concurrency" default:"16"`
	TilesOnly    bool   `short:"t" long:"tiles-only"    description:"Download tiles only"`
	PatternsOnly bool   `short:"P" long:"patterns-only" description:"Download patterns only"`
	Force        bool   `short:"f" long:"force"         description:"Force overwrite of existing files"`
	FastCheck    bool   `short:"F" long:"fast-check"    description:"Skip processing if cache exist"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	processTiles := true
	processPatterns := true
	if opts.TilesOnly && !opts.PatternsOnly {
		processPatterns = false
	} else if opts.PatternsOnly && !opts.TilesOnly {
		processTiles = false
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: 15 * time.Second,
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 16
	}

	log.Info().
		Str("cache", cfg.CachePath()).
		Int("patterns", len(cfg.Patterns)).
		Bool("fast_check", opts.FastCheck).
		Msg("Starting loader")

	if processPatterns {
		for _, p := range cfg.Patterns {
			if err := processor.ProcessPattern(client, cfg.CachePath(), p, opts.Force); err != nil {
				log.Error().Err(err).Str("pattern", p.ID).Msg("Failed to process pattern")
			}
		}
	}

	if processTiles {
		sources, err := composer.LoadSources(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load layer sources")
		}

		bound, ok := extent(sources, opts.BoundLayer)
		if !ok {
			log.Fatal().Msg("Layer sources have no geometry, nothing to download")
		}

		log.Debug().
			Floats64("min", bound.Min[:]).
			Floats64("max", bound.Max[:]).
			Msg("Tile extent")

		processor.ProcessTiles(client, cfg, bound, opts.Concurrency, opts.Force, opts.FastCheck)
	}

	log.Info().Msg("Loader finished successfully")
}

// extent returns the bound of the named layer, or of every layer when that
// one is missing or empty.
func extent(sources composer.Sources, layer string) (orb.Bound, bool) {
	if fc, ok := sources[layer]; ok {
		if b, ok := geo.CollectionBound(fc); ok {
			return b, true
		}
		log.Warn().Str("layer", layer).Msg("Bound layer is empty, using all layers")
	}

	all := make([]*geojson.FeatureCollection, 0, len(sources))
	for _, fc := range sources {
		all = append(all, fc)
	}
	return geo.CollectionBound(all...)
}
