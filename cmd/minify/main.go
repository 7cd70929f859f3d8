package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/woozymasta/campusmap/internal/composer"
	"github.com/woozymasta/campusmap/internal/config"
	"github.com/woozymasta/campusmap/internal/logger"
	"github.com/woozymasta/campusmap/internal/web"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Output     string `short:"o" long:"out"    description:"Output HTML file" default:"index.html"`
	CSS        string `long:"css"              description:"Stylesheet to inline instead of the embedded one"`
	JS         string `long:"js"               description:"Script to inline instead of the embedded one"`
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

	m := web.NewMinifier()
	if err := web.MinifyIcons(m, cfg.Icons); err != nil {
		log.Fatal().Err(err).Msg("Failed to minify icons")
	}

	sources, err := composer.LoadSources(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load layer sources")
	}

	campus, err := composer.Compose(cfg, sources)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compose map")
	}

	composition, err := json.Marshal(campus.Composition())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode composition")
	}

	data := web.PageData{
		Title:       cfg.Name,
		Container:   cfg.Viewport.Container,
		Composition: string(composition),
	}
	if data.CSS, err = readOptional(opts.CSS); err != nil {
		log.Fatal().Err(err).Msg("Failed to read CSS")
	}
	if data.JS, err = readOptional(opts.JS); err != nil {
		log.Fatal().Err(err).Msg("Failed to read JS")
	}

	page, err := web.BuildIndex(m, data)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build page")
	}

	if err := os.WriteFile(opts.Output, page, 0644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write page")
	}

	log.Info().
		Str("path", opts.Output).
		Int("bytes", len(page)).
		Msg("minify done")
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
