package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/woozymasta/campusmap/internal/composer"
	"github.com/woozymasta/campusmap/internal/config"
	"github.com/woozymasta/campusmap/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string   `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Output     string   `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format     string   `short:"f" long:"format" description:"Output format" choice:"svg" choice:"json" choice:"yaml" default:"svg"`
	Hide       []string `short:"H" long:"hide"   description:"Control label of a layer to hide, may be repeated"`
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

	sources, err := composer.LoadSources(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load layer sources")
	}

	m, err := composer.Compose(cfg, sources)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compose map")
	}

	for _, label := range opts.Hide {
		if err := m.Control.SetVisible(label, false); err != nil {
			log.Fatal().Err(err).Str("label", label).Msg("Failed to hide layer")
		}
	}

	// marshal
	var outputData []byte
	switch opts.Format {
	case "json":
		outputData, err = json.MarshalIndent(m.Composition(), "", "  ")
	case "yaml":
		outputData, err = yaml.Marshal(m.Composition())
	default:
		outputData, err = renderSVG(m)
	}
	if err != nil {
		log.Fatal().Err(err).Str("format", opts.Format).Msg("Failed to render map")
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, outputData, 0644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write output file")
		}
		log.Info().
			Str("path", opts.Output).
			Str("format", opts.Format).
			Int("layers", len(m.Viewport.Active())).
			Msg("Map rendered")
	} else {
		fmt.Println(string(outputData))
	}
}

func renderSVG(m *composer.Map) ([]byte, error) {
	doc, err := m.Render()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.WriteSVG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
