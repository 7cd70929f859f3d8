package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/woozymasta/campusmap/internal/composer"
	"github.com/woozymasta/campusmap/internal/config"
	"github.com/woozymasta/campusmap/internal/logger"
	"github.com/woozymasta/campusmap/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
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

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	sources, err := composer.LoadSources(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load layer sources")
	}

	srvCtx, err := server.NewServerContext(cfg, sources)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/api/map", srvCtx.HandleComposition)
	mux.HandleFunc("/api/layers", srvCtx.HandleLayers)
	mux.HandleFunc("/map.svg", srvCtx.HandleSnapshot)
	mux.HandleFunc("/favicon.ico", srvCtx.HandleFavicon)
	mux.HandleFunc("/data/", srvCtx.HandleData)
	mux.HandleFunc("/tiles/", srvCtx.HandleTile)
	mux.HandleFunc("/patterns/", srvCtx.HandlePattern)
	mux.HandleFunc("/", srvCtx.HandleIndex)

	handler := server.RequestLogger(mux)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("name", cfg.Name).
		Int("layers_loaded", len(sources)).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
