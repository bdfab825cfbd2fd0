// Package main is the entry point for the forms API server. It serves the
// public contact, appointment and complaint forms behind the request security
// layer (rate limiting, CSRF, validation, content scanning) and the admin
// audit endpoints.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/config"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/server"
	"github.com/Aurelmax/gestion-formation-hub-backup-sub001/internal/utils"
)

// Version information is set during build time through linker flags.
var (
	// version represents the release version of the application.
	version = "dev"

	// commit is the git commit hash from which the application was built.
	commit = "none"

	// buildDate is the timestamp when the application was built.
	buildDate = "unknown"
)

// init loads environment variables from a .env file if present.
func init() {
	// Not finding a .env file is a non-fatal condition, as configuration
	// might be provided by other means.
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found or couldn't be loaded")
	}
}

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "./configs/config.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Forms API Server\nVersion: %s\nCommit: %s\nBuild Date: %s\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Bootstrap logger until the configured one is installed
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Override version from build if available (not in dev mode)
	if version != "dev" {
		cfg.App.Version = version
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("Server terminated")
		_ = utils.CloseLogger()
		os.Exit(1)
	}
}

// run starts the server and blocks until it stops. The log file is closed
// on return so that rotated output is flushed.
func run(cfg *config.AppConfig) error {
	utils.InitLogger(cfg)
	defer func() { _ = utils.CloseLogger() }()

	log.Info().
		Str("version", cfg.App.Version).
		Str("environment", cfg.App.Environment).
		Msg("Starting Forms API Server")

	utils.InitValidator()

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	srv.SetupMaintenanceTasks()

	return srv.Start()
}
