// cmd/dbmigrate/main.go
package main

import (
	"database/sql"
	"errors"
	"flag"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/yogadesk/internal/config"
	"github.com/codr1/yogadesk/internal/db"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to the YAML config file (reads database.filename)")
		dbPath     = flag.String("db", "", "Path to SQLite database, overrides -config")
		command    = flag.String("command", "up", "Command to run (up, down, version)")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	path := *dbPath
	if path == "" && *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read config")
		}
		cfg, err := config.Parse(data)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to parse config")
		}
		path = cfg.Database.Filename
	}
	if path == "" {
		log.Error().Msg("Either -db or -config is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	absDB, err := filepath.Abs(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Invalid database path")
	}
	if err := os.MkdirAll(filepath.Dir(absDB), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database directory")
	}

	sqlDB, err := sql.Open("sqlite3", absDB+"?_fk=1")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	m, err := db.NewMigrator(sqlDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrate instance")
	}
	defer m.Close()

	logger := log.With().Str("db", absDB).Str("command", *command).Logger()
	switch *command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
		logger.Info().Msg("Migrations applied")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal().Err(err).Msg("Failed to roll back migrations")
		}
		logger.Info().Msg("Migrations rolled back")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info().Msg("No migrations applied")
			return
		}
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to get version")
		}
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current version")

	default:
		logger.Fatal().Msg("Unknown command")
	}
}
