// Command migrate applies the api_leagues/api_assets schema.
//
//	migrate up
//	migrate down [N]
//	migrate version
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog/log"

	"sportsdb_sync/ingestion/internal/config"
	"sportsdb_sync/ingestion/internal/repository"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.MustLoad()

	m, err := repository.NewMigrator(repository.Config{
		URL:      cfg.DatabaseURL,
		Password: cfg.DatabasePassword,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize migrator")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Error().AnErr("source", srcErr).AnErr("database", dbErr).Msg("Failed to close migrator")
		}
	}()

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = strconv.Atoi(os.Args[2])
			if err != nil || steps < 1 {
				log.Fatal().Str("steps", os.Args[2]).Msg("down takes a positive number of steps")
			}
		}
		err = m.Steps(-steps)
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return
		}
		if verr != nil {
			log.Fatal().Err(verr).Msg("Failed to read migration version")
		}
		fmt.Printf("version %d (dirty=%t)\n", version, dirty)
		return
	default:
		usage()
		os.Exit(2)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Str("command", os.Args[1]).Msg("No migrations to apply")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Migration failed")
	}
	log.Info().Str("command", os.Args[1]).Msg("Migration complete")
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up | down [N] | version")
}
