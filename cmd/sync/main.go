// Command sync performs one full league and team sync from TheSportsDB and
// exits. Failed units are logged; the exit status is non-zero only when the
// configuration or the store connection is unusable.
package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"sportsdb_sync/ingestion/internal/app"
	"sportsdb_sync/ingestion/internal/config"
	"sportsdb_sync/ingestion/internal/eventlog"
)

func main() {
	cfg := config.MustLoad()
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sync")
	}
	defer a.Close()

	a.Events.Record(eventlog.Info("Starting SportsDB sync",
		"env", cfg.AppEnv,
		"continue_on_league_failure", cfg.ContinueOnLeagueFailure,
	))

	if _, ran := a.RunOnce(ctx); !ran {
		a.Events.Record(eventlog.Info("Sync not started"))
	}

	a.PushMetrics(ctx)
}
