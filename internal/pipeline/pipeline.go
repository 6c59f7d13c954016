package pipeline

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"sportsdb_sync/ingestion/internal/cache"
	"sportsdb_sync/ingestion/internal/client"
	"sportsdb_sync/ingestion/internal/eventlog"
	"sportsdb_sync/ingestion/internal/extract"
	"sportsdb_sync/ingestion/internal/mapper"
	"sportsdb_sync/ingestion/internal/metrics"
	"sportsdb_sync/ingestion/internal/models"
	"sportsdb_sync/ingestion/internal/repository"
)

// DefaultBaseURL is TheSportsDB v1 API with the public test key
const DefaultBaseURL = "https://www.thesportsdb.com/api/v1/json/3"

// Fetcher retrieves one decoded JSON document
type Fetcher interface {
	Fetch(ctx context.Context, url string) (map[string]any, error)
}

// Store receives loaded batches and knows which leagues exist
type Store interface {
	Insert(ctx context.Context, table string, records []models.Record) error
	LeagueIDs(ctx context.Context) ([]int64, error)
}

// Locker guards a run against concurrent runs
type Locker interface {
	Acquire(ctx context.Context) (func(context.Context) error, error)
}

// Pipeline runs the league sync followed by the per-league team sync
type Pipeline struct {
	fetcher Fetcher
	store   Store
	events  eventlog.Sink
	baseURL string

	continueOnLeagueFailure bool
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithBaseURL sets the API base URL, API key included
func WithBaseURL(url string) Option {
	return func(p *Pipeline) { p.baseURL = url }
}

// WithContinueOnLeagueFailure runs the team sync even when the league sync
// failed, using whatever leagues the store already has
func WithContinueOnLeagueFailure(enabled bool) Option {
	return func(p *Pipeline) { p.continueOnLeagueFailure = enabled }
}

// New creates a pipeline. A nil sink discards events.
func New(fetcher Fetcher, store Store, events eventlog.Sink, opts ...Option) *Pipeline {
	if events == nil {
		events = eventlog.Discard
	}
	p := &Pipeline{
		fetcher: fetcher,
		store:   store,
		events:  events,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs one full pass. It never fails as a whole: every unit of work
// ends in a terminal state recorded in the Summary.
func (p *Pipeline) Run(ctx context.Context) Summary {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString()}
	events := eventlog.With(p.events, "run_id", summary.RunID)

	events.Record(eventlog.Info("Sync run started"))

	league := p.runUnit(ctx, events, models.Leagues, 0, models.Leagues.URL(p.baseURL))
	summary.Units = append(summary.Units, league)

	if league.Outcome == OutcomeFailed && !p.continueOnLeagueFailure {
		summary.TeamsSkipped = "league sync failed"
		events.Record(eventlog.Warn("Skipping team sync after league failure"))
	} else {
		p.runTeams(ctx, events, &summary)
	}

	summary.Duration = time.Since(start)
	metrics.RecordSync(summary.Status(), summary.Duration.Seconds())

	events.Record(eventlog.Info("Sync run complete",
		"status", summary.Status(),
		"leagues_inserted", summary.Count(models.KindLeague, OutcomeInserted),
		"teams_inserted", summary.Count(models.KindTeam, OutcomeInserted),
		"teams_skipped", summary.Count(models.KindTeam, OutcomeSkipped),
		"units_failed", summary.Failed(),
		"records", summary.Records(),
		"duration", summary.Duration,
	))

	return summary
}

// RunExclusive runs under the lock. It reports false when another run holds
// the lock or the lock could not be taken; nothing is synced then.
func (p *Pipeline) RunExclusive(ctx context.Context, locker Locker) (Summary, bool) {
	unlock, err := locker.Acquire(ctx)
	if err != nil {
		metrics.RecordSkippedSync()
		if errors.Is(err, cache.ErrLocked) {
			p.events.Record(eventlog.Warn("Sync run skipped, another run holds the lock"))
		} else {
			metrics.RecordError("pipeline", "lock")
			p.events.Record(eventlog.Error("Sync run skipped, failed to take the run lock", err))
		}
		return Summary{}, false
	}

	defer func() {
		// The run's own ctx may be cancelled by now
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := unlock(releaseCtx); err != nil {
			p.events.Record(eventlog.Error("Failed to release run lock", err))
		}
	}()

	return p.Run(ctx), true
}

func (p *Pipeline) runTeams(ctx context.Context, events eventlog.Sink, summary *Summary) {
	ids, err := p.store.LeagueIDs(ctx)
	if err != nil {
		summary.TeamsSkipped = "failed to read league ids"
		metrics.RecordError("pipeline", "league_ids")
		events.Record(eventlog.Error("Failed to read league ids", err))
		return
	}

	events.Record(eventlog.Info("Syncing teams", "leagues", len(ids)))

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			summary.TeamsSkipped = "cancelled"
			events.Record(eventlog.Warn("Team sync cancelled", "remaining", len(ids)-i))
			return
		}
		summary.Units = append(summary.Units, p.runUnit(ctx, events, models.Teams, id, models.Teams.URL(p.baseURL, id)))
	}
}

// runUnit is the error boundary of one unit of work: fetch, extract, map and
// load a single document. Whatever happens is reported in the result.
func (p *Pipeline) runUnit(ctx context.Context, events eventlog.Sink, entity models.Entity, leagueID int64, url string) UnitResult {
	result := UnitResult{Kind: entity.Kind, LeagueID: leagueID, URL: url}

	kv := []any{"kind", string(entity.Kind), "url", url}
	if entity.Kind == models.KindTeam {
		kv = append(kv, "league_id", leagueID)
	}
	events = eventlog.With(events, kv...)

	n, ok, err := p.process(ctx, entity, url)
	switch {
	case err != nil:
		result.Outcome = OutcomeFailed
		result.Err = err
		cause := Classify(err)
		metrics.RecordError("pipeline", cause)
		events.Record(eventlog.Error("Unit of work failed", err, "cause", cause))
	case !ok:
		result.Outcome = OutcomeSkipped
		events.Record(eventlog.Info("No data returned, nothing to insert"))
	default:
		result.Outcome = OutcomeInserted
		result.Records = n
		events.Record(eventlog.Info("Data inserted successfully", "table", entity.Table, "records", n))
	}

	metrics.RecordUnit(string(entity.Kind), string(result.Outcome))
	return result
}

// process reports how many records were loaded, and false when the response
// held no data
func (p *Pipeline) process(ctx context.Context, entity models.Entity, url string) (int, bool, error) {
	raw, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return 0, false, err
	}

	records, ok, err := extract.Extract(raw, entity)
	if err != nil || !ok {
		return 0, false, err
	}

	rows := mapper.Map(records, entity.Renames())
	if err := p.store.Insert(ctx, entity.Table, rows); err != nil {
		return 0, false, err
	}
	return len(rows), true, nil
}

// Classify names the stage an error came from: fetch, schema, load or unknown
func Classify(err error) string {
	var fetchErr *client.FetchError
	var schemaErr *extract.SchemaError
	var loadErr *repository.LoadError

	switch {
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.As(err, &loadErr):
		return "load"
	default:
		return "unknown"
	}
}
