package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"sportsdb_sync/ingestion/internal/eventlog"
)

// Job is one scheduled sync run
type Job func(ctx context.Context)

// Scheduler triggers the sync on a cron schedule. A run that is still going
// when the next tick fires makes that tick a no-op, so runs never overlap.
type Scheduler struct {
	spec   string
	job    Job
	events eventlog.Sink
	cron   *cron.Cron
}

// New creates a scheduler for job on a standard five-field cron spec
func New(spec string, job Job, events eventlog.Sink) *Scheduler {
	if events == nil {
		events = eventlog.Discard
	}
	logger := cronLogger{events: events}
	return &Scheduler{
		spec:   spec,
		job:    job,
		events: events,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start schedules the job and starts the cron loop. Jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.events.Record(eventlog.Info("Scheduler starting..."))

	id, err := s.cron.AddFunc(s.spec, func() {
		s.events.Record(eventlog.Info("Running scheduled sync..."))
		s.job(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync: %w", err)
	}

	s.cron.Start()
	s.events.Record(eventlog.Info("Sync scheduled",
		"schedule", s.spec,
		"next", s.cron.Entry(id).Next,
	))

	return nil
}

// Stop stops the cron loop and waits for a running job to return
func (s *Scheduler) Stop() {
	s.events.Record(eventlog.Info("Stopping scheduler..."))
	<-s.cron.Stop().Done()
	s.events.Record(eventlog.Info("Scheduler stopped"))
}

// cronLogger routes cron's own logging into the event sink
type cronLogger struct {
	events eventlog.Sink
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.events.Record(eventlog.Debug("cron: "+msg, keysAndValues...))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.events.Record(eventlog.Error("cron: "+msg, err, keysAndValues...))
}
