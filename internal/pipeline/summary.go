package pipeline

import (
	"time"

	"sportsdb_sync/ingestion/internal/models"
)

// Outcome is the terminal state of a unit of work
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeSkipped  Outcome = "skipped-no-data"
	OutcomeFailed   Outcome = "failed"
)

// UnitResult is what happened to one fetch-extract-map-load pass
type UnitResult struct {
	Kind     models.Kind
	LeagueID int64 // team units only
	URL      string
	Outcome  Outcome
	Records  int
	Err      error
}

// Summary describes a finished run
type Summary struct {
	RunID    string
	Units    []UnitResult
	Duration time.Duration

	// TeamsSkipped says why the team sync stopped early, empty when it ran
	// to the end
	TeamsSkipped string
}

// Count returns the number of units of kind that ended in outcome
func (s Summary) Count(kind models.Kind, outcome Outcome) int {
	n := 0
	for _, u := range s.Units {
		if u.Kind == kind && u.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failed returns the number of failed units of either kind
func (s Summary) Failed() int {
	return s.Count(models.KindLeague, OutcomeFailed) + s.Count(models.KindTeam, OutcomeFailed)
}

// Records returns the number of records inserted by the run
func (s Summary) Records() int {
	n := 0
	for _, u := range s.Units {
		n += u.Records
	}
	return n
}

// Status is "success" when every unit completed and the team sync ran to the
// end, "failed" when nothing completed, and "partial" otherwise
func (s Summary) Status() string {
	failed := s.Failed()
	if failed == 0 && s.TeamsSkipped == "" {
		return "success"
	}
	if failed == len(s.Units) {
		return "failed"
	}
	return "partial"
}
