package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"sportsdb_sync/ingestion/internal/metrics"
	"sportsdb_sync/ingestion/internal/models"
)

// LoadError reports a batch the store rejected. Nothing from the batch was
// written.
type LoadError struct {
	Table string
	Rows  int
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %d rows into %s: %v", e.Rows, e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Insert writes records into table as one COPY, so the batch lands or fails
// as a unit. Every record must have the same columns in the same order.
// There is no conflict handling: inserting the same records twice stores
// them twice.
func (db *Database) Insert(ctx context.Context, table string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows, columns, err := copyRows(records)
	if err != nil {
		return &LoadError{Table: table, Rows: len(records), Err: err}
	}

	start := time.Now()
	n, err := db.Pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	duration := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordDBQuery("copy", table, "error", duration)
		return &LoadError{Table: table, Rows: len(records), Err: err}
	}

	metrics.RecordDBQuery("copy", table, "success", duration)
	metrics.RecordInserted(table, n)
	return nil
}

// LeagueIDs returns the distinct league ids present in api_leagues, ascending
func (db *Database) LeagueIDs(ctx context.Context) ([]int64, error) {
	start := time.Now()
	rows, err := db.Pool.Query(ctx, `SELECT DISTINCT league_id FROM api_leagues ORDER BY league_id`)
	if err != nil {
		metrics.RecordDBQuery("select", models.Leagues.Table, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to list league ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		metrics.RecordDBQuery("select", models.Leagues.Table, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to scan league ids: %w", err)
	}

	metrics.RecordDBQuery("select", models.Leagues.Table, "success", time.Since(start).Seconds())
	return ids, nil
}

// copyRows flattens records into COPY rows, checking they share one shape
func copyRows(records []models.Record) ([][]any, []string, error) {
	columns := records[0].Names()
	rows := make([][]any, len(records))

	for i, record := range records {
		if len(record) != len(columns) {
			return nil, nil, fmt.Errorf("record %d has %d fields, want %d", i, len(record), len(columns))
		}
		row := make([]any, len(record))
		for j, field := range record {
			if field.Name != columns[j] {
				return nil, nil, fmt.Errorf("record %d field %d is %q, want %q", i, j, field.Name, columns[j])
			}
			row[j] = columnValue(field.Value)
		}
		rows[i] = row
	}

	return rows, columns, nil
}

// columnValue normalizes passthrough JSON values for text and integer
// columns. Strings, integers and nil are written as they are.
func columnValue(v any) any {
	switch val := v.(type) {
	case nil, string, int64, int32, int:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}
