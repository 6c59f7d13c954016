// Package mapper renames canonical records to store column names.
package mapper

import "sportsdb_sync/ingestion/internal/models"

// Map renames every field found in renames and keeps the rest as they are.
// Record order, field order and field count are preserved.
func Map(records []models.Record, renames map[string]string) []models.Record {
	out := make([]models.Record, len(records))
	for i, record := range records {
		mapped := make(models.Record, len(record))
		for j, field := range record {
			name := field.Name
			if target, ok := renames[name]; ok {
				name = target
			}
			mapped[j] = models.Field{Name: name, Value: field.Value}
		}
		out[i] = mapped
	}
	return out
}
