// Package extract turns a decoded API payload into canonical records.
package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"sportsdb_sync/ingestion/internal/models"
)

var errMissing = errors.New("is missing")

// SchemaError reports a field that is structurally absent or cannot satisfy
// its coercion policy. Index is -1 when the problem concerns the collection
// as a whole rather than one record.
type SchemaError struct {
	Entity models.Kind
	Field  string
	Index  int
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s schema: field %q: %v", e.Entity, e.Field, e.Err)
	}
	return fmt.Sprintf("%s schema: record %d: field %q: %v", e.Entity, e.Index, e.Field, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Extract projects the entity's collection out of raw. The boolean is false
// when the collection is absent, null or empty, which is a valid "no data"
// outcome rather than an error.
func Extract(raw map[string]any, entity models.Entity) ([]models.Record, bool, error) {
	value, ok := raw[entity.Collection]
	if !ok || value == nil {
		return nil, false, nil
	}

	items, ok := value.([]any)
	if !ok {
		return nil, false, &SchemaError{
			Entity: entity.Kind,
			Field:  entity.Collection,
			Index:  -1,
			Err:    fmt.Errorf("is %T, want array", value),
		}
	}
	if len(items) == 0 {
		return nil, false, nil
	}

	rows := make([]map[string]any, len(items))
	for i, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, false, &SchemaError{
				Entity: entity.Kind,
				Field:  entity.Collection,
				Index:  i,
				Err:    fmt.Errorf("element is %T, want object", item),
			}
		}
		rows[i] = row
	}

	if err := checkRequired(rows, entity); err != nil {
		return nil, false, err
	}

	records := make([]models.Record, 0, len(rows))
	for i, row := range rows {
		record := make(models.Record, 0, len(entity.Fields))
		for _, field := range entity.Fields {
			v, err := coerce(row, field)
			if err != nil {
				return nil, false, &SchemaError{Entity: entity.Kind, Field: field.Source, Index: i, Err: err}
			}
			record = append(record, models.Field{Name: field.Source, Value: v})
		}
		records = append(records, record)
	}

	return records, true, nil
}

// checkRequired fails when a required field appears in no element at all,
// i.e. the payload does not have the expected shape.
func checkRequired(rows []map[string]any, entity models.Entity) error {
	for _, field := range entity.Fields {
		if field.Policy != models.PolicyRequiredInt {
			continue
		}
		found := false
		for _, row := range rows {
			if _, ok := row[field.Source]; ok {
				found = true
				break
			}
		}
		if !found {
			return &SchemaError{Entity: entity.Kind, Field: field.Source, Index: -1, Err: errMissing}
		}
	}
	return nil
}

func coerce(row map[string]any, field models.FieldSpec) (any, error) {
	v, present := row[field.Source]

	switch field.Policy {
	case models.PolicyRequiredInt:
		if !present || isEmpty(v) {
			return nil, errMissing
		}
		return toInt(v)
	case models.PolicyIntOrZero:
		if !present || isEmpty(v) {
			return int64(0), nil
		}
		return toInt(v)
	default:
		return v, nil
	}
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	}
	return false
}

// toInt reads integers the API sends as strings or as JSON numbers
func toInt(v any) (int64, error) {
	switch val := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer", val)
		}
		return n, nil
	case float64:
		if val != math.Trunc(val) || val >= math.MaxInt64 || val < math.MinInt64 {
			return 0, fmt.Errorf("value %v is not an integer", val)
		}
		return int64(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer", val.String())
		}
		return n, nil
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	}
	return 0, fmt.Errorf("value of type %T is not an integer", v)
}
