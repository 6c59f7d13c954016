package models

// Field is one named value of a record
type Field struct {
	Name  string
	Value any
}

// Record is an ordered set of fields. Order is the column order used when
// the record is written to the store.
type Record []Field

// Get returns the value of the named field
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the field names in order
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Values returns the field values in order
func (r Record) Values() []any {
	values := make([]any, len(r))
	for i, f := range r {
		values[i] = f.Value
	}
	return values
}
