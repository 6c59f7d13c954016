// Package eventlog defines the structured event sink every sync component
// reports through. Components receive a Sink at construction and never touch
// a process-wide logger.
package eventlog

import (
	"sync"
	"time"
)

// Level is the severity of an event
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lower-case level name
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one observable occurrence: timestamp, severity, message, and
// optional key/value context.
type Event struct {
	Time    time.Time
	Level   Level
	Message string
	Err     error
	Fields  []any // alternating key, value
}

// Field returns the value recorded under key, if any
func (e Event) Field(key string) (any, bool) {
	for i := 0; i+1 < len(e.Fields); i += 2 {
		if k, ok := e.Fields[i].(string); ok && k == key {
			return e.Fields[i+1], true
		}
	}
	return nil, false
}

// Sink records events
type Sink interface {
	Record(e Event)
}

func newEvent(level Level, msg string, err error, kv []any) Event {
	return Event{
		Time:    time.Now().UTC(),
		Level:   level,
		Message: msg,
		Err:     err,
		Fields:  kv,
	}
}

// Debug builds a debug event
func Debug(msg string, kv ...any) Event { return newEvent(LevelDebug, msg, nil, kv) }

// Info builds an informational event
func Info(msg string, kv ...any) Event { return newEvent(LevelInfo, msg, nil, kv) }

// Warn builds a warning event
func Warn(msg string, kv ...any) Event { return newEvent(LevelWarn, msg, nil, kv) }

// Error builds an error event carrying err
func Error(msg string, err error, kv ...any) Event { return newEvent(LevelError, msg, err, kv) }

type withSink struct {
	next   Sink
	fields []any
}

func (w withSink) Record(e Event) {
	fields := make([]any, 0, len(w.fields)+len(e.Fields))
	fields = append(fields, w.fields...)
	e.Fields = append(fields, e.Fields...)
	w.next.Record(e)
}

// With returns a Sink that prefixes kv to the fields of every event
func With(s Sink, kv ...any) Sink {
	if len(kv) == 0 {
		return s
	}
	return withSink{next: s, fields: kv}
}

// Discard drops every event
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(Event) {}

// Memory keeps events in memory, in arrival order
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// NewMemory creates an empty in-memory sink
func NewMemory() *Memory {
	return &Memory{}
}

// Record appends e
func (m *Memory) Record(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Events returns a copy of everything recorded so far
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Messages returns the messages recorded at level
func (m *Memory) Messages(level Level) []string {
	var out []string
	for _, e := range m.Events() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}
