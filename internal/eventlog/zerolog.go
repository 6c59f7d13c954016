package eventlog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the process logger
type Options struct {
	Env      string // "development" switches to console output
	Level    string
	FilePath string // append-only sink; empty disables it
}

// NewLogger builds the zerolog logger for a process. Output goes to stdout
// and, when FilePath is set, is appended to that file as JSON lines. The
// returned close func releases the file.
func NewLogger(opts Options) (zerolog.Logger, func() error, error) {
	var stdout io.Writer = os.Stdout
	if opts.Env == "development" {
		stdout = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	closeFn := func() error { return nil }
	out := stdout
	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(stdout, f)
		closeFn = f.Close
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		if parsed, err := zerolog.ParseLevel(opts.Level); err == nil {
			level = parsed
		}
	}

	return zerolog.New(out).Level(level), closeFn, nil
}

// ZerologSink writes events through a zerolog logger
type ZerologSink struct {
	logger zerolog.Logger
}

// NewZerolog adapts logger into a Sink
func NewZerolog(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger}
}

// Record writes e with its own timestamp
func (s *ZerologSink) Record(e Event) {
	ev := s.logger.WithLevel(e.Level.zerolog())
	if ev == nil {
		return
	}
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	ev = ev.Time(zerolog.TimestampFieldName, ts)
	if e.Err != nil {
		ev = ev.Err(e.Err)
	}
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	ev.Msg(e.Message)
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
