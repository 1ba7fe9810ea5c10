package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

// orderedJSONWriter ensures consistent field ordering in JSON output
type orderedJSONWriter struct {
	output io.Writer
}

// Write processes the log data and ensures proper field ordering
func (w *orderedJSONWriter) Write(p []byte) (n int, err error) {
	var logData map[string]interface{}
	if err := json.Unmarshal(p, &logData); err != nil {
		// If parsing fails, write as-is
		return w.output.Write(p)
	}

	var jsonParts []string

	// Field order: time, level, scope, message, then others
	fieldOrder := []string{"time", "level", "scope", "message"}
	processedFields := make(map[string]bool)

	for _, field := range fieldOrder {
		if value, exists := logData[field]; exists {
			jsonValue, _ := json.Marshal(value)
			jsonParts = append(jsonParts, fmt.Sprintf(`"%s":%s`, field, jsonValue))
			processedFields[field] = true
		}
	}

	// Remaining fields
	for key, value := range logData {
		if !processedFields[key] {
			jsonValue, _ := json.Marshal(value)
			jsonParts = append(jsonParts, fmt.Sprintf(`"%s":%s`, key, jsonValue))
		}
	}

	// Build final JSON
	orderedJSON := "{" + strings.Join(jsonParts, ",") + "}\n"
	if _, err := w.output.Write([]byte(orderedJSON)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Options controls how Init builds the logger
type Options struct {
	Timezone string
	Format   string // "console" or "json"
	Level    string
	Output   io.Writer
}

// init installs a console logger on stderr so early failures are visible
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Logger().
		Level(zerolog.InfoLevel)
	zerolog.DefaultContextLogger = &log
}

// Init configures the logger. Output defaults to stderr; stdout is reserved for reports.
func Init(opts Options) {
	// Load timezone
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		loc = time.UTC
		log.Warn().Err(err).Str("timezone", opts.Timezone).Msg("Invalid timezone, using UTC")
	}

	zerolog.TimestampFieldName = "time"
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"

	// Parse level, info when empty or unknown
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	// Pick writer by format
	var writer io.Writer
	if opts.Format == "json" {
		writer = &orderedJSONWriter{output: out}
	} else {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	log = zerolog.New(writer).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger().
		Level(level)
	zerolog.DefaultContextLogger = &log

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().In(loc)
	}
	log.Debug().Str("timezone", loc.String()).Str("format", opts.Format).Msg("Logger configured")
}

// Debug returns an debug level log event
func Debug() *zerolog.Event {
	return log.Debug()
}

// Info returns an info level log event
func Info() *zerolog.Event {
	return log.Info()
}

// Warn returns a warning level log event
func Warn() *zerolog.Event {
	return log.Warn()
}

// Error returns an error level log event
func Error() *zerolog.Event {
	return log.Error()
}

// ScopedLogger represents a logger with predefined scope
type ScopedLogger struct {
	logger zerolog.Logger
}

// WithScope creates a new scoped logger instance with predefined scope
func WithScope(scope string) *ScopedLogger {
	scopedLogger := log.With().Str("scope", scope).Logger()
	return &ScopedLogger{logger: scopedLogger}
}

// Debug returns a debug level log event with scope
func (s *ScopedLogger) Debug() *zerolog.Event {
	return s.logger.Debug()
}

// Info returns an info level log event with scope
func (s *ScopedLogger) Info() *zerolog.Event {
	return s.logger.Info()
}

// Warn returns a warning level log event with scope
func (s *ScopedLogger) Warn() *zerolog.Event {
	return s.logger.Warn()
}

// Error returns an error level log event with scope
func (s *ScopedLogger) Error() *zerolog.Event {
	return s.logger.Error()
}
