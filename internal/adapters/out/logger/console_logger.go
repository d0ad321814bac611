package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

type ConsoleLogger struct {
	log           zerolog.Logger
	defaultFields out.LogFields
	module        string
}

// NewConsoleLogger - локально цветной вывод для человека, в остальных окружениях JSON
func NewConsoleLogger(timezone string, level string, pretty bool) (*ConsoleLogger, error) {
	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05.000"}
	}
	return newLogger(w, timezone, level), nil
}

// NewWriterLogger пишет JSON в w, используется в тестах и CLI
func NewWriterLogger(w io.Writer, level string) *ConsoleLogger {
	return newLogger(w, "UTC", level)
}

func NewNopLogger() *ConsoleLogger {
	return &ConsoleLogger{
		log:           zerolog.Nop(),
		defaultFields: make(out.LogFields),
	}
}

func newLogger(w io.Writer, timezone string, level string) *ConsoleLogger {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	ctx := zerolog.New(w).Level(lvl).With()
	log := ctx.Logger().Hook(timestampHook{location: loc})

	return &ConsoleLogger{
		log:           log,
		defaultFields: make(out.LogFields),
	}
}

type timestampHook struct {
	location *time.Location
}

func (h timestampHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	e.Str(zerolog.TimestampFieldName, time.Now().In(h.location).Format("2006-01-02T15:04:05.000Z07:00"))
}

func (l *ConsoleLogger) WithFields(fields out.LogFields) out.LoggerPort {
	newLogger := &ConsoleLogger{
		log:           l.log,
		defaultFields: make(out.LogFields, len(l.defaultFields)+len(fields)),
		module:        l.module,
	}

	for k, v := range l.defaultFields {
		newLogger.defaultFields[k] = v
	}
	for k, v := range fields {
		newLogger.defaultFields[k] = v
	}

	return newLogger
}

func (l *ConsoleLogger) WithModule(module string) out.LoggerPort {
	return &ConsoleLogger{
		log:           l.log,
		defaultFields: l.defaultFields,
		module:        module,
	}
}

func (l *ConsoleLogger) Debug(event string, fields out.LogFields) {
	l.write(l.log.Debug(), event, fields)
}

func (l *ConsoleLogger) Info(event string, fields out.LogFields) {
	l.write(l.log.Info(), event, fields)
}

func (l *ConsoleLogger) Warn(event string, fields out.LogFields) {
	l.write(l.log.Warn(), event, fields)
}

func (l *ConsoleLogger) Error(event string, fields out.LogFields) {
	l.write(l.log.Error(), event, fields)
}

func (l *ConsoleLogger) write(e *zerolog.Event, event string, fields out.LogFields) {
	if e == nil {
		return
	}

	module := l.module
	if module == "" {
		module = "unknown"
	}

	// Поля вызова перекрывают поля логгера
	merged := make(map[string]interface{}, len(l.defaultFields)+len(fields))
	for k, v := range l.defaultFields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	e.Str("module", module).Fields(merged).Msg(event)
}
