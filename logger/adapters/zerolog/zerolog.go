package zerolog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bignyap/s3filestore/logger/api"
	"github.com/bignyap/s3filestore/logger/config"
	"github.com/rs/zerolog"
)

// Logger implements the Logger interface using zerolog
type Logger struct {
	log       zerolog.Logger
	component string
	fields    []api.Field
}

// NewZerologger creates a new zerolog-based logger
func NewZerologger(cfg config.LogConfig) (*Logger, error) {
	writers, err := setupWriters(cfg)
	if err != nil {
		return nil, err
	}

	var writer io.Writer
	if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = io.MultiWriter(writers...)
	}
	return NewZerologgerWithWriter(cfg, writer), nil
}

// NewZerologgerWithWriter builds a logger that writes to w regardless of
// cfg.Output. Tests use it with a bytes.Buffer.
func NewZerologgerWithWriter(cfg config.LogConfig, writer io.Writer) *Logger {
	var logger zerolog.Logger
	if cfg.Format == "pretty" && cfg.Environment == "dev" {
		consoleWriter := zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
		logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(writer).With().Timestamp().Logger()
	}

	logger = logger.Level(parseLevel(cfg.Level))
	for k, v := range cfg.Fields {
		logger = logger.With().Interface(k, v).Logger()
	}

	return &Logger{log: logger}
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...api.Field) {
	event := l.log.Debug()
	l.addContextFields(ctx, event)
	l.addFields(event, fields)
	event.Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...api.Field) {
	event := l.log.Info()
	l.addContextFields(ctx, event)
	l.addFields(event, fields)
	event.Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...api.Field) {
	event := l.log.Warn()
	l.addContextFields(ctx, event)
	l.addFields(event, fields)
	event.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...api.Field) {
	event := l.log.Error()
	l.addContextFields(ctx, event)
	if err != nil {
		event = event.Err(err)
	}
	l.addFields(event, fields)
	event.Msg(msg)
}

func (l *Logger) Fatal(ctx context.Context, msg string, err error, fields ...api.Field) {
	event := l.log.Fatal()
	l.addContextFields(ctx, event)
	if err != nil {
		event = event.Err(err)
	}
	l.addFields(event, fields)
	event.Msg(msg)
}

func (l *Logger) WithTraceID(traceID string) api.Logger {
	if traceID == "" {
		return l
	}
	newLog := l.log.With().Str("trace_id", traceID).Logger()
	return l.cloneWith(newLog)
}

func (l *Logger) WithFields(fields ...api.Field) api.Logger {
	if len(fields) == 0 {
		return l
	}
	ctx := l.log.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	newLog := ctx.Logger()
	newFields := append(l.fields, fields...)
	return &Logger{log: newLog, component: l.component, fields: newFields}
}

func (l *Logger) WithComponent(component string) api.Logger {
	if component == "" {
		return l
	}
	return &Logger{log: l.log, component: component, fields: l.fields}
}

func (l *Logger) ToContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, api.LoggerContextKey, l)
	if l.component != "" {
		ctx = context.WithValue(ctx, api.ComponentKey, l.component)
	}
	return ctx
}

func (l *Logger) AddField(key string, value interface{}) api.Logger {
	newLog := l.log.With().Interface(key, value).Logger()
	newFields := append(l.fields, api.Field{Key: key, Value: value})
	return &Logger{log: newLog, component: l.component, fields: newFields}
}

// addContextFields extracts trace_id and other metadata from context and adds to the log event
func (l *Logger) addContextFields(ctx context.Context, event *zerolog.Event) {
	if ctx == nil {
		return
	}
	// Extract trace_id from context
	if traceID := api.GetTraceIDFromContext(ctx); traceID != "" {
		event.Str("trace_id", traceID)
	}
}

func (l *Logger) addFields(event *zerolog.Event, fields []api.Field) {
	if l.component != "" {
		event.Str("component", l.component)
	}
	for _, f := range fields {
		event.Interface(f.Key, f.Value)
	}
}

func (l *Logger) cloneWith(newLog zerolog.Logger) *Logger {
	return &Logger{log: newLog, component: l.component, fields: l.fields}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "none", "off", "silent":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func setupWriters(cfg config.LogConfig) ([]io.Writer, error) {
	switch cfg.Output {
	case "file":
		f, err := openLogFile(cfg.FileOptions)
		if err != nil {
			return nil, err
		}
		return []io.Writer{f}, nil
	case "both":
		f, err := openLogFile(cfg.FileOptions)
		if err != nil {
			return nil, err
		}
		return []io.Writer{os.Stdout, f}, nil
	default:
		return []io.Writer{os.Stdout}, nil
	}
}

func openLogFile(opts config.FileOptions) (*os.File, error) {
	if err := os.MkdirAll(opts.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(opts.Directory, opts.Filename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}
