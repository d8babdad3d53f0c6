package mock

import (
	"context"
	"sync"

	"github.com/bignyap/s3filestore/logger/api"
)

// Mock implements the Logger interface for testing purposes. Derived loggers
// share the same entry sink so assertions see everything.
type Mock struct {
	sink      *sink
	component string
	fields    []api.Field
	traceID   string
}

type sink struct {
	mu      sync.Mutex
	entries map[string][]LogEntry
}

// LogEntry represents a logged message
type LogEntry struct {
	Message   string
	Error     error
	Fields    []api.Field
	Component string
	TraceID   string
}

// Ensure Mock implements api.Logger
var _ api.Logger = (*Mock)(nil)

// NewMockLogger creates a new mock logger
func NewMockLogger() *Mock {
	return &Mock{sink: &sink{entries: map[string][]LogEntry{}}}
}

func (m *Mock) ensureSink() *sink {
	if m.sink == nil {
		m.sink = &sink{entries: map[string][]LogEntry{}}
	}
	return m.sink
}

func (m *Mock) add(ctx context.Context, level, msg string, err error, fields []api.Field) {
	s := m.ensureSink()
	traceID := m.traceID
	if id := api.GetTraceIDFromContext(ctx); id != "" {
		traceID = id
	}
	all := append(append([]api.Field{}, m.fields...), fields...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[level] = append(s.entries[level], LogEntry{
		Message:   msg,
		Error:     err,
		Fields:    all,
		Component: m.component,
		TraceID:   traceID,
	})
}

func (m *Mock) Debug(ctx context.Context, msg string, fields ...api.Field) {
	m.add(ctx, "debug", msg, nil, fields)
}

func (m *Mock) Info(ctx context.Context, msg string, fields ...api.Field) {
	m.add(ctx, "info", msg, nil, fields)
}

func (m *Mock) Warn(ctx context.Context, msg string, fields ...api.Field) {
	m.add(ctx, "warn", msg, nil, fields)
}

func (m *Mock) Error(ctx context.Context, msg string, err error, fields ...api.Field) {
	m.add(ctx, "error", msg, err, fields)
}

// Fatal records the message. Unlike a real logger it does not exit.
func (m *Mock) Fatal(ctx context.Context, msg string, err error, fields ...api.Field) {
	m.add(ctx, "fatal", msg, err, fields)
}

func (m *Mock) clone() *Mock {
	return &Mock{
		sink:      m.ensureSink(),
		component: m.component,
		fields:    append([]api.Field{}, m.fields...),
		traceID:   m.traceID,
	}
}

func (m *Mock) WithTraceID(traceID string) api.Logger {
	c := m.clone()
	c.traceID = traceID
	return c
}

func (m *Mock) WithFields(fields ...api.Field) api.Logger {
	c := m.clone()
	c.fields = append(c.fields, fields...)
	return c
}

func (m *Mock) WithComponent(component string) api.Logger {
	c := m.clone()
	c.component = component
	return c
}

func (m *Mock) AddField(key string, value interface{}) api.Logger {
	return m.WithFields(api.Any(key, value))
}

// ToContext adds this logger to the context
func (m *Mock) ToContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, api.LoggerContextKey, m)
	if m.traceID != "" {
		ctx = context.WithValue(ctx, api.TraceIDKey, m.traceID)
	}
	if m.component != "" {
		ctx = context.WithValue(ctx, api.ComponentKey, m.component)
	}
	return ctx
}

// Testing helper methods

func (m *Mock) entries(level string) []LogEntry {
	s := m.ensureSink()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.entries[level]))
	copy(out, s.entries[level])
	return out
}

// GetDebugMessages returns all logged debug messages
func (m *Mock) GetDebugMessages() []LogEntry { return m.entries("debug") }

// GetInfoMessages returns all logged info messages
func (m *Mock) GetInfoMessages() []LogEntry { return m.entries("info") }

// GetWarnMessages returns all logged warning messages
func (m *Mock) GetWarnMessages() []LogEntry { return m.entries("warn") }

// GetErrorMessages returns all logged error messages
func (m *Mock) GetErrorMessages() []LogEntry { return m.entries("error") }

// GetFatalMessages returns all logged fatal messages
func (m *Mock) GetFatalMessages() []LogEntry { return m.entries("fatal") }

// Clear clears all logged messages
func (m *Mock) Clear() {
	s := m.ensureSink()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[string][]LogEntry{}
}
