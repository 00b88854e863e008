package log

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fieldservice/jobvisit/pkg/requestid"
)

// StructuredLogger traces service operations. Every operation logs its
// start, optional intermediate steps and its outcome with the same set
// of fields so a single request can be followed across layers.
type StructuredLogger struct {
	logger *zap.Logger
}

// NewDebugLogger returns a logger that traces operations at debug level
// and errors at error level.
func NewDebugLogger(name string) *StructuredLogger {
	return &StructuredLogger{logger: zap.L().Named(name)}
}

// WithContext attaches the request id found in ctx, if any.
func (l *StructuredLogger) WithContext(ctx context.Context) *StructuredLogger {
	rid := requestid.FromContext(ctx)
	if rid == "" {
		return l
	}
	return &StructuredLogger{logger: l.logger.With(zap.String("request_id", rid))}
}

// Operation starts building a traced operation.
func (l *StructuredLogger) Operation(name string) *OperationBuilder {
	return &OperationBuilder{
		parent: l,
		name:   name,
		fields: []zap.Field{zap.String("operation", name)},
	}
}

// Error starts an error entry outside a traced operation.
func (l *StructuredLogger) Error(err error) *Entry {
	return &Entry{
		logger: l.logger,
		level:  zap.ErrorLevel,
		msg:    "operation failed",
		fields: []zap.Field{zap.Error(err)},
	}
}

type OperationBuilder struct {
	parent *StructuredLogger
	name   string
	fields []zap.Field
}

func (b *OperationBuilder) WithString(key, value string) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value))
	return b
}

func (b *OperationBuilder) WithStringPtr(key string, value *string) *OperationBuilder {
	if value != nil {
		b.fields = append(b.fields, zap.String(key, *value))
	}
	return b
}

func (b *OperationBuilder) WithStrings(key string, values []string) *OperationBuilder {
	b.fields = append(b.fields, zap.Strings(key, values))
	return b
}

func (b *OperationBuilder) WithUUID(key string, value uuid.UUID) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value.String()))
	return b
}

func (b *OperationBuilder) WithInt(key string, value int) *OperationBuilder {
	b.fields = append(b.fields, zap.Int(key, value))
	return b
}

func (b *OperationBuilder) WithBool(key string, value bool) *OperationBuilder {
	b.fields = append(b.fields, zap.Bool(key, value))
	return b
}

// Build logs the start of the operation and returns its tracer.
func (b *OperationBuilder) Build() *OperationTracer {
	logger := b.parent.logger.With(b.fields...)
	logger.Debug("operation started")
	return &OperationTracer{logger: logger, start: time.Now()}
}

type OperationTracer struct {
	logger *zap.Logger
	start  time.Time
}

func (t *OperationTracer) Step(name string) *Entry {
	return &Entry{logger: t.logger, level: zap.DebugLevel, msg: "operation step", fields: []zap.Field{zap.String("step", name)}}
}

func (t *OperationTracer) Success() *Entry {
	return &Entry{
		logger: t.logger,
		level:  zap.DebugLevel,
		msg:    "operation succeeded",
		fields: []zap.Field{zap.Duration("duration", time.Since(t.start))},
	}
}

func (t *OperationTracer) Error(err error) *Entry {
	return &Entry{
		logger: t.logger,
		level:  zap.ErrorLevel,
		msg:    "operation failed",
		fields: []zap.Field{zap.Error(err), zap.Duration("duration", time.Since(t.start))},
	}
}

// Entry is a single log line under construction. Nothing is written
// until Log is called.
type Entry struct {
	logger *zap.Logger
	level  zapcore.Level
	msg    string
	fields []zap.Field
}

func (e *Entry) WithString(key, value string) *Entry {
	e.fields = append(e.fields, zap.String(key, value))
	return e
}

func (e *Entry) WithStrings(key string, values []string) *Entry {
	e.fields = append(e.fields, zap.Strings(key, values))
	return e
}

func (e *Entry) WithUUID(key string, value uuid.UUID) *Entry {
	e.fields = append(e.fields, zap.String(key, value.String()))
	return e
}

func (e *Entry) WithInt(key string, value int) *Entry {
	e.fields = append(e.fields, zap.Int(key, value))
	return e
}

func (e *Entry) WithBool(key string, value bool) *Entry {
	e.fields = append(e.fields, zap.Bool(key, value))
	return e
}

func (e *Entry) Log() {
	if ce := e.logger.Check(e.level, e.msg); ce != nil {
		ce.Write(e.fields...)
	}
}
