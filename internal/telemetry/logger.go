// Package telemetry provides the structured logging surface shared by every
// long-lived component of the bridge.
package telemetry

import "time"

// Level is the severity of a log line.
type Level int

const (
	// DebugLevel is for verbose diagnostic detail useful during development.
	DebugLevel Level = iota
	// InfoLevel highlights the normal progress of the bridge.
	InfoLevel
	// WarnLevel indicates a recoverable condition worth a human's attention.
	WarnLevel
	// ErrorLevel indicates an operation failed but the process continues.
	ErrorLevel
	// FatalLevel indicates the process cannot continue and will exit.
	FatalLevel
)

// Field is a single structured logging attribute.
type Field struct {
	Key   string
	Value interface{}
}

// Err builds an error field.
func Err(key string, err error) Field { return Field{Key: key, Value: err} }

// Str builds a string field.
func Str(key, val string) Field { return Field{Key: key, Value: val} }

// Int builds an int field.
func Int(key string, val int) Field { return Field{Key: key, Value: val} }

// Uint8 builds a uint8 field.
func Uint8(key string, val uint8) Field { return Field{Key: key, Value: val} }

// Float32 builds a float32 field.
func Float32(key string, val float32) Field { return Field{Key: key, Value: val} }

// Bool builds a bool field.
func Bool(key string, val bool) Field { return Field{Key: key, Value: val} }

// Dur builds a time.Duration field.
func Dur(key string, val time.Duration) Field { return Field{Key: key, Value: val} }

// Logger is the logging contract every component is constructed with.
//
// It mirrors the teacher SDK's Logger interface (Info/Error/Debug/Warn/Fatal
// plus leveled construction) but is backed by zap rather than a hand-rolled
// writer.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	// With returns a derived logger that always includes the given fields,
	// e.g. a per-device or per-control logger.
	With(fields ...Field) Logger
}

// Option configures a Logger at construction time.
type Option func(*options)

type options struct {
	level Level
}

// WithLevel sets the minimum level that will be emitted.
func WithLevel(level Level) Option {
	return func(o *options) { o.level = level }
}
