package logger

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// AnnotateError wraps an error with slog key-value pairs. When the returned
// error is logged through a logger configured by ConfigureLoggingWithOptions,
// the pairs appear as attributes of the record. The annotation survives
// further wrapping with fmt.Errorf("%w").
//
// Returns nil if err is nil.
func AnnotateError(err error, args ...any) error {
	if err == nil {
		return nil
	}

	r := slog.NewRecord(time.Now(), slog.LevelDebug, "", 0)
	r.Add(args...)

	var errAttrs []slog.Attr

	r.Attrs(func(attr slog.Attr) bool {
		errAttrs = append(errAttrs, attr)

		return true
	})

	return &slogError{
		err:   err,
		attrs: errAttrs,
	}
}

// Attrs returns the attributes attached to err (and to anything it wraps)
// by AnnotateError, outermost first.
func Attrs(err error) []slog.Attr {
	var attrs []slog.Attr

	for err != nil {
		var se *slogError
		if !errors.As(err, &se) {
			break
		}

		attrs = append(attrs, se.attrs...)
		err = se.err
	}

	return attrs
}

type slogError struct {
	err   error
	attrs []slog.Attr
}

func (s *slogError) Error() string {
	return s.err.Error()
}

func (s *slogError) Unwrap() error {
	return s.err
}

var _ error = (*slogError)(nil)

// slogErrorLogger lifts AnnotateError attributes out of error-valued
// attributes and into the record before delegating.
type slogErrorLogger struct {
	inner slog.Handler
}

var _ slog.Handler = (*slogErrorLogger)(nil)

func (s *slogErrorLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return s.inner.Enabled(ctx, level)
}

func (s *slogErrorLogger) Handle(ctx context.Context, record slog.Record) error {
	var (
		baseAttrs []slog.Attr
		errAttrs  []slog.Attr
	)

	record.Attrs(func(attr slog.Attr) bool {
		if err, ok := attr.Value.Any().(error); ok {
			if extra := Attrs(err); len(extra) > 0 {
				errAttrs = append(errAttrs, extra...)
			}
		}

		baseAttrs = append(baseAttrs, attr)

		return true
	})

	if len(errAttrs) == 0 {
		return s.inner.Handle(ctx, record)
	}

	r := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	r.AddAttrs(baseAttrs...)
	r.AddAttrs(errAttrs...)

	return s.inner.Handle(ctx, r)
}

func (s *slogErrorLogger) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &slogErrorLogger{
		inner: s.inner.WithAttrs(attrs),
	}
}

func (s *slogErrorLogger) WithGroup(name string) slog.Handler {
	return &slogErrorLogger{
		inner: s.inner.WithGroup(name),
	}
}
