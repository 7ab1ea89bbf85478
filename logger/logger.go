package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	slogmulti "github.com/samber/slog-multi"
)

// Default subsystem name, reported on every record (set by ConfigureLoggingWithOptions).
var subsystem atomic.Value //nolint:gochecknoglobals

// configMutex protects concurrent calls to ConfigureLoggingWithOptions,
// which modifies global state (slog.SetDefault and log.Default).
var configMutex sync.Mutex //nolint:gochecknoglobals

type contextKey string

// Options is used to configure logging.
type Options struct {
	Subsystem   string
	JSON        bool
	MinLevel    slog.Level
	LegacyLevel slog.Level
	Output      io.Writer

	// Handlers receive every record in addition to the console handler,
	// e.g. an OpenTelemetry log bridge.
	Handlers []slog.Handler
}

// ConfigureLoggingWithOptions configures logging for the application and
// returns the default logger. Records are fanned out to the console handler
// and any extra Handlers, and errors annotated with AnnotateError have their
// attributes lifted into the record.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	var console slog.Handler

	if opts.JSON {
		console = slog.NewJSONHandler(opts.Output, &slog.HandlerOptions{
			Level: opts.MinLevel,
		})
	} else {
		console = slog.NewTextHandler(opts.Output, &slog.HandlerOptions{
			Level: opts.MinLevel,
		})
	}

	handler := console
	if len(opts.Handlers) > 0 {
		handler = slogmulti.Fanout(append([]slog.Handler{console}, opts.Handlers...)...)
	}

	handler = &slogErrorLogger{inner: handler}

	logger := slog.New(handler)

	slog.SetDefault(logger)

	// Third party packages may still use the log package.
	def := log.Default()
	*def = *slog.NewLogLogger(handler, opts.LegacyLevel)

	subsystem.Store(opts.Subsystem)

	return logger
}

// WithMuted adds a muted flag to the context. Loggers obtained from a muted
// context discard everything.
func WithMuted(ctx context.Context, muted bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("mute"), muted)
}

func isMuted(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	muted, ok := ctx.Value(contextKey("mute")).(bool)

	return ok && muted
}

// WithSubsystem overrides the default subsystem for loggers obtained from ctx.
func WithSubsystem(ctx context.Context, subsystem string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("subsystem"), subsystem)
}

// GetSubsystem returns the subsystem from the context, falling back to the
// configured default.
func GetSubsystem(ctx context.Context) string { //nolint:contextcheck
	if ctx == nil {
		ctx = context.Background()
	}

	if val, ok := ctx.Value(contextKey("subsystem")).(string); ok {
		return val
	}

	if val, ok := subsystem.Load().(string); ok {
		return val
	}

	return ""
}

// WithStage records the lesson stage a log line belongs to.
func WithStage(ctx context.Context, stage string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("stage"), stage)
}

// GetStage returns the stage recorded by WithStage.
func GetStage(ctx context.Context) (string, bool) { //nolint:contextcheck
	if ctx == nil {
		ctx = context.Background()
	}

	val, ok := ctx.Value(contextKey("stage")).(string)

	return val, ok
}

// WithSessionID records the learner session a log line belongs to.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("session_id"), sessionID)
}

// GetSessionID returns the session recorded by WithSessionID.
func GetSessionID(ctx context.Context) (string, bool) { //nolint:contextcheck
	if ctx == nil {
		ctx = context.Background()
	}

	val, ok := ctx.Value(contextKey("session_id")).(string)

	return val, ok
}

// getRealContext picks the first non-nil context, or context.Background().
func getRealContext(ctx ...context.Context) context.Context {
	for _, c := range ctx {
		if c != nil {
			return c
		}
	}

	return context.Background()
}

// nullHandler discards all records; it backs muted loggers.
type nullHandler struct{}

func (n *nullHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (n *nullHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (n *nullHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return n
}

func (n *nullHandler) WithGroup(_ string) slog.Handler {
	return n
}

var nullLogger = slog.New(&nullHandler{})

// Get returns a logger carrying the subsystem, when one is set, plus any
// stage, session and With values found in the (optional) context.
//
//nolint:contextcheck
func Get(ctx ...context.Context) *slog.Logger {
	realCtx := getRealContext(ctx...)

	if isMuted(realCtx) {
		return nullLogger
	}

	logger := slog.Default()

	if sub := GetSubsystem(realCtx); sub != "" {
		logger = logger.With("subsystem", sub)
	}

	if stage, ok := GetStage(realCtx); ok {
		logger = logger.With("stage", stage)
	}

	if sessionID, ok := GetSessionID(realCtx); ok {
		logger = logger.With("session_id", sessionID)
	}

	if vals := getValues(realCtx); vals != nil {
		logger = logger.With(vals...)
	}

	return logger
}

// With returns a new context with the given key-value pairs added. Loggers
// obtained from the context include them automatically.
func With(ctx context.Context, values ...any) context.Context {
	if len(values) == 0 && ctx != nil {
		return ctx
	}

	if ctx == nil {
		ctx = context.Background()
	}

	vals := append(append([]any{}, getValues(ctx)...), values...)

	return context.WithValue(ctx, contextKey("loggerValues"), vals)
}

func getValues(ctx context.Context) []any { //nolint:contextcheck
	if ctx == nil {
		return nil
	}

	vals, _ := ctx.Value(contextKey("loggerValues")).([]any)

	return vals
}
