// Package effects runs side effects keyed on marker transitions, such as
// resetting a table selection when the learner advances onto a marker.
//
// Effects are isolated from each other: an effect that fails or panics is
// logged and counted, and the remaining effects still run.
package effects

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cosmicds/markerflow/errors"
	"github.com/cosmicds/markerflow/logger"
	"github.com/cosmicds/markerflow/statemachine"
)

// Effect is a side effect run after a matching transition.
type Effect func(ctx context.Context) error

type registration struct {
	name   string
	match  Match
	effect Effect
}

// Registry holds effects in registration order. It is not safe for
// concurrent use; register effects before subscribing the registry.
type Registry struct {
	effects   []registration
	logger    *slog.Logger
	stageName string
}

var _ statemachine.Listener = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a fixed logger. By default the logger comes from the context.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithStageName labels failure logs and metrics with the owning stage.
func WithStageName(name string) Option {
	return func(r *Registry) {
		r.stageName = name
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds an effect that runs whenever match accepts a change. A nil
// match accepts every change.
func (r *Registry) Register(name string, match Match, effect Effect) {
	if match == nil {
		match = Any()
	}

	r.effects = append(r.effects, registration{
		name:   name,
		match:  match,
		effect: effect,
	})
}

func (r *Registry) Len() int {
	return len(r.effects)
}

// Fire runs every effect matching change, in registration order, and
// returns the failures joined together.
func (r *Registry) Fire(ctx context.Context, change statemachine.Change) error {
	var errs errors.Collection

	for _, reg := range r.effects {
		if !reg.match(change) {
			continue
		}

		err := errors.Run(func() error {
			return reg.effect(ctx)
		})
		if err == nil {
			continue
		}

		err = logger.AnnotateError(fmt.Errorf("effect %q: %w", reg.name, err),
			"effect", reg.name,
			"from", change.Old.Name(),
			"to", change.New.Name(),
		)

		r.log(ctx).ErrorContext(ctx, "Transition effect failed", "error", err)
		failuresTotal.WithLabelValues(sanitizeStage(r.stageName), reg.name).Inc()

		errs.Add(err)
	}

	return errs.GetError()
}

// OnMarkerChange implements statemachine.Listener. Failures have already
// been logged by Fire and are not propagated to the machine.
func (r *Registry) OnMarkerChange(ctx context.Context, change statemachine.Change) {
	_ = r.Fire(ctx, change)
}

func (r *Registry) log(ctx context.Context) *slog.Logger {
	if r.logger != nil {
		return r.logger
	}

	return logger.Get(ctx)
}
