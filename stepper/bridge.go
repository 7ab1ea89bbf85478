package stepper

import (
	"context"
	"log/slog"

	"github.com/cosmicds/markerflow/logger"
	"github.com/cosmicds/markerflow/marker"
	"github.com/cosmicds/markerflow/statemachine"
	"go.uber.org/atomic"
)

// Bridge synchronizes a Machine's current marker with a Stepper.
//
// Forward changes that land on a step marker move the stepper and mark the
// steps passed over complete. Backward changes that land on a step marker
// move the stepper without touching completion. Stepper navigation jumps the machine to the
// chosen step marker without gating. While the bridge is writing to either
// side it is suppressed, and calls arriving from the other side are ignored.
type Bridge struct {
	machine    *statemachine.Machine
	steps      *marker.StepSubset
	stepper    Stepper
	active     func() bool
	logger     *slog.Logger
	suppressed atomic.Bool
}

var _ statemachine.Listener = (*Bridge)(nil)

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithActive makes the bridge ignore stepper changes while active returns
// false, e.g. when another stage owns the shared stepper.
func WithActive(active func() bool) BridgeOption {
	return func(b *Bridge) {
		b.active = active
	}
}

// WithLogger sets a fixed logger. By default the logger comes from the context.
func WithLogger(l *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = l
	}
}

// NewBridge creates a bridge. The caller subscribes it to the machine and
// routes stepper changes to OnStepIndexChange. steps must be a subset of the
// machine's sequence.
func NewBridge(machine *statemachine.Machine, steps *marker.StepSubset, stepper Stepper, opts ...BridgeOption) *Bridge {
	if steps.Sequence() != machine.Sequence() {
		panic("stepper: step subset belongs to a different sequence")
	}

	b := &Bridge{
		machine: machine,
		steps:   steps,
		stepper: stepper,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Suppressed reports whether the bridge is in the middle of a push.
func (b *Bridge) Suppressed() bool {
	return b.suppressed.Load()
}

func (b *Bridge) Steps() *marker.StepSubset {
	return b.steps
}

// OnMarkerChange implements statemachine.Listener.
func (b *Bridge) OnMarkerChange(ctx context.Context, change statemachine.Change) {
	if b.suppressed.Load() {
		b.countSuppressed(sourceMarker)

		return
	}

	next, ok := b.steps.IndexOf(change.New)
	if !ok {
		return
	}

	advancing := change.Advancing()
	if !advancing && b.stepper.StepIndex() == next {
		return
	}

	prev := b.suppressed.Swap(true)
	defer b.suppressed.Store(prev)

	if advancing {
		for i := max(b.stepper.StepIndex(), 0); i < next; i++ {
			b.stepper.SetStepComplete(i, true)
		}
	}

	b.stepper.SetStepIndex(next)

	b.log(ctx).DebugContext(ctx, "Stepper followed marker",
		"marker", change.New.Name(),
		"step", next,
		"direction", change.Direction.String(),
	)
}

// OnStepIndexChange handles a step index written by someone other than the
// bridge. The index is clamped to the available steps and the machine jumps
// to the matching step marker. A clamped index is written back to the
// stepper only after the machine has moved.
func (b *Bridge) OnStepIndexChange(ctx context.Context, index int) {
	if b.suppressed.Load() {
		b.countSuppressed(sourceStepper)

		return
	}

	if b.active != nil && !b.active() {
		return
	}

	prev := b.suppressed.Swap(true)
	defer b.suppressed.Store(prev)

	clamped := b.steps.Clamp(index)

	target, err := b.steps.At(clamped)
	if err != nil {
		b.log(ctx).ErrorContext(ctx, "Step index has no marker", "step", clamped, "error", err)

		return
	}

	b.machine.MoveTo(ctx, target)

	if clamped != index {
		b.log(ctx).DebugContext(ctx, "Step index clamped",
			"requested", index,
			"step", clamped,
		)
		b.stepper.SetStepIndex(clamped)
	}
}

// Sync pushes the step of the last step marker reached to the stepper and
// marks every earlier step complete. Used after construction and restore,
// when the machine moved without the bridge seeing an advance.
func (b *Bridge) Sync(ctx context.Context) {
	prev := b.suppressed.Swap(true)
	defer b.suppressed.Store(prev)

	index := b.steps.LastReached(b.machine.Current())

	for i := range index {
		b.stepper.SetStepComplete(i, true)
	}

	b.stepper.SetStepIndex(index)

	b.log(ctx).DebugContext(ctx, "Stepper synced",
		"marker", b.machine.Current().Name(),
		"step", index,
	)
}

func (b *Bridge) countSuppressed(source string) {
	suppressedTotal.WithLabelValues(sanitizeStage(b.machine.StageName()), source).Inc()
}

func (b *Bridge) log(ctx context.Context) *slog.Logger {
	if b.logger != nil {
		return b.logger
	}

	return logger.Get(ctx)
}
