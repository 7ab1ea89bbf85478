// Package stage assembles a lesson stage from its configuration: the marker
// sequence, question gates, state machine, stepper bridge and transition
// effects, wired in that order.
package stage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cosmicds/markerflow/effects"
	"github.com/cosmicds/markerflow/gate"
	"github.com/cosmicds/markerflow/logger"
	"github.com/cosmicds/markerflow/marker"
	"github.com/cosmicds/markerflow/statemachine"
	"github.com/cosmicds/markerflow/stepper"
	"github.com/google/uuid"
)

// Stage is one lesson stage and the components that drive it.
type Stage struct {
	cfg        *Config
	sessionID  string
	seq        *marker.Sequence
	steps      *marker.StepSubset
	gates      *gate.Registry
	machine    *statemachine.Machine
	stepper    stepper.Stepper
	bridge     *stepper.Bridge
	effects    *effects.Registry
	rewind     map[marker.Marker]bool
	highlights map[string]map[marker.Marker]bool
	logger     *slog.Logger
}

type effectRegistration struct {
	name   string
	match  effects.Match
	effect effects.Effect
}

type options struct {
	initial    string
	hasInitial bool
	logger     *slog.Logger
	active     func() bool
	sessionID  string
	effects    []effectRegistration
}

// Option configures a Stage.
type Option func(*options)

// WithInitial positions the stage at a persisted marker. Rewind-on-restore
// applies, and unknown names recover to the first marker.
func WithInitial(name string) Option {
	return func(o *options) {
		o.initial = name
		o.hasInitial = true
	}
}

// WithLogger sets a fixed logger for every component of the stage.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithActive reports whether this stage currently owns the shared stepper.
func WithActive(active func() bool) Option {
	return func(o *options) {
		o.active = active
	}
}

// WithSessionID sets the learner session id. By default a random one is generated.
func WithSessionID(id string) Option {
	return func(o *options) {
		o.sessionID = id
	}
}

// WithEffect registers a transition effect before the stage starts listening.
func WithEffect(name string, match effects.Match, effect effects.Effect) Option {
	return func(o *options) {
		o.effects = append(o.effects, effectRegistration{name: name, match: match, effect: effect})
	}
}

// New builds a stage from cfg. Gates read question completion from
// progress. A nil stepper is replaced by an in-memory stepper.Model whose
// index changes are routed back through OnStepIndexChange.
func New(cfg *Config, progress gate.ProgressReader, st stepper.Stepper, opts ...Option) (*Stage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if progress == nil && len(cfg.Gates) > 0 {
		return nil, fmt.Errorf("stage %s: %w", cfg.Name, ErrProgressRequired)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.sessionID == "" {
		o.sessionID = uuid.NewString()
	}

	seq, err := cfg.Sequence()
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", cfg.Name, err)
	}

	steps, err := cfg.stepSubset(seq)
	if err != nil {
		return nil, fmt.Errorf("stage %s: steps: %w", cfg.Name, err)
	}

	var model *stepper.Model
	if st == nil {
		model = stepper.NewModel(steps.Len())
		st = model
	}

	s := &Stage{
		cfg:        cfg,
		sessionID:  o.sessionID,
		seq:        seq,
		steps:      steps,
		gates:      gate.NewRegistry(),
		stepper:    st,
		rewind:     make(map[marker.Marker]bool, len(cfg.RewindOnRestore)),
		highlights: make(map[string]map[marker.Marker]bool, len(cfg.Highlights)),
		logger:     o.logger,
	}

	for _, g := range cfg.Gates {
		m, err := seq.Lookup(g.Marker)
		if err != nil {
			return nil, fmt.Errorf("stage %s: gate: %w", cfg.Name, err)
		}

		s.gates.Register(m, gate.QuestionsCompleted(progress, g.Questions...))
	}

	for _, name := range cfg.RewindOnRestore {
		if m, err := seq.Lookup(name); err == nil {
			s.rewind[m] = true
		}
	}

	for group, names := range cfg.Highlights {
		set := make(map[marker.Marker]bool, len(names))

		for _, name := range names {
			if m, err := seq.Lookup(name); err == nil {
				set[m] = true
			}
		}

		s.highlights[group] = set
	}

	machineOpts := []statemachine.Option{statemachine.WithStageName(cfg.Name)}
	bridgeOpts := []stepper.BridgeOption{}
	effectOpts := []effects.Option{effects.WithStageName(cfg.Name)}

	if o.logger != nil {
		machineOpts = append(machineOpts, statemachine.WithLogger(statemachine.NewSlogLogger(o.logger)))
		bridgeOpts = append(bridgeOpts, stepper.WithLogger(o.logger))
		effectOpts = append(effectOpts, effects.WithLogger(o.logger))
	}

	if o.active != nil {
		bridgeOpts = append(bridgeOpts, stepper.WithActive(o.active))
	}

	if o.hasInitial {
		machineOpts = append(machineOpts, statemachine.WithInitial(s.rewound(o.initial)))
	}

	s.machine = statemachine.New(seq, s.gates, machineOpts...)
	s.bridge = stepper.NewBridge(s.machine, steps, st, bridgeOpts...)
	s.effects = effects.New(effectOpts...)

	if model != nil {
		model.OnChange = func(index int) {
			s.OnStepIndexChange(context.Background(), index)
		}
	}

	for _, e := range o.effects {
		s.effects.Register(e.name, e.match, e.effect)
	}

	// The bridge must see a change before the effects do: effects may read
	// the step index the bridge just wrote.
	s.machine.Subscribe(s.bridge)
	s.machine.Subscribe(s.effects)

	if o.hasInitial {
		s.bridge.Sync(s.Context(context.Background()))
	}

	return s, nil
}

// Context decorates ctx with the stage name and session id for logging.
func (s *Stage) Context(ctx context.Context) context.Context {
	return logger.WithSessionID(logger.WithStage(ctx, s.cfg.Name), s.sessionID)
}

func (s *Stage) Name() string {
	return s.cfg.Name
}

func (s *Stage) Title() string {
	return s.cfg.Title
}

func (s *Stage) SessionID() string {
	return s.sessionID
}

func (s *Stage) Config() *Config {
	return s.cfg
}

func (s *Stage) Sequence() *marker.Sequence {
	return s.seq
}

func (s *Stage) Steps() *marker.StepSubset {
	return s.steps
}

// StepTitles returns the upper-cased titles shown by the stepper.
func (s *Stage) StepTitles() []string {
	return s.cfg.StepTitles()
}

func (s *Stage) Gates() *gate.Registry {
	return s.gates
}

func (s *Stage) Machine() *statemachine.Machine {
	return s.machine
}

func (s *Stage) Stepper() stepper.Stepper {
	return s.stepper
}

func (s *Stage) Bridge() *stepper.Bridge {
	return s.bridge
}

func (s *Stage) Effects() *effects.Registry {
	return s.effects
}

// Current returns the current marker.
func (s *Stage) Current() marker.Marker {
	return s.machine.Current()
}

// Advance moves to the next marker if its gate allows.
func (s *Stage) Advance(ctx context.Context) bool {
	return s.machine.MoveForward(s.Context(ctx))
}

// AdvanceFrom moves forward only while the stage is still at the named marker.
func (s *Stage) AdvanceFrom(ctx context.Context, name string) (bool, error) {
	from, err := s.seq.Lookup(name)
	if err != nil {
		return false, err
	}

	return s.machine.AdvanceFrom(s.Context(ctx), from), nil
}

// JumpTo moves to the named marker without gating.
func (s *Stage) JumpTo(ctx context.Context, name string) (bool, error) {
	target, err := s.seq.Lookup(name)
	if err != nil {
		return false, err
	}

	return s.machine.MoveTo(s.Context(ctx), target), nil
}

// OnStepIndexChange forwards a stepper navigation to the bridge.
func (s *Stage) OnStepIndexChange(ctx context.Context, index int) {
	s.bridge.OnStepIndexChange(s.Context(ctx), index)
}

// Complete reports whether the learner has reached the last marker.
func (s *Stage) Complete() bool {
	return s.machine.Current() == s.seq.Last()
}

// Highlighted reports whether the current marker belongs to the named
// highlight group.
func (s *Stage) Highlighted(group string) bool {
	return s.highlights[group][s.machine.Current()]
}

// Locked returns the names of gated markers whose gate is currently closed.
func (s *Stage) Locked() []string {
	var locked []string

	for _, m := range s.seq.Markers() {
		if s.gates.Has(m) && !s.gates.IsUnlocked(m) {
			locked = append(locked, m.Name())
		}
	}

	return locked
}

// rewound applies rewind-on-restore to a persisted marker name. Unknown
// names are returned unchanged for the machine to recover.
func (s *Stage) rewound(name string) string {
	m, err := s.seq.Lookup(name)
	if err != nil || !s.rewind[m] {
		return name
	}

	prev, err := s.seq.Previous(m)
	if err != nil {
		return name
	}

	return prev.Name()
}

func (s *Stage) log(ctx context.Context) *slog.Logger {
	if s.logger != nil {
		return s.logger
	}

	return logger.Get(ctx)
}
