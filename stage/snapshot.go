package stage

import (
	"context"
	"fmt"
)

// Snapshot is the persisted position of a learner in a stage.
type Snapshot struct {
	Stage  string `json:"stage"  yaml:"stage"`
	Marker string `json:"marker" yaml:"marker"`

	// Fingerprint identifies the marker list the snapshot was taken against.
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

// Snapshot captures the current position.
func (s *Stage) Snapshot() Snapshot {
	return Snapshot{
		Stage:       s.cfg.Name,
		Marker:      s.machine.Current().Name(),
		Fingerprint: s.seq.Fingerprint(),
	}
}

// Restore moves the stage to a persisted position and re-syncs the stepper.
// A snapshot from another stage is rejected. A snapshot taken against a
// different marker list is still applied, with a warning, and an unknown
// marker recovers to the first marker.
func (s *Stage) Restore(ctx context.Context, snap Snapshot) error {
	ctx = s.Context(ctx)

	if snap.Stage != s.cfg.Name {
		return fmt.Errorf("%w: got %q, want %q", ErrSnapshotStage, snap.Stage, s.cfg.Name)
	}

	if snap.Fingerprint != "" && snap.Fingerprint != s.seq.Fingerprint() {
		s.log(ctx).WarnContext(ctx, "Snapshot was taken against a different marker list",
			"marker", snap.Marker,
			"snapshot_fingerprint", snap.Fingerprint,
			"fingerprint", s.seq.Fingerprint(),
		)
	}

	s.machine.Restore(ctx, s.rewound(snap.Marker))
	s.bridge.Sync(ctx)

	return nil
}
