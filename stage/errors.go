package stage

import "errors"

var (
	// ErrConfigNameRequired indicates that a stage name is required.
	ErrConfigNameRequired = errors.New("stage name is required")
	// ErrStepsRequired indicates that a stage must declare at least one step.
	ErrStepsRequired = errors.New("at least one step is required")
	// ErrStepTitleRequired indicates that a step has no title.
	ErrStepTitleRequired = errors.New("step title is required")
	// ErrGateMarkerRequired indicates that a gate names no marker.
	ErrGateMarkerRequired = errors.New("gate marker is required")
	// ErrGateQuestionsRequired indicates that a gate lists no questions.
	ErrGateQuestionsRequired = errors.New("gate must list at least one question")
	// ErrDuplicateGate indicates that a marker is gated twice.
	ErrDuplicateGate = errors.New("duplicate gate")
	// ErrRewindFirstMarker indicates a rewind on the first marker, which has nothing before it.
	ErrRewindFirstMarker = errors.New("cannot rewind the first marker")
	// ErrSnapshotStage indicates a snapshot taken from a different stage.
	ErrSnapshotStage = errors.New("snapshot belongs to a different stage")
	// ErrNoConfigLoader indicates a bare stage name with no loader registered.
	ErrNoConfigLoader = errors.New("no config loader registered")
)

// ErrProgressRequired indicates a gated stage built without a progress reader.
var ErrProgressRequired = errors.New("progress reader is required for gated stages")
