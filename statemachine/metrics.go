package statemachine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric definitions with appropriate labels.
var (
	// transitionsTotal tracks committed marker changes.
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markerflow_transitions_total",
		Help: "Total number of marker transitions by stage, from marker, to marker, and cause",
	}, []string{"stage", "from", "to", "cause"})

	// gateDenialsTotal tracks forward moves refused by a gate.
	gateDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markerflow_gate_denials_total",
		Help: "Total number of forward moves blocked by a gate, by stage and gated marker",
	}, []string{"stage", "marker"})

	// recoveriesTotal tracks unknown marker values replaced by the first marker.
	recoveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markerflow_recoveries_total",
		Help: "Total number of unknown marker values recovered to the first marker, by stage and reason",
	}, []string{"stage", "reason"})
)

// Recovery reasons.
const (
	reasonInitial       = "initial"
	reasonRestore       = "restore"
	reasonInvalidTarget = "invalid_target"
	reasonInvalidJump   = "invalid_jump"
)

func sanitizeStage(stage string) string {
	if stage == "" {
		return "unknown"
	}

	return stage
}
