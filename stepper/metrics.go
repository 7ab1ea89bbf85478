package stepper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// suppressedTotal counts re-entrant calls swallowed by the bridge,
	// by the side they came from.
	suppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markerflow_bridge_suppressed_total",
		Help: "Total number of re-entrant bridge calls ignored while the bridge was pushing, by stage and source",
	}, []string{"stage", "source"})
)

const (
	sourceMarker  = "marker"
	sourceStepper = "stepper"
)

func sanitizeStage(stage string) string {
	if stage == "" {
		return "unknown"
	}

	return stage
}
