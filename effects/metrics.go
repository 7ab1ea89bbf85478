package effects

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// failuresTotal tracks effects that returned an error or panicked.
	failuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "markerflow_effect_failures_total",
		Help: "Total number of transition effects that failed or panicked, by stage and effect",
	}, []string{"stage", "effect"})
)

func sanitizeStage(stage string) string {
	if stage == "" {
		return "unknown"
	}

	return stage
}
