package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// triageClassifications counts classifier verdicts by severity.
	triageClassifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_classifications_total",
			Help: "Side-effect classifications by severity.",
		},
		[]string{"severity"},
	)

	// triageFallbacks counts classifier calls that fell back to the safe
	// default because the model was unreachable or returned garbage.
	triageFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_classifier_fallbacks_total",
			Help: "Classifications substituted by the fail-closed default.",
		},
	)
)

func init() {
	prometheus.MustRegister(triageClassifications, triageFallbacks)
}
