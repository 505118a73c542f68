// Package notify defines the caregiver alert-delivery boundary. The triage
// pipeline only needs a SendAlert capability; delivery failures are the
// caller's problem to absorb (they must never alter the chat reply).
//
// The production boundary is meant to be backed by a real SMS/email gateway.
// This repository ships LogNotifier, which simulates delivery by emitting a
// structured log line, so the full pipeline is exercisable without external
// credentials.
package notify

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/mediminder/mediminder-backend/internal/domain"
)

// Notifier delivers a caregiver alert. Implementations must be safe for
// concurrent use and must return (not panic on) delivery failures.
type Notifier interface {
	SendAlert(ctx context.Context, caregiver domain.Caregiver, message string) error
}

var (
	// alertsSent counts alert deliveries by outcome ("ok" or "error").
	alertsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caregiver_alerts_total",
			Help: "Total caregiver alert delivery attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(alertsSent)
}

// ObserveDelivery records an alert delivery attempt in the metrics. Exposed
// so alternative Notifier implementations share one counter.
func ObserveDelivery(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	alertsSent.WithLabelValues(outcome).Inc()
}

// LogNotifier simulates alert delivery by writing a structured log entry.
// The caregiver's contact details are intentionally reduced to the record ID;
// phone numbers and emails stay out of the logs.
type LogNotifier struct{}

var _ Notifier = LogNotifier{}

// SendAlert logs the alert and always reports success.
func (LogNotifier) SendAlert(ctx context.Context, caregiver domain.Caregiver, message string) error {
	log.Warn().
		Str("caregiver_id", caregiver.ID).
		Str("relationship", caregiver.Relationship).
		Bool("is_primary", caregiver.IsPrimary).
		Str("message", message).
		Msg("caregiver alert dispatched")
	return nil
}
