package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of BridgeMetrics.EventsTotal.
const (
	OutcomeForwarded    = "forwarded"
	OutcomeUnregistered = "unregistered"
	OutcomeFiltered     = "filtered"
	OutcomeFormatError  = "format_error"
)

// BridgeMetrics holds all Prometheus metrics for the event bridge.
type BridgeMetrics struct {
	EventsTotal         *prometheus.CounterVec
	RedactedFieldsTotal prometheus.Counter
	RegisteredSources   prometheus.Gauge
	RegistrationsTotal  prometheus.Counter
}

// NewBridgeMetrics initializes the metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewBridgeMetrics(reg prometheus.Registerer) *BridgeMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &BridgeMetrics{
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "event_bridge",
			Subsystem: "pipeline",
			Name:      "events_total",
			Help:      "Total number of delivered events by outcome.",
		}, []string{"outcome"}), // outcome: forwarded, unregistered, filtered, format_error
		RedactedFieldsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "event_bridge",
			Subsystem: "pipeline",
			Name:      "redacted_fields_total",
			Help:      "Total number of payload values replaced by the redaction placeholder.",
		}),
		RegisteredSources: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "event_bridge",
			Subsystem: "registry",
			Name:      "registered_sources",
			Help:      "Number of sources with active settings.",
		}),
		RegistrationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "event_bridge",
			Subsystem: "registry",
			Name:      "registrations_total",
			Help:      "Total number of EnableEvents calls that completed.",
		}),
	}
}
