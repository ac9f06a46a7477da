package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded by the session.
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport_error"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
)

var (
	registerOnce sync.Once

	handshakes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "internal_client",
			Subsystem: "session",
			Name:      "handshakes_total",
			Help:      "Registration handshake attempts.",
		},
		[]string{"device", "outcome"},
	)
	exchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "internal_client",
			Subsystem: "session",
			Name:      "exchanges_total",
			Help:      "Status/command exchanges.",
		},
		[]string{"device", "result"},
	)
	reconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "internal_client",
			Subsystem: "session",
			Name:      "reconnects_total",
			Help:      "Single-retry reconnect attempts inside an exchange.",
		},
		[]string{"device", "outcome"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "internal_client",
			Subsystem: "admin",
			Name:      "requests_total",
			Help:      "Admin endpoint HTTP requests.",
		},
		[]string{"device", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(handshakes, exchanges, reconnects, httpRequests)
	})
}

func RecordHandshake(device, outcome string) {
	RegisterMetrics()
	handshakes.WithLabelValues(device, outcome).Inc()
}

func RecordExchange(device, result string) {
	RegisterMetrics()
	exchanges.WithLabelValues(device, result).Inc()
}

func RecordReconnect(device, outcome string) {
	RegisterMetrics()
	reconnects.WithLabelValues(device, outcome).Inc()
}

func RecordHTTPRequest(device, method, path string, status int, _ time.Duration) {
	RegisterMetrics()
	httpRequests.WithLabelValues(device, method, path, strconv.Itoa(status)).Inc()
}
