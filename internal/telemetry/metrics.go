package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments the engine's counters and
// comms/watchdog transitions are mirrored into.
type Metrics struct {
	PacketsSent     *prometheus.CounterVec
	PacketsReceived *prometheus.CounterVec
	BytesSent       *prometheus.CounterVec
	BytesReceived   *prometheus.CounterVec

	CommsUp         *prometheus.GaugeVec
	WatchdogExpiries *prometheus.CounterVec

	TelemetryDropped *prometheus.CounterVec
}

// NewMetrics registers a fresh set of instruments against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the global
// default registry across test runs.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		PacketsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsengine",
			Name:      "packets_sent_total",
			Help:      "Total packets sent per stream.",
		}, []string{"stream"}),
		PacketsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsengine",
			Name:      "packets_received_total",
			Help:      "Total packets received per stream.",
		}, []string{"stream"}),
		BytesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsengine",
			Name:      "bytes_sent_total",
			Help:      "Total bytes sent per stream.",
		}, []string{"stream"}),
		BytesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsengine",
			Name:      "bytes_received_total",
			Help:      "Total bytes received per stream.",
		}, []string{"stream"}),
		CommsUp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dsengine",
			Name:      "comms_up",
			Help:      "1 if the stream's comms flag is currently true, else 0.",
		}, []string{"stream"}),
		WatchdogExpiries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsengine",
			Name:      "watchdog_expiries_total",
			Help:      "Total watchdog expiries per stream.",
		}, []string{"stream"}),
		TelemetryDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dsengine",
			Name:      "telemetry_dropped_total",
			Help:      "Total telemetry publishes dropped due to sink error or timeout.",
		}, []string{"sink"}),
	}
	return m
}

// ObserveCounters mirrors one stream's engine.Counters snapshot into the
// packet/byte counter vectors. Prometheus counters are monotonic while
// engine.Counters is zeroed on every comms transition, so this takes the
// deltas since the last observation, computed by the caller; non-positive
// deltas are ignored.
func (m *Metrics) ObserveCounters(stream string, sentPacketsDelta, recvPacketsDelta, sentBytesDelta, recvBytesDelta float64) {
	if sentPacketsDelta > 0 {
		m.PacketsSent.WithLabelValues(stream).Add(sentPacketsDelta)
	}
	if recvPacketsDelta > 0 {
		m.PacketsReceived.WithLabelValues(stream).Add(recvPacketsDelta)
	}
	if sentBytesDelta > 0 {
		m.BytesSent.WithLabelValues(stream).Add(sentBytesDelta)
	}
	if recvBytesDelta > 0 {
		m.BytesReceived.WithLabelValues(stream).Add(recvBytesDelta)
	}
}

// SetCommsUp records the current comms state for a stream.
func (m *Metrics) SetCommsUp(stream string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	m.CommsUp.WithLabelValues(stream).Set(v)
}

// IncWatchdogExpiry records one watchdog expiry for a stream.
func (m *Metrics) IncWatchdogExpiry(stream string) {
	m.WatchdogExpiries.WithLabelValues(stream).Inc()
}
