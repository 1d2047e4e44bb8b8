package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	// Bridge metrics
	BridgeRequests  *prometheus.CounterVec
	BridgeDuration  *prometheus.HistogramVec
	BridgeEvents    *prometheus.CounterVec
	ObjectsExposed  prometheus.Gauge
	ScriptEvalTotal *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for the JSON health endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON health endpoint
type Snapshot struct {
	BridgeRequests    int64
	BridgeFailures    int64
	EventsEmitted     int64
	EventsDropped     int64
	ObjectsExposed    int64
	ActiveConnections int64
	Uptime            time.Duration
}

// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		BridgeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webbridge_requests_total",
				Help: "Total number of bridge requests from the page",
			},
			[]string{"type", "outcome"},
		),
		BridgeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webbridge_request_duration_seconds",
				Help:    "Bridge request dispatch duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"type"},
		),
		BridgeEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webbridge_events_total",
				Help: "Total number of events pushed to the page",
			},
			[]string{"type", "outcome"},
		),
		ObjectsExposed: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webbridge_objects_exposed",
				Help: "Number of objects addressable from the page",
			},
		),
		ScriptEvalTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webbridge_script_evals_total",
				Help: "Total number of scripts evaluated in the page",
			},
			[]string{"outcome"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webbridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "webbridge_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webbridge_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "webbridge_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordBridgeRequest records one dispatched page request
func (m *Metrics) RecordBridgeRequest(reqType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BridgeRequests.WithLabelValues(reqType, outcome).Inc()
	m.BridgeDuration.WithLabelValues(reqType).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.BridgeRequests++
	if outcome != OutcomeOK {
		m.snapshot.BridgeFailures++
	}
	m.mu.Unlock()
}

// RecordEvent records one event emission attempt
func (m *Metrics) RecordEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.BridgeEvents.WithLabelValues(eventType, outcome).Inc()

	m.mu.Lock()
	if outcome == OutcomeOK {
		m.snapshot.EventsEmitted++
	} else {
		m.snapshot.EventsDropped++
	}
	m.mu.Unlock()
}

// RecordScriptEval records one host-initiated script evaluation
func (m *Metrics) RecordScriptEval(outcome string) {
	if m == nil {
		return
	}
	m.ScriptEvalTotal.WithLabelValues(outcome).Inc()
}

// SetObjectsExposed sets the number of addressable objects
func (m *Metrics) SetObjectsExposed(count int) {
	if m == nil {
		return
	}
	m.ObjectsExposed.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ObjectsExposed = int64(count)
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.Uptime = time.Since(m.startTime)
	return s
}
