// monitor/monitor.go
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wfunc/wordchain/game"
)

type Metrics struct {
	MovesAccepted  prometheus.Counter
	MovesRejected  *prometheus.CounterVec
	GamesStarted   prometheus.Counter
	ChainRestarts  prometheus.Counter
	Hints          *prometheus.CounterVec
	ActiveRooms    prometheus.Gauge
	OnlineSessions prometheus.Gauge
	MoveLatency    prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		MovesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_accepted_total",
			Help:      "Number of accepted word-chain moves",
		}),
		MovesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_rejected_total",
			Help:      "Number of rejected moves by reason",
		}, []string{"reason"}),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Number of games started",
		}),
		ChainRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_exhausted_total",
			Help:      "Number of accepted moves that left no legal continuation",
		}),
		Hints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hints_total",
			Help:      "Number of hint lookups by outcome",
		}, []string{"found"}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms with game state",
		}),
		OnlineSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_sessions",
			Help:      "Number of connected websocket sessions",
		}),
		MoveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "move_latency_seconds",
			Help:      "Move validation latency",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 12),
		}),
	}
}

// Monitor 实现 game.Observer，每个实例使用独立的 registry
type Monitor struct {
	metrics   *Metrics
	registry  *prometheus.Registry
	startTime time.Time
	rooms     func() int
}

var _ game.Observer = (*Monitor)(nil)

func NewMonitor(namespace string) *Monitor {
	m := &Monitor{
		metrics:   NewMetrics(namespace),
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}

	m.registry.MustRegister(
		m.metrics.MovesAccepted,
		m.metrics.MovesRejected,
		m.metrics.GamesStarted,
		m.metrics.ChainRestarts,
		m.metrics.Hints,
		m.metrics.ActiveRooms,
		m.metrics.OnlineSessions,
		m.metrics.MoveLatency,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the process started",
		}, func() float64 {
			return time.Since(m.startTime).Seconds()
		}),
	)
	return m
}

// TrackRooms makes every game event refresh the active rooms gauge from count.
func (m *Monitor) TrackRooms(count func() int) {
	m.rooms = count
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Monitor) refreshRooms() {
	if m.rooms != nil {
		m.metrics.ActiveRooms.Set(float64(m.rooms()))
	}
}

func (m *Monitor) GameStarted(roomID string) {
	m.metrics.GamesStarted.Inc()
	m.refreshRooms()
}

func (m *Monitor) MoveAccepted(roomID string, shouldRestart bool, elapsed time.Duration) {
	m.metrics.MovesAccepted.Inc()
	if shouldRestart {
		m.metrics.ChainRestarts.Inc()
	}
	m.metrics.MoveLatency.Observe(elapsed.Seconds())
	m.refreshRooms()
}

func (m *Monitor) MoveRejected(roomID string, reason game.RejectReason) {
	m.metrics.MovesRejected.WithLabelValues(reason.String()).Inc()
}

func (m *Monitor) HintServed(roomID string, found bool) {
	label := "false"
	if found {
		label = "true"
	}
	m.metrics.Hints.WithLabelValues(label).Inc()
}

func (m *Monitor) IncOnlineSessions() {
	m.metrics.OnlineSessions.Inc()
}

func (m *Monitor) DecOnlineSessions() {
	m.metrics.OnlineSessions.Dec()
}
