package apidown

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fixed HELP strings.
const (
	probeTotalHelp    = "Number of reachability probes by target role and result"
	probeDurationHelp = "Duration of reachability probes in seconds"
	probeStatusHelp   = "Number of reachability probes by classified status"
	decisionHelp      = "Number of fresh down decisions by outcome"
	cacheHelp         = "Number of IsDown calls answered from cache (hit) or by probing (miss)"
)

var defaultDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0}

// Target roles.
const (
	RoleUntrusted = "untrusted"
	RoleTrusted   = "trusted"
)

// Decision outcomes for apidown_decision_total.
const (
	DecisionFalseAlarm  = "false_alarm"  // untrusted target reachable
	DecisionAPIDown     = "api_down"     // untrusted unreachable, trusted reachable
	DecisionNetworkDown = "network_down" // both unreachable
)

// MetricsExporter manages the Prometheus metrics of a Checker.
// A nil *MetricsExporter is valid and records nothing.
type MetricsExporter struct {
	probes    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	status    *prometheus.CounterVec
	decisions *prometheus.CounterVec
	cache     *prometheus.CounterVec
}

// NewMetricsExporter creates the collectors and registers them with reg.
// Registration fails if another exporter already uses reg.
func NewMetricsExporter(reg prometheus.Registerer) (*MetricsExporter, error) {
	m := newMetricsExporter()
	if err := m.register(reg); err != nil {
		return nil, err
	}
	return m, nil
}

func newMetricsExporter() *MetricsExporter {
	return &MetricsExporter{
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apidown_probe_total",
			Help: probeTotalHelp,
		}, []string{"role", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "apidown_probe_duration_seconds",
			Help:    probeDurationHelp,
			Buckets: defaultDurationBuckets,
		}, []string{"role"}),
		status: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apidown_probe_status_total",
			Help: probeStatusHelp,
		}, []string{"role", "status", "detail"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apidown_decision_total",
			Help: decisionHelp,
		}, []string{"decision"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apidown_cache_total",
			Help: cacheHelp,
		}, []string{"outcome"}),
	}
}

func (m *MetricsExporter) register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.probes, m.duration, m.status, m.decisions, m.cache} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveProbe records one Validator call.
func (m *MetricsExporter) ObserveProbe(role string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "fail"
	if ok {
		result = "ok"
	}
	m.probes.WithLabelValues(role, result).Inc()
	m.duration.WithLabelValues(role).Observe(d.Seconds())
}

// ObserveStatus records the classified outcome of a URL-built probe.
func (m *MetricsExporter) ObserveStatus(role string, r CheckResult) {
	if m == nil {
		return
	}
	m.status.WithLabelValues(role, string(r.Category), r.Detail).Inc()
}

// ObserveDecision records the outcome of a fresh two-step probe.
func (m *MetricsExporter) ObserveDecision(decision string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision).Inc()
}

// ObserveCache records whether IsDown was served from cache.
func (m *MetricsExporter) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cache.WithLabelValues(outcome).Inc()
}

func (m *MetricsExporter) statusObserver(role string) func(CheckResult) {
	if m == nil {
		return nil
	}
	return func(r CheckResult) {
		m.ObserveStatus(role, r)
	}
}
