package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks clock activity. A nil *Metrics is a no-op so tests and
// partial wirings need no registry.
type Metrics struct {
	clockIns  *prometheus.CounterVec
	clockOuts prometheus.Counter
	rejected  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		clockIns: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_clockins_total",
			Help: "Successful clock-ins by verification channel.",
		}, []string{"channel"}),
		clockOuts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "timeclock_clockouts_total",
			Help: "Successful clock-outs.",
		}),
		rejected: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_clock_rejections_total",
			Help: "Rejected clock operations by reason.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) ClockIn(channel string) {
	if m == nil {
		return
	}
	m.clockIns.WithLabelValues(channel).Inc()
}

func (m *Metrics) ClockOut() {
	if m == nil {
		return
	}
	m.clockOuts.Inc()
}

func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}
