package sheets

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for record-store calls.
type Metrics struct {
	CallLatency *prometheus.HistogramVec
	CallErrors  *prometheus.CounterVec
}

// NewMetrics creates and registers the record-store metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		CallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timeclock_sheets_call_duration_seconds",
			Help:    "Duration of record store calls by operation and sheet",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op", "sheet"}),

		CallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "timeclock_sheets_call_errors_total",
			Help: "Total failed record store calls by operation and sheet",
		}, []string{"op", "sheet"}),
	}
}

func (m *Metrics) observe(op, sheet string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.CallLatency.WithLabelValues(op, sheet).Observe(time.Since(start).Seconds())
	if err != nil {
		m.CallErrors.WithLabelValues(op, sheet).Inc()
	}
}

// Instrumented decorates a Store with latency and error metrics.
type Instrumented struct {
	next    Store
	metrics *Metrics
}

func Instrument(next Store, metrics *Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

func (s *Instrumented) ReadSheet(ctx context.Context, name string) ([]Row, error) {
	start := time.Now()
	rows, err := s.next.ReadSheet(ctx, name)
	s.metrics.observe("read", name, start, err)
	return rows, err
}

func (s *Instrumented) AppendRows(ctx context.Context, name string, values [][]string) error {
	start := time.Now()
	err := s.next.AppendRows(ctx, name, values)
	s.metrics.observe("append", name, start, err)
	return err
}

func (s *Instrumented) UpdateRange(ctx context.Context, name, rangeRef string, values [][]string) error {
	start := time.Now()
	err := s.next.UpdateRange(ctx, name, rangeRef, values)
	s.metrics.observe("update", name, start, err)
	return err
}

func (s *Instrumented) FindRowNumber(ctx context.Context, name, column, value string) (int, error) {
	start := time.Now()
	n, err := s.next.FindRowNumber(ctx, name, column, value)
	s.metrics.observe("find", name, start, err)
	return n, err
}

func (s *Instrumented) EnsureSheet(ctx context.Context, name string, headers []string) error {
	start := time.Now()
	err := s.next.EnsureSheet(ctx, name, headers)
	s.metrics.observe("ensure", name, start, err)
	return err
}
