// Package metrics provides Prometheus instrumentation for coupon conversion.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/meenmo/cpnlib/coupon"
)

// Outcome label values.
const (
	OutcomeOK                   = "ok"
	OutcomeInvalidReferenceDate = "invalid_reference_date"
	OutcomeMissingFixing        = "missing_fixing"
	OutcomeInvalidDefinition    = "invalid_definition"
	OutcomeError                = "error"
)

// Metrics holds the collectors registered for one registry.
type Metrics struct {
	// Conversions counts conversions by resulting kind and outcome.
	Conversions *prometheus.CounterVec

	// BatchDuration tracks wall time of engine runs.
	BatchDuration prometheus.Histogram

	// BatchJobs tracks the number of jobs per engine run.
	BatchJobs prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Conversions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cpnlib_conversions_total",
			Help: "Coupon conversions by resulting kind and outcome",
		}, []string{"kind", "outcome"}),
		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cpnlib_batch_duration_seconds",
			Help:    "Batch conversion wall time in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0},
		}),
		BatchJobs: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cpnlib_batch_jobs",
			Help:    "Number of coupons per batch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

// ObserveConversion records one conversion. Its signature matches
// coupon.WithObserver.
func (m *Metrics) ObserveConversion(kind coupon.Kind, err error) {
	k := string(kind)
	if k == "" {
		k = "none"
	}
	m.Conversions.WithLabelValues(k, Outcome(err)).Inc()
}

// ObserveBatch records one engine run.
func (m *Metrics) ObserveBatch(jobs int, elapsed time.Duration) {
	m.BatchJobs.Observe(float64(jobs))
	m.BatchDuration.Observe(elapsed.Seconds())
}

// Outcome classifies a conversion error into a label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, coupon.ErrInvalidReferenceDate):
		return OutcomeInvalidReferenceDate
	case errors.Is(err, coupon.ErrMissingFixingData):
		return OutcomeMissingFixing
	case errors.Is(err, coupon.ErrInvalidDefinition):
		return OutcomeInvalidDefinition
	default:
		return OutcomeError
	}
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, for the node_exporter textfile collector.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("metrics.WriteTextfile: %w", err)
	}
	return nil
}
