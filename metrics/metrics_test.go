package metrics_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/cpnlib/coupon"
	"github.com/meenmo/cpnlib/metrics"
)

func TestObserveConversion(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveConversion(coupon.KindFixed, nil)
	m.ObserveConversion(coupon.KindFixed, nil)
	m.ObserveConversion(coupon.KindFlatCompounding, nil)
	m.ObserveConversion("", &coupon.InvalidReferenceDateError{})
	m.ObserveConversion("", fmt.Errorf("wrapped: %w", &coupon.MissingFixingDataError{}))

	require.Equal(t, 2.0, testutil.ToFloat64(m.Conversions.WithLabelValues("FIXED", metrics.OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Conversions.WithLabelValues("FLAT_COMPOUNDING", metrics.OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Conversions.WithLabelValues("none", metrics.OutcomeInvalidReferenceDate)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Conversions.WithLabelValues("none", metrics.OutcomeMissingFixing)))
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	require.Equal(t, metrics.OutcomeOK, metrics.Outcome(nil))
	require.Equal(t, metrics.OutcomeInvalidDefinition, metrics.Outcome(fmt.Errorf("x: %w", coupon.ErrInvalidDefinition)))
	require.Equal(t, metrics.OutcomeError, metrics.Outcome(errors.New("boom")))
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveBatch(4, 20*time.Millisecond)

	path := filepath.Join(t.TempDir(), "cpnlib.prom")
	require.NoError(t, metrics.WriteTextfile(reg, path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "cpnlib_batch_duration_seconds_count 1"))
	require.True(t, strings.Contains(string(body), "cpnlib_batch_jobs_sum 4"))
}
