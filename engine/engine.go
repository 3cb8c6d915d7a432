// Package engine converts and prices batches of coupons concurrently.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/cpnlib/config"
	"github.com/meenmo/cpnlib/coupon"
	"github.com/meenmo/cpnlib/marketdata/fixings"
	"github.com/meenmo/cpnlib/metrics"
)

// ErrNoStore is returned for a job naming a fixing index when the engine has no store.
var ErrNoStore = errors.New("engine: no fixing store configured")

// Job is one coupon to convert.
//
// Fixings takes precedence over FixingIndex; when both are empty the coupon is
// converted without fixings. Discount, when set, also prices the result.
type Job struct {
	ID            string
	Definition    *coupon.Definition
	ReferenceDate time.Time
	Fixings       fixings.Series
	FixingIndex   string
	Discount      coupon.DiscountCurve
	Forward       coupon.ForwardCurve
}

// Result pairs a job with its outcome. Err is per job and never aborts the batch;
// conversion errors are returned unwrapped.
type Result struct {
	JobID      string
	Derivative coupon.Derivative
	PV         float64
	Priced     bool
	Err        error
}

// Engine runs batches. It is safe for concurrent use.
type Engine struct {
	store    fixings.Store
	workers  int
	lookback int
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore sets the store used to load fixings by index name.
func WithStore(s fixings.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithWorkers bounds concurrency; non-positive values are ignored.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics records conversions and batch timings.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine with tunables taken from config.GetConfig().
func New(opts ...Option) *Engine {
	c := config.GetConfig().Engine
	e := &Engine{
		workers:  c.Workers,
		lookback: c.FixingLookbackDays,
		log:      zap.NewNop(),
	}
	if e.workers <= 0 {
		e.workers = config.DefaultConfig.Engine.Workers
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run converts jobs and returns one Result per job, in job order.
//
// A cancelled ctx stops scheduling; jobs never started carry the context
// error and Run returns it as well.
func (e *Engine) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	runID := uuid.New().String()
	log := e.log.With(zap.String("run_id", runID))
	start := time.Now()

	convOpts := []coupon.Option{coupon.WithLogger(log)}
	if e.metrics != nil {
		convOpts = append(convOpts, coupon.WithObserver(e.metrics.ObserveConversion))
	}
	conv := coupon.NewConverter(convOpts...)

	log.Info("batch started", zap.Int("jobs", len(jobs)), zap.Int("workers", e.workers))

	results := make([]Result, len(jobs))
	started := make([]bool, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range jobs {
		if gctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			results[i] = e.runJob(gctx, conv, log, jobs[i])
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i := range results {
		if !started[i] {
			results[i] = Result{JobID: jobs[i].ID, Err: ctx.Err()}
		}
		if results[i].Err != nil {
			failed++
		}
	}

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.ObserveBatch(len(jobs), elapsed)
	}
	log.Info("batch finished",
		zap.Int("jobs", len(jobs)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", elapsed))

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("engine.Run %s: %w", runID, err)
	}
	return results, nil
}

func (e *Engine) runJob(ctx context.Context, conv *coupon.Converter, log *zap.Logger, job Job) Result {
	res := Result{JobID: job.ID}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if job.Definition == nil {
		res.Err = fmt.Errorf("%w: nil definition", coupon.ErrInvalidDefinition)
		return res
	}

	series := job.Fixings
	if series == nil && job.FixingIndex != "" {
		ts, err := e.loadFixings(ctx, job)
		if err != nil {
			res.Err = fmt.Errorf("load fixings %s: %w", job.FixingIndex, err)
			return res
		}
		if ts != nil {
			first, _ := ts.First()
			last, _ := ts.Last()
			log.Debug("fixings loaded",
				zap.String("job_id", job.ID),
				zap.String("index", job.FixingIndex),
				zap.Int("count", ts.Len()),
				zap.Time("first", first),
				zap.Time("last", last))
			series = ts
		}
	}

	d, err := conv.Convert(job.Definition, job.ReferenceDate, series)
	if err != nil {
		log.Warn("conversion failed", zap.String("job_id", job.ID), zap.Error(err))
		res.Err = err
		return res
	}
	res.Derivative = d

	if job.Discount != nil {
		pv, err := coupon.PresentValue(d, job.Discount, job.Forward)
		if err != nil {
			res.Err = err
			return res
		}
		res.PV, res.Priced = pv, true
	}
	return res
}

// loadFixings reads the window [first fixing - lookback, min(reference, last fixing)].
// Nothing is loaded before the first fixing date. A store without the index
// yields no series so conversion reports the missing fixing itself.
func (e *Engine) loadFixings(ctx context.Context, job Job) (*fixings.TimeSeries, error) {
	def := job.Definition
	if job.ReferenceDate.Before(def.FirstFixingDate()) {
		return nil, nil
	}
	if e.store == nil {
		return nil, ErrNoStore
	}
	from := def.FirstFixingDate().AddDate(0, 0, -e.lookback)
	to := def.LastFixingDate()
	if job.ReferenceDate.Before(to) {
		to = job.ReferenceDate
	}
	ts, err := e.store.Series(ctx, job.FixingIndex, from, to)
	if errors.Is(err, fixings.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ts, nil
}
