package pager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/internal/telemetry"
)

// CacheStore is the local tier. Read returns an empty slice and a nil error
// on a miss.
type CacheStore[T any] interface {
	Read(ctx context.Context, q Query) ([]T, error)
	Write(ctx context.Context, q Query, items []T) error
}

// NetworkClient is the authoritative remote tier.
type NetworkClient[T any] interface {
	Execute(ctx context.Context, q Query) ([]T, error)
}

// Sinks receives the outcome of each step of a plan.
type Sinks[T any] interface {
	// Provisional receives the outcome of a non-authoritative step.
	Provisional(out FetchOutcome[T])

	// Authoritative receives the outcome of the authoritative step.
	Authoritative(out FetchOutcome[T])
}

var (
	errNoCacheStore    = errors.New("no cache store configured")
	errNoNetworkClient = errors.New("no network client configured")
)

// DefaultFetchTimeout bounds a single fetch step.
const DefaultFetchTimeout = 30 * time.Second

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// Workers is the number of fetch workers.
	Workers int `mapstructure:"workers" validate:"omitempty,min=1" yaml:"workers"`

	// QueueSize bounds queued fetch jobs. A job that does not fit runs on
	// its own goroutine.
	QueueSize int `mapstructure:"queue_size" validate:"omitempty,min=1" yaml:"queue_size"`

	// FetchTimeout bounds each fetch step and each cache write-back. Zero
	// disables the timeout.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" validate:"omitempty,gte=0" yaml:"fetch_timeout"`
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Workers:      DefaultWorkers,
		QueueSize:    DefaultQueueSize,
		FetchTimeout: DefaultFetchTimeout,
	}
}

// Loader executes fetch plans against a cache and a network tier.
// A Loader is shared by any number of sessions.
type Loader[T any] struct {
	cache   CacheStore[T]
	network NetworkClient[T]
	pool    *WorkerPool
	config  LoaderConfig
	metrics Metrics
}

// NewLoader creates a loader. Either tier may be nil; steps against a
// missing tier fail like any other fault of that tier. m may be nil.
func NewLoader[T any](cache CacheStore[T], network NetworkClient[T], config LoaderConfig, m Metrics) *Loader[T] {
	return &Loader[T]{
		cache:   cache,
		network: network,
		pool: NewWorkerPool(WorkerPoolConfig{
			Workers:   config.Workers,
			QueueSize: config.QueueSize,
		}),
		config:  config,
		metrics: m,
	}
}

// Start launches the fetch workers. Before Start (and after Stop) every
// step runs on its own goroutine.
func (l *Loader[T]) Start(ctx context.Context) {
	l.pool.Start(ctx)
}

// Stop drains the worker pool, waiting up to timeout.
func (l *Loader[T]) Stop(timeout time.Duration) bool {
	return l.pool.Stop(timeout)
}

// Pending returns the number of queued or running fetch steps.
func (l *Loader[T]) Pending() int {
	return l.pool.Pending()
}

// Execute dispatches every step of plan and returns without waiting. Each
// step gets its own clone of q. An empty plan dispatches nothing.
func (l *Loader[T]) Execute(ctx context.Context, req PageRequest, plan Plan, q Query, sinks Sinks[T]) {
	for _, step := range plan.Steps() {
		stepQuery := q.Clone()
		job := func() {
			l.runStep(ctx, req, step, stepQuery, sinks)
		}
		l.pool.Run(job)
	}
}

func (l *Loader[T]) runStep(ctx context.Context, req PageRequest, step FetchStep, q Query, sinks Sinks[T]) {
	if lc := logger.FromContext(ctx); lc != nil {
		ctx = logger.WithContext(ctx, lc.WithOrigin(step.Origin.String()))
	}

	ctx, span := telemetry.StartFetchSpan(ctx, step.Origin.String(), step.Authoritative,
		telemetry.RequestID(req.ID.String()),
		telemetry.Phase(req.Phase.String()),
		telemetry.PageKey(req.Key.String()),
		telemetry.CacheKey(q.CacheKey()),
	)
	defer span.End()

	fetchCtx := ctx
	if l.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.config.FetchTimeout)
		defer cancel()
	}

	var (
		items []T
		err   error
	)
	start := time.Now()
	telemetry.ProfileFetch(fetchCtx, step.Origin.String(), req.Phase.String(), q.Strategy.String(), func(ctx context.Context) {
		items, err = l.fetch(ctx, step.Origin, q)
	})
	elapsed := time.Since(start)

	if l.metrics != nil {
		l.metrics.ObserveFetch(step.Origin, fetchResult(len(items), err), len(items), elapsed)
	}
	span.SetAttributes(telemetry.Items(len(items)))

	out := FetchOutcome[T]{
		Origin:    step.Origin,
		Items:     items,
		Succeeded: err == nil,
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		out.Items = nil

		if step.Origin == OriginCache {
			logger.WarnCtx(ctx, "Cache read failed, treating as empty",
				logger.CacheKey(q.CacheKey()),
				logger.ErrorKind(CacheFault.String()),
				logger.Err(err))
			out.Err = newPageError(CacheFault, req, err)
		} else {
			logger.WarnCtx(ctx, "Network fetch failed",
				logger.URL(q.String()),
				logger.DurationMs(float64(elapsed.Microseconds())/1000.0),
				logger.ErrorKind(NetworkFault.String()),
				logger.Err(err))
			out.Err = newPageError(NetworkFault, req, err)
		}
	} else {
		logger.DebugCtx(ctx, "Fetch step completed",
			logger.Items(len(items)),
			logger.DurationMs(float64(elapsed.Microseconds())/1000.0))
	}

	if step.Authoritative {
		sinks.Authoritative(out)
	} else {
		sinks.Provisional(out)
	}

	// Write-back follows the answer and outlives the session context, so a
	// slow cache tier never holds the request and Close does not lose the page.
	if step.Persist && out.Succeeded {
		persistCtx := context.WithoutCancel(ctx)
		if l.config.FetchTimeout > 0 {
			var cancel context.CancelFunc
			persistCtx, cancel = context.WithTimeout(persistCtx, l.config.FetchTimeout)
			defer cancel()
		}
		l.persist(persistCtx, q, items)
	}
}

// fetch runs one tier. A panicking collaborator is reported as an error so
// the request is still answered.
func (l *Loader[T]) fetch(ctx context.Context, origin Origin, q Query) (items []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("%s fetch panicked: %v", origin, r)
		}
	}()

	switch origin {
	case OriginCache:
		if l.cache == nil {
			return nil, errNoCacheStore
		}
		return l.cache.Read(ctx, q)
	case OriginNetwork:
		if l.network == nil {
			return nil, errNoNetworkClient
		}
		return l.network.Execute(ctx, q)
	default:
		return nil, fmt.Errorf("fetch: unknown origin %d", origin)
	}
}

// persist writes a network page back into the cache after it was answered.
// Failures, including a write that outlasts the fetch timeout, are logged and
// absorbed.
func (l *Loader[T]) persist(ctx context.Context, q Query, items []T) {
	if l.cache == nil {
		return
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanCachePersist)
	defer span.End()
	span.SetAttributes(telemetry.CacheKey(q.CacheKey()), telemetry.Items(len(items)))

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("cache write panicked: %v", r)
			}
		}()
		return l.cache.Write(ctx, q, items)
	}()

	if l.metrics != nil {
		l.metrics.RecordCachePersist(err == nil)
	}
	if err != nil {
		span.RecordError(err)
		logger.WarnCtx(ctx, "Cache write-back failed",
			logger.CacheKey(q.CacheKey()),
			logger.Err(err))
	}
}
