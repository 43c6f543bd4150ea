package pager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/internal/telemetry"
)

// DefaultPageSize is used when a load is issued with a non-positive size.
const DefaultPageSize = 20

// Config configures a Session.
type Config struct {
	// Name identifies the session in logs and traces. Defaults to a random id.
	Name string `mapstructure:"name" yaml:"name,omitempty"`

	// Strategy selects the tiers used by each request.
	// Default: CACHE_THEN_NET
	Strategy Strategy `mapstructure:"strategy" yaml:"strategy"`

	// PageSize is the size used when a load passes size <= 0.
	// Default: 20
	PageSize int `mapstructure:"page_size" validate:"omitempty,min=1" yaml:"page_size"`

	// Strict panics on protocol violations instead of logging them.
	// Intended for development builds and tests.
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Strategy: CacheThenNet,
		PageSize: DefaultPageSize,
	}
}

// Session coordinates the page requests of one list: it gates forward
// loads, emits boundary signals and guarantees a single answer per request.
//
// All methods are safe for concurrent use.
type Session[T any] struct {
	id       string
	loader   *Loader[T]
	build    QueryBuilder
	observer Observer[T]
	config   Config
	metrics  Metrics

	ctx    context.Context
	cancel context.CancelFunc

	// inFlight is true while a FORWARD request is outstanding.
	inFlight atomic.Bool

	mu               sync.Mutex
	state            State
	token            uint64
	initialRequested bool
	pending          map[uuid.UUID]*Future[T]
}

// NewSession creates a session bound to loader. build turns a page key and
// size into a query; observer receives every outbound signal.
func NewSession[T any](loader *Loader[T], build QueryBuilder, observer Observer[T], config Config) (*Session[T], error) {
	if loader == nil {
		return nil, errors.New("pager: nil loader")
	}
	if build == nil {
		return nil, errors.New("pager: nil query builder")
	}
	if _, err := Resolve(PhaseInitial, config.Strategy); err != nil {
		return nil, fmt.Errorf("pager: %w: %d", err, config.Strategy)
	}
	if observer == nil {
		observer = ObserverFuncs[T]{}
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.Name == "" {
		config.Name = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session[T]{
		id:       config.Name,
		loader:   loader,
		build:    build,
		observer: observer,
		config:   config,
		metrics:  loader.metrics,
		ctx:      ctx,
		cancel:   cancel,
		state:    StateInitial,
		pending:  make(map[uuid.UUID]*Future[T]),
	}, nil
}

// ID returns the session identifier.
func (s *Session[T]) ID() string {
	return s.id
}

// State returns the coordinator state.
func (s *Session[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// InFlight reports whether a FORWARD request is outstanding.
func (s *Session[T]) InFlight() bool {
	return s.inFlight.Load()
}

// Closed reports whether Close has been called.
func (s *Session[T]) Closed() bool {
	return s.State() == StateClosed
}

// LoadInitial requests the first page. It may be called once per session;
// later calls return a future failed with ErrAlreadyInitialized.
func (s *Session[T]) LoadInitial(ctx context.Context, key PageKey, size int) *Future[T] {
	req := newPageRequest(key, s.pageSize(size), PhaseInitial)

	s.mu.Lock()
	switch {
	case s.state == StateClosed:
		s.mu.Unlock()
		return failedFuture[T](req, ErrSessionClosed)
	case s.initialRequested:
		s.mu.Unlock()
		return failedFuture[T](req, ErrAlreadyInitialized)
	}
	s.initialRequested = true
	s.state = StateLoadingInitial
	s.mu.Unlock()

	plan, err := Resolve(PhaseInitial, s.config.Strategy)
	if err != nil {
		// NewSession validated the strategy.
		return failedFuture[T](req, err)
	}
	return s.dispatch(ctx, req, plan, telemetry.SpanLoadInitial)
}

// LoadForward requests the page after key. While another forward request
// is outstanding, or before the first page is answered, it answers
// immediately with an empty page and leaves the session untouched.
func (s *Session[T]) LoadForward(ctx context.Context, key PageKey, size int) *Future[T] {
	req := newPageRequest(key, s.pageSize(size), PhaseForward)

	if !s.inFlight.CompareAndSwap(false, true) {
		return s.reject(req, "forward load already in flight")
	}

	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.inFlight.Store(false)
		s.mu.Unlock()
		return failedFuture[T](req, ErrSessionClosed)
	case StateIdle:
	default:
		s.inFlight.Store(false)
		s.mu.Unlock()
		return s.reject(req, "initial page not answered yet")
	}
	s.state = StateLoadingForward
	if s.metrics != nil {
		s.metrics.SetInFlight(1)
	}
	s.mu.Unlock()

	plan, err := Resolve(PhaseForward, s.config.Strategy)
	if err != nil {
		plan = emptyPlan()
	}
	return s.dispatch(ctx, req, plan, telemetry.SpanLoadForward)
}

// LoadBackward always answers immediately with an empty page: lists are
// forward-only.
func (s *Session[T]) LoadBackward(ctx context.Context, key PageKey) *Future[T] {
	req := newPageRequest(key, s.config.PageSize, PhaseBackward)
	if s.Closed() {
		return failedFuture[T](req, ErrSessionClosed)
	}

	fut := newFuture[T](req)
	s.answerNow(fut)
	return fut
}

// Close ends the session. Pending futures fail with ErrSessionClosed and
// outcomes that arrive later are dropped. Close is idempotent.
func (s *Session[T]) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.state == StateLoadingForward && s.metrics != nil {
		s.metrics.SetInFlight(-1)
	}
	s.state = StateClosed
	s.token++
	pending := s.pending
	s.pending = make(map[uuid.UUID]*Future[T])
	s.inFlight.Store(false)
	s.mu.Unlock()

	s.cancel()

	for _, fut := range pending {
		if fut.claim() {
			fut.complete(nil, ErrSessionClosed)
		}
	}

	logger.Debug("Pager session closed", logger.Session(s.id), "pending", len(pending))
}

// dispatch registers a future for req and hands plan to the loader. An
// empty plan is answered on the caller's goroutine.
func (s *Session[T]) dispatch(ctx context.Context, req PageRequest, plan Plan, spanName string) *Future[T] {
	fut := newFuture[T](req)

	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext(s.id)
	} else {
		lc = lc.Clone()
		lc.Session = s.id
	}
	lc = lc.WithRequest(req.ID.String(), req.Phase.String(), req.Key.String())

	// Fetches keep the caller's values but are cancelled by the session,
	// not by the caller.
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(s.ctx, cancel)

	fetchCtx, span := telemetry.StartSpan(fetchCtx, spanName, trace.WithAttributes(
		telemetry.Session(s.id),
		telemetry.RequestID(req.ID.String()),
		telemetry.Phase(req.Phase.String()),
		telemetry.PageKey(req.Key.String()),
		telemetry.PageSize(req.Size),
	))
	lc = lc.WithTrace(telemetry.TraceID(fetchCtx), telemetry.SpanID(fetchCtx))
	fetchCtx = logger.WithContext(fetchCtx, lc)

	sink := &requestSink[T]{
		session: s,
		future:  fut,
		span:    span,
		cancel: func() {
			stop()
			cancel()
		},
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		sink.finish()
		fut.claim()
		fut.complete(nil, ErrSessionClosed)
		return fut
	}
	sink.token = s.token
	s.pending[req.ID] = fut
	s.mu.Unlock()

	logger.DebugCtx(fetchCtx, "Page requested",
		logger.PageSize(req.Size),
		logger.Strategy(s.config.Strategy.String()))

	if plan.Empty() {
		sink.Authoritative(FetchOutcome[T]{Origin: OriginNetwork, Succeeded: true})
		return fut
	}

	q := s.build(req.Key, req.Size).WithStrategy(s.config.Strategy)
	s.loader.Execute(fetchCtx, req, plan, q, sink)
	return fut
}

// deliverPreview hands a cache outcome to the observer unless it is empty,
// stale or superseded by the answer.
func (s *Session[T]) deliverPreview(token uint64, fut *Future[T], out FetchOutcome[T]) {
	req := fut.Request()
	if req.Phase != PhaseInitial || !out.Succeeded || len(out.Items) == 0 {
		return
	}

	s.mu.Lock()
	if token != s.token {
		s.mu.Unlock()
		logger.Debug("Dropping preview for closed session", logger.Session(s.id), logger.RequestID(req.ID.String()))
		return
	}
	superseded := fut.isClaimed()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordPreview(!superseded)
	}
	if superseded {
		logger.Debug("Dropping preview superseded by answer",
			logger.Session(s.id),
			logger.RequestID(req.ID.String()),
			logger.Items(len(out.Items)))
		return
	}

	s.observer.OnPreview(req, out.Items)
}

// deliverAnswer answers fut with the authoritative outcome. It reports
// whether the answer was delivered.
func (s *Session[T]) deliverAnswer(token uint64, fut *Future[T], out FetchOutcome[T]) bool {
	req := fut.Request()

	s.mu.Lock()
	if token != s.token {
		s.mu.Unlock()
		logger.Debug("Dropping answer for closed session", logger.Session(s.id), logger.RequestID(req.ID.String()))
		return false
	}
	if !fut.claim() {
		s.mu.Unlock()
		s.violation(req, ErrAlreadyAnswered)
		return false
	}
	delete(s.pending, req.ID)

	var corrupted bool
	switch req.Phase {
	case PhaseInitial:
		s.state = StateIdle
	case PhaseForward:
		corrupted = !s.inFlight.CompareAndSwap(true, false)
		s.state = StateIdle
		if s.metrics != nil {
			s.metrics.SetInFlight(-1)
		}
	}
	s.mu.Unlock()

	items := out.Items
	if items == nil {
		items = []T{}
	}

	if req.Phase == PhaseForward {
		if corrupted {
			s.violation(req, ErrInFlightCorrupted)
		}
		s.observer.OnBoundary(Boundary{Key: req.Key, HasMore: len(items) > 0})
	}

	var pe *PageError
	if errors.As(out.Err, &pe) && pe.Kind == NetworkFault {
		s.observer.OnError(pe)
	}

	s.observer.OnResult(req, items)
	fut.complete(items, nil)

	if s.metrics != nil {
		s.metrics.RecordAnswer(req.Phase, len(items))
	}
	logger.Debug("Page answered",
		logger.Session(s.id),
		logger.RequestID(req.ID.String()),
		logger.Phase(req.Phase.String()),
		logger.Items(len(items)))
	return true
}

// reject answers a request with an empty page without touching state.
func (s *Session[T]) reject(req PageRequest, reason string) *Future[T] {
	if s.metrics != nil {
		s.metrics.RecordForwardRejected()
	}
	logger.Debug("Forward load rejected",
		logger.Session(s.id),
		logger.PageKey(req.Key.String()),
		"reason", reason)

	fut := newFuture[T](req)
	s.answerNow(fut)
	return fut
}

// answerNow gives fut an immediate empty answer on the caller's goroutine.
func (s *Session[T]) answerNow(fut *Future[T]) {
	if !fut.claim() {
		s.violation(fut.Request(), ErrAlreadyAnswered)
		return
	}
	s.observer.OnResult(fut.Request(), []T{})
	fut.complete(nil, nil)
}

// violation reports a protocol violation: a panic in strict mode, an error
// log otherwise.
func (s *Session[T]) violation(req PageRequest, err error) {
	pe := newPageError(ProtocolViolation, req, err)
	if s.config.Strict {
		panic(pe)
	}

	if s.metrics != nil {
		s.metrics.RecordProtocolViolation()
	}
	logger.Error("Pager protocol violation ignored",
		logger.Session(s.id),
		logger.RequestID(req.ID.String()),
		logger.Phase(req.Phase.String()),
		logger.ErrorKind(ProtocolViolation.String()),
		logger.Err(err))
}

func (s *Session[T]) pageSize(size int) int {
	if size <= 0 {
		return s.config.PageSize
	}
	return size
}
