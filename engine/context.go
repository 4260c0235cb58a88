package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/dispatcher"
	"github.com/xraph/usecase/ext"
	mw "github.com/xraph/usecase/middleware"
	"github.com/xraph/usecase/observability"
	"github.com/xraph/usecase/payload"
	"github.com/xraph/usecase/stream"
)

const instrumentationName = "github.com/xraph/usecase"

// Store is the state container attached to the root dispatcher.
// store.Store and store.Group implement it.
type Store interface {
	Attach(d *dispatcher.Dispatcher) (detach func())
	Snapshot() any
}

// Context runs use cases and owns the release registry. Every payload a
// run produces is delegated to one root dispatcher.
// It is safe for concurrent use.
type Context struct {
	root       *dispatcher.Dispatcher
	store      Store
	detach     func()
	extensions *ext.Registry
	broker     *stream.Broker
	chain      mw.Middleware
	limits     *mw.Limits
	config     usecase.Config
	logger     *slog.Logger

	mws            []mw.Middleware
	pendingExts    []ext.Extension
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	mu       sync.Mutex
	live     map[string]*token
	released atomic.Bool
}

// New creates a Context. Without options it uses slog.Default, the
// default configuration and a fresh root dispatcher.
func New(opts ...Option) (*Context, error) {
	c := &Context{
		config: usecase.DefaultConfig(),
		logger: slog.Default(),
		live:   make(map[string]*token),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.root == nil {
		c.root = dispatcher.New(dispatcher.WithLogger(c.logger))
	}
	c.extensions = ext.NewRegistry(c.logger)

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if c.meterProvider != nil {
		obsExt = observability.NewMetricsExtensionWithMeter(c.meterProvider.Meter(instrumentationName + "/observability"))
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	c.extensions.Register(obsExt)

	c.broker = stream.NewBroker(c.logger,
		stream.WithBufferSize(c.config.StreamBufferSize),
		stream.WithDefaultCredits(c.config.StreamCredits),
	)
	c.extensions.Register(c.broker)

	for _, e := range c.pendingExts {
		c.extensions.Register(e)
	}
	c.pendingExts = nil

	c.limits = mw.NewLimits(c.config.Limits...)
	c.chain = mw.Chain(c.middleware()...)

	if c.store != nil {
		c.detach = c.store.Attach(c.root)
	}
	return c, nil
}

// middleware builds the default stack:
// recover → tracing → metrics → logging → timeout → rate limit → admission,
// followed by user middleware. Admission is kept when the defaults are
// disabled.
func (c *Context) middleware() []mw.Middleware {
	if c.config.DisableDefaultMiddleware {
		return append([]mw.Middleware{mw.Admission(c.limits)}, c.mws...)
	}

	var tracingMw mw.Middleware
	if c.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(c.tracerProvider.Tracer(instrumentationName))
	} else {
		tracingMw = mw.Tracing()
	}

	var metricsMw mw.Middleware
	if c.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(c.meterProvider.Meter(instrumentationName))
	} else {
		metricsMw = mw.Metrics()
	}

	all := []mw.Middleware{
		mw.Recover(c.logger),
		tracingMw,
		metricsMw,
		mw.Logging(c.logger),
		mw.Timeout(c.logger, c.config.ExecuteTimeout),
	}
	if c.config.RateLimit > 0 {
		all = append(all, mw.RateLimit(c.config.RateLimit, c.config.RateBurst))
	}
	all = append(all, mw.Admission(c.limits))
	return append(all, c.mws...)
}

// UseCase returns an Executor for u. When Execute is later called with a
// context.Context that carries a UseCaseContext of this engine, the new
// run is nested under that run.
func (c *Context) UseCase(u usecase.UseCase) *Executor {
	return &Executor{engine: c, unit: u}
}

// OnWillExecuteEachUseCase subscribes h to every WillExecute payload that
// reaches the root dispatcher.
func (c *Context) OnWillExecuteEachUseCase(h dispatcher.Handler) (unsubscribe func()) {
	return c.root.Subscribe(payload.TypeWillExecute, h)
}

// OnDidExecuteEachUseCase subscribes h to every DidExecute payload that
// reaches the root dispatcher.
func (c *Context) OnDidExecuteEachUseCase(h dispatcher.Handler) (unsubscribe func()) {
	return c.root.Subscribe(payload.TypeDidExecute, h)
}

// OnCompleteEachUseCase subscribes h to every Completed payload that
// reaches the root dispatcher.
func (c *Context) OnCompleteEachUseCase(h dispatcher.Handler) (unsubscribe func()) {
	return c.root.Subscribe(payload.TypeCompleted, h)
}

// OnErrorDispatch subscribes h to every Failed payload that reaches the
// root dispatcher, whether emitted by the engine or by ThrowError.
func (c *Context) OnErrorDispatch(h dispatcher.Handler) (unsubscribe func()) {
	return c.root.Subscribe(payload.TypeFailed, h)
}

// OnDispatch subscribes h to every payload that reaches the root
// dispatcher.
func (c *Context) OnDispatch(h dispatcher.Handler) (unsubscribe func()) {
	return c.root.OnDispatch(h)
}

// State returns the attached store's snapshot, or nil without a store.
func (c *Context) State() any {
	if c.store == nil {
		return nil
	}
	return c.store.Snapshot()
}

// Live returns snapshots of the runs that are not yet released, oldest
// first.
func (c *Context) Live() []usecase.Run {
	c.mu.Lock()
	tokens := make([]*token, 0, len(c.live))
	for _, t := range c.live {
		tokens = append(tokens, t)
	}
	c.mu.Unlock()

	runs := make([]usecase.Run, 0, len(tokens))
	for _, t := range tokens {
		runs = append(runs, t.snapshot())
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
	return runs
}

// Dispatcher returns the root dispatcher.
func (c *Context) Dispatcher() *dispatcher.Dispatcher { return c.root }

// Extensions returns the extension registry.
func (c *Context) Extensions() *ext.Registry { return c.extensions }

// Broker returns the stream broker fed by every run.
func (c *Context) Broker() *stream.Broker { return c.broker }

// Limits returns the per-use-case admission limits. Limits.Set adjusts
// them at run time.
func (c *Context) Limits() *mw.Limits { return c.limits }

// Config returns the active configuration.
func (c *Context) Config() usecase.Config { return c.config }

// Logger returns the engine logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Release shuts the context down: the store is detached, Shutdown hooks
// run, and later Execute calls fail with usecase.ErrContextReleased.
// Runs that are still live finish normally. Calling Release twice returns
// usecase.ErrContextReleased.
func (c *Context) Release(ctx context.Context) error {
	if !c.released.CompareAndSwap(false, true) {
		return fmt.Errorf("engine: release: %w", usecase.ErrContextReleased)
	}
	if c.detach != nil {
		c.detach()
	}
	c.extensions.EmitShutdown(ctx)
	c.logger.Debug("execution context released",
		slog.Int("live_runs", len(c.Live())),
	)
	return nil
}

func (c *Context) register(t *token) {
	c.mu.Lock()
	c.live[t.runID.String()] = t
	c.mu.Unlock()
}

func (c *Context) unregister(t *token) {
	c.mu.Lock()
	delete(c.live, t.runID.String())
	c.mu.Unlock()
}

// forward delivers a delegated payload to the root dispatcher.
func (c *Context) forward(ctx context.Context, p payload.Payload, meta payload.Meta) {
	c.root.Dispatch(p, meta)
	c.extensions.EmitPayloadDispatched(ctx, p, meta)
}
