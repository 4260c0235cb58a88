package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/dispatcher"
	"github.com/xraph/usecase/ext"
	mw "github.com/xraph/usecase/middleware"
)

// Option configures a Context.
type Option func(*Context) error

// WithLogger sets the logger used by the engine, its dispatcher and the
// default middleware.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) error {
		if l == nil {
			return errors.New("engine: nil logger")
		}
		c.logger = l
		return nil
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg usecase.Config) Option {
	return func(c *Context) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("engine: invalid config: %w", err)
		}
		c.config = cfg
		return nil
	}
}

// WithDispatcher sets the root dispatcher. By default the engine creates
// its own.
func WithDispatcher(d *dispatcher.Dispatcher) Option {
	return func(c *Context) error {
		if d == nil {
			return errors.New("engine: nil dispatcher")
		}
		c.root = d
		return nil
	}
}

// WithStore attaches s to the root dispatcher. Context.State reads its
// snapshot.
func WithStore(s Store) Option {
	return func(c *Context) error {
		c.store = s
		return nil
	}
}

// WithExtension registers a lifecycle extension.
func WithExtension(e ext.Extension) Option {
	return func(c *Context) error {
		c.pendingExts = append(c.pendingExts, e)
		return nil
	}
}

// WithMiddleware appends middleware to the Execute chain. It runs inside
// the default middleware.
func WithMiddleware(m ...mw.Middleware) Option {
	return func(c *Context) error {
		c.mws = append(c.mws, m...)
		return nil
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the tracing
// middleware. If not set, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Context) error {
		c.tracerProvider = tp
		return nil
	}
}

// WithMeterProvider sets a custom OTel MeterProvider. Both the metrics
// middleware and the observability extension use it.
// If not set, the global provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Context) error {
		c.meterProvider = mp
		return nil
	}
}
