package bridge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webbridge/internal/bridge/object"
	"github.com/GriffinCanCode/webbridge/internal/bridge/table"
	"github.com/GriffinCanCode/webbridge/internal/infrastructure/monitoring"
	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
	"github.com/GriffinCanCode/webbridge/internal/window"
)

// Bridge owns the object table, dispatcher, transport and emitter for one
// window
type Bridge struct {
	win        window.Window
	table      *table.Table
	dispatcher *Dispatcher
	transport  *Transport
	emitter    *Emitter

	logger  *zap.Logger
	metrics *monitoring.Metrics

	// serializes Expose so the init script always matches the table
	mu sync.Mutex
}

// Option configures a Bridge
type Option func(*Bridge)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(b *Bridge) {
		b.metrics = metrics
	}
}

// New binds the reserved channel on win and installs the page runtime as the
// init script
func New(win window.Window, opts ...Option) (*Bridge, error) {
	b := &Bridge{
		win:    win,
		table:  table.New(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.dispatcher = NewDispatcher(b.table, b.logger.Named("dispatch"), b.metrics)
	b.transport = NewTransport(win, b.dispatcher, b.logger.Named("transport"), b.metrics)
	b.emitter = NewEmitter(b.transport, b.logger.Named("emit"), b.metrics)

	if err := b.transport.Attach(); err != nil {
		return nil, err
	}
	b.transport.SetInitScript(InitScript(nil))

	return b, nil
}

// Expose makes obj reachable from the page as window[name]. The proxy is
// defined right away when a page is loaded and before every later load.
// Exposing another object under the same name replaces the old one.
func (b *Bridge) Expose(name string, obj object.Exposable) error {
	o := object.Resolve(obj)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.table.SetRoot(name, o); err != nil {
		return err
	}
	b.metrics.SetObjectsExposed(b.table.Len())

	if err := b.transport.Eval(GenerateScript(name, o)); err != nil {
		if bridgeerr.KindOf(err) != bridgeerr.KindTransportUnavailable {
			b.logger.Warn("Live injection failed",
				zap.String("name", name),
				zap.Error(err))
		}
	}
	b.transport.SetInitScript(InitScript(b.table.Roots()))

	b.logger.Info("Object exposed",
		zap.String("name", name),
		zap.String("object_id", o.ID().String()),
		zap.Int("properties", len(o.Properties())),
		zap.Int("functions", len(o.Functions())),
		zap.Int("children", len(o.Children())))
	return nil
}

// Emit delivers data to page listeners of eventType. It may be called from
// any goroutine.
func (b *Bridge) Emit(eventType string, data any) error {
	return b.emitter.Emit(eventType, data)
}

// EmitPropertyUpdate pushes value as the new cached value of obj.property
func (b *Bridge) EmitPropertyUpdate(obj object.Exposable, property string, value any) error {
	return b.emitter.EmitPropertyUpdate(object.Resolve(obj), property, value)
}

// Changed pushes the current value of obj.property, read on the host side
func (b *Bridge) Changed(obj object.Exposable, property string) error {
	o := object.Resolve(obj)
	if o == nil {
		return bridgeerr.New(bridgeerr.KindObjectNotFound, "emit", property).WithDetail("nil object")
	}
	value, err := o.Peek(property)
	if err != nil {
		return err
	}
	return b.emitter.EmitPropertyUpdate(o, property, value)
}

// Handle dispatches one raw request as if it came through the binding
func (b *Bridge) Handle(ctx context.Context, raw string) (string, error) {
	b.transport.mu.Lock()
	defer b.transport.mu.Unlock()
	return b.dispatcher.Handle(ctx, raw)
}

// InitScript returns the script injected before each page load
func (b *Bridge) InitScript() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return InitScript(b.table.Roots())
}

// Table returns the object table
func (b *Bridge) Table() *table.Table {
	return b.table
}

// Close cancels the context of in-flight calls
func (b *Bridge) Close() {
	b.transport.Close()
}
