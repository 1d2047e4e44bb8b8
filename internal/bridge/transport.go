package bridge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webbridge/internal/window"
)

// Handler answers one raw page request
type Handler interface {
	Handle(ctx context.Context, raw string) (string, error)
}

// Transport is the single channel between the bridge and the page. Page
// calls arrive through the reserved binding and are handled one at a time;
// host pushes go through script evaluation.
type Transport struct {
	win     window.Window
	handler Handler
	logger  *zap.Logger
	metrics *monitoring.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	// serializes dispatch
	mu sync.Mutex
}

// NewTransport creates a transport over win. Attach must be called before
// the page can reach the handler.
func NewTransport(win window.Window, handler Handler, logger *zap.Logger, metrics *monitoring.Metrics) *Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		win:     win,
		handler: handler,
		logger:  logger,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Attach binds the reserved name on the window
func (t *Transport) Attach() error {
	return t.win.Bind(BindingName, t.receive)
}

func (t *Transport) receive(seq string, req string) {
	t.mu.Lock()
	reply, err := t.handler.Handle(t.ctx, req)
	t.mu.Unlock()

	status := window.StatusOK
	if err != nil {
		status = window.StatusError
		reply = errorReply(err)
	}

	if rerr := t.win.Return(seq, status, reply); rerr != nil {
		t.logger.Warn("Failed to return bridge reply",
			zap.String("seq", seq),
			zap.Error(rerr))
	}
}

// Eval runs js in the current page
func (t *Transport) Eval(js string) error {
	err := t.win.Eval(js)
	t.metrics.RecordScriptEval(monitoring.Outcome(err))
	return err
}

// SetInitScript replaces the script the window injects before each load
func (t *Transport) SetInitScript(js string) {
	t.win.Init(js)
}

// Close cancels the context handed to in-flight and future calls
func (t *Transport) Close() {
	t.cancel()
}
