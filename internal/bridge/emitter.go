package bridge

import (
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webbridge/internal/bridge/object"
	"github.com/GriffinCanCode/webbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webbridge/internal/shared/codec"
	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
)

// Emitter pushes events to page listeners. It is safe for concurrent use;
// events emitted while no page is loaded are lost.
type Emitter struct {
	transport *Transport
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// NewEmitter creates an emitter that evaluates through transport
func NewEmitter(transport *Transport, logger *zap.Logger, metrics *monitoring.Metrics) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{transport: transport, logger: logger, metrics: metrics}
}

// Emit delivers data to the page listeners registered for eventType
func (e *Emitter) Emit(eventType string, data any) error {
	payload, err := codec.Marshal(data)
	if err != nil {
		err = bridgeerr.Encoding("emit", err)
		e.metrics.RecordEvent(eventType, monitoring.Outcome(err))
		e.logger.Warn("Event payload not encodable",
			zap.String("event", eventType),
			zap.Error(err))
		return err
	}

	err = e.transport.Eval(EventScript(eventType, payload))
	e.metrics.RecordEvent(eventType, monitoring.Outcome(err))
	if err != nil {
		e.logger.Debug("Event not delivered",
			zap.String("event", eventType),
			zap.Error(err))
		return err
	}
	return nil
}

// EmitPropertyUpdate pushes a new property value so page proxies refresh
// their cache
func (e *Emitter) EmitPropertyUpdate(obj *object.Object, property string, value any) error {
	if obj == nil {
		return bridgeerr.New(bridgeerr.KindObjectNotFound, "emit", property).WithDetail("nil object")
	}
	return e.Emit(PropertyUpdated, PropertyUpdate{
		ObjectID: obj.ID(),
		Property: property,
		Value:    value,
	})
}

// EventScript returns the script that dispatches payload to the page. It is
// a no-op on pages without the bridge runtime.
func EventScript(eventType string, payload []byte) string {
	var b strings.Builder
	b.WriteString("if (window.Bridge && window.Bridge.__internal && window.Bridge.__internal.dispatch) {\n")
	b.WriteString("  window.Bridge.__internal.dispatch(")
	b.WriteString(codec.Quote(eventType))
	b.WriteString(", ")
	b.Write(payload)
	b.WriteString(");\n}")
	return b.String()
}
