package bridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webbridge/internal/bridge/table"
	"github.com/GriffinCanCode/webbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webbridge/internal/shared/codec"
	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
)

// Dispatcher executes page requests against the object table. It is not
// reentrant; the transport serializes calls into it.
type Dispatcher struct {
	table   *table.Table
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewDispatcher creates a dispatcher over tbl
func NewDispatcher(tbl *table.Table, logger *zap.Logger, metrics *monitoring.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{table: tbl, logger: logger, metrics: metrics}
}

// Handle executes one raw request and returns the success reply body. Only
// INVOKE failures on a known object come back as an error; GET and SET
// failures, unknown objects and malformed envelopes are logged and answered
// with the void reply.
func (d *Dispatcher) Handle(ctx context.Context, raw string) (reply string, err error) {
	reqType := "unknown"
	timer := monitoring.NewTimer(d.metrics)
	var outcome error

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Bridge request panicked",
				zap.String("type", reqType),
				zap.Any("panic", r))
			outcome = bridgeerr.New(bridgeerr.KindInvocationFailure, reqType, "").
				WithCause(fmt.Errorf("panic: %v", r))
			if reqType == TypeInvoke {
				reply, err = "", outcome
			} else {
				reply, err = voidReply, nil
			}
		}
		timer.Stop(reqType, outcome)
	}()

	req, perr := ParseRequest(raw)
	if perr != nil {
		d.logger.Warn("Malformed bridge request", zap.Error(perr))
		outcome = perr
		return voidReply, nil
	}
	reqType = req.Type

	switch req.Type {
	case TypeGet:
		reply, outcome = d.get(req)
		return reply, nil
	case TypeSet:
		outcome = d.set(req)
		return voidReply, nil
	case TypeInvoke:
		reply, outcome = d.invoke(ctx, req)
		if outcome != nil && bridgeerr.KindOf(outcome) != bridgeerr.KindObjectNotFound {
			return "", outcome
		}
		return reply, nil
	default:
		d.logger.Warn("Unknown bridge request type", zap.String("type", req.Type))
		reqType = "unknown"
		outcome = bridgeerr.New(bridgeerr.KindMalformed, "dispatch", req.Type).WithDetail("unknown request type")
		return voidReply, nil
	}
}

func (d *Dispatcher) get(req *Request) (string, error) {
	obj, err := d.table.FindByID(req.Data.ID)
	if err != nil {
		d.logger.Warn("Object not found", zap.String("object_id", req.Data.ID.String()))
		return voidReply, err
	}

	value, err := obj.Get(req.Data.Property)
	if err != nil {
		d.logger.Debug("GET failed",
			zap.String("object_id", req.Data.ID.String()),
			zap.String("property", req.Data.Property),
			zap.Error(err))
		return voidReply, err
	}

	encoded, err := codec.Marshal(value)
	if err != nil {
		err = bridgeerr.Encoding(TypeGet, err)
		d.logger.Warn("GET value not encodable",
			zap.String("property", req.Data.Property),
			zap.Error(err))
		return voidReply, err
	}
	return valueReply(encoded), nil
}

// set never reports failure to the page. Callers that need confirmation rely
// on a propertyUpdated push.
func (d *Dispatcher) set(req *Request) error {
	obj, err := d.table.FindByID(req.Data.ID)
	if err != nil {
		d.logger.Warn("Object not found", zap.String("object_id", req.Data.ID.String()))
		return err
	}

	if err := obj.Set(req.Data.Property, req.Data.NewValue); err != nil {
		d.logger.Warn("SET failed",
			zap.String("object_id", req.Data.ID.String()),
			zap.String("property", req.Data.Property),
			zap.Error(err))
		return err
	}
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, req *Request) (string, error) {
	obj, err := d.table.FindByID(req.Data.ID)
	if err != nil {
		d.logger.Warn("Object not found", zap.String("object_id", req.Data.ID.String()))
		return voidReply, err
	}

	result, hasResult, err := obj.Invoke(ctx, req.Data.Function, req.Data.Arguments)
	if err != nil {
		d.logger.Warn("INVOKE failed",
			zap.String("object_id", req.Data.ID.String()),
			zap.String("function", req.Data.Function),
			zap.Error(err))
		return "", err
	}
	if !hasResult {
		return voidReply, nil
	}

	encoded, err := codec.Marshal(result)
	if err != nil {
		return "", bridgeerr.Encoding(TypeInvoke, err)
	}
	return valueReply(encoded), nil
}
