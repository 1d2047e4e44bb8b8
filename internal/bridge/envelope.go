package bridge

import (
	"encoding/json"

	"github.com/GriffinCanCode/webbridge/internal/shared/codec"
	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
	"github.com/GriffinCanCode/webbridge/internal/shared/id"
)

// Request types
const (
	TypeGet    = "GET"
	TypeSet    = "SET"
	TypeInvoke = "INVOKE"
)

// Request is a decoded page request. The wire form is [type, data].
type Request struct {
	Type string
	Data RequestData
}

// RequestData carries the per-type request fields
type RequestData struct {
	ID        id.ObjectID       `json:"id"`
	Property  string            `json:"property,omitempty"`
	NewValue  json.RawMessage   `json:"newValue,omitempty"`
	Function  string            `json:"function,omitempty"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
}

// ParseRequest decodes the JSON argument array passed to the binding
func ParseRequest(raw string) (*Request, error) {
	var parts []json.RawMessage
	if err := codec.UnmarshalString(raw, &parts); err != nil {
		return nil, bridgeerr.New(bridgeerr.KindMalformed, "parse", "").WithCause(err)
	}
	if len(parts) < 2 {
		return nil, bridgeerr.New(bridgeerr.KindMalformed, "parse", "").
			WithDetail("expected [type, data], got %d elements", len(parts))
	}

	req := &Request{}
	if err := codec.Unmarshal(parts[0], &req.Type); err != nil {
		return nil, bridgeerr.New(bridgeerr.KindMalformed, "parse", "type").WithCause(err)
	}
	if err := codec.Unmarshal(parts[1], &req.Data); err != nil {
		return nil, bridgeerr.New(bridgeerr.KindMalformed, "parse", req.Type).WithCause(err)
	}
	return req, nil
}

// Encode returns the wire form of the request
func (r *Request) Encode() (string, error) {
	out, err := codec.MarshalString([]any{r.Type, r.Data})
	if err != nil {
		return "", bridgeerr.Encoding("encode", err)
	}
	return out, nil
}

// Reply bodies for the success status. A function or property with a value
// always answers {"value": ...}, so a null value stays distinct from "no
// result".
const voidReply = `{"void":true}`

func valueReply(value []byte) string {
	return `{"value":` + string(value) + `}`
}

// ErrorReply is the body sent with the error status
type ErrorReply struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorReply(err error) string {
	kind := bridgeerr.KindOf(err)
	if kind == "" {
		kind = bridgeerr.KindInvocationFailure
	}
	out, merr := codec.MarshalString(ErrorReply{Code: string(kind), Message: err.Error()})
	if merr != nil {
		return `{"code":"encoding_failure","message":"failed to encode error"}`
	}
	return out
}

// PropertyUpdate is the payload of the propertyUpdated event
type PropertyUpdate struct {
	ObjectID id.ObjectID `json:"objectId"`
	Property string      `json:"property"`
	Value    any         `json:"value"`
}
