// Package codec is the JSON codec for everything that crosses the bridge.
//
// It wraps sonic's standard-compatible configuration so map keys are sorted
// and HTML characters escaped exactly as encoding/json would, which keeps the
// generated scripts and wire payloads deterministic.
package codec

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

// Null is the JSON encoding of nil.
var Null = json.RawMessage("null")

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalString encodes v as a JSON string.
func MarshalString(v any) (string, error) {
	return api.MarshalToString(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// UnmarshalString decodes s into v.
func UnmarshalString(s string, v any) error {
	return api.UnmarshalFromString(s, v)
}

// Quote returns s as a JSON string literal, which is also a valid
// JavaScript string literal.
func Quote(s string) string {
	out, err := api.MarshalToString(s)
	if err != nil {
		// strings always encode; keep a safe literal regardless
		return `""`
	}
	return out
}
