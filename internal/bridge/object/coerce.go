package object

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/GriffinCanCode/webbridge/internal/shared/codec"
)

// coercion converts a JSON value into a settable value of typ
type coercion func(raw []byte, typ reflect.Type) (reflect.Value, error)

// coercions is keyed by the declared kind. Kinds without an entry are
// decoded by the JSON codec directly.
var coercions = map[reflect.Kind]coercion{
	reflect.Int:     coerceInt,
	reflect.Int8:    coerceInt,
	reflect.Int16:   coerceInt,
	reflect.Int32:   coerceInt,
	reflect.Int64:   coerceInt,
	reflect.Uint:    coerceUint,
	reflect.Uint8:   coerceUint,
	reflect.Uint16:  coerceUint,
	reflect.Uint32:  coerceUint,
	reflect.Uint64:  coerceUint,
	reflect.Float32: coerceFloat,
	reflect.Float64: coerceFloat,
	reflect.Bool:    coerceBool,
	reflect.String:  coerceString,
}

// coerceTo converts raw into a value of typ. JSON null yields an invalid
// Value, meaning "use the zero value".
func coerceTo(raw json.RawMessage, typ reflect.Type) (reflect.Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, codec.Null) {
		return reflect.Value{}, nil
	}

	if rule, ok := coercions[typ.Kind()]; ok {
		return rule(trimmed, typ)
	}

	ptr := reflect.New(typ)
	if err := codec.Unmarshal(trimmed, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot decode %s into %s: %w", trimmed, typ, err)
	}
	return ptr.Elem(), nil
}

// scalarText returns the text of a JSON scalar and whether it was a string
func scalarText(raw []byte) (string, bool, error) {
	switch raw[0] {
	case '"':
		var s string
		if err := codec.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	case '{', '[':
		return "", false, fmt.Errorf("expected a scalar, got %s", raw)
	default:
		return string(raw), false, nil
	}
}

func coerceInt(raw []byte, typ reflect.Type) (reflect.Value, error) {
	text, _, err := scalarText(raw)
	if err != nil {
		return reflect.Value{}, err
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return reflect.Value{}, fmt.Errorf("%q is not an integer", text)
		}
		n = int64(f)
	}

	v := reflect.New(typ).Elem()
	if v.OverflowInt(n) {
		return reflect.Value{}, fmt.Errorf("%d overflows %s", n, typ)
	}
	v.SetInt(n)
	return v, nil
}

func coerceUint(raw []byte, typ reflect.Type) (reflect.Value, error) {
	text, _, err := scalarText(raw)
	if err != nil {
		return reflect.Value{}, err
	}

	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return reflect.Value{}, fmt.Errorf("%q is not an unsigned integer", text)
		}
		n = uint64(f)
	}

	v := reflect.New(typ).Elem()
	if v.OverflowUint(n) {
		return reflect.Value{}, fmt.Errorf("%d overflows %s", n, typ)
	}
	v.SetUint(n)
	return v, nil
}

func coerceFloat(raw []byte, typ reflect.Type) (reflect.Value, error) {
	text, _, err := scalarText(raw)
	if err != nil {
		return reflect.Value{}, err
	}

	f, err := strconv.ParseFloat(text, typ.Bits())
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return reflect.Value{}, fmt.Errorf("%q is not a finite number", text)
	}

	v := reflect.New(typ).Elem()
	v.SetFloat(f)
	return v, nil
}

func coerceBool(raw []byte, typ reflect.Type) (reflect.Value, error) {
	text, _, err := scalarText(raw)
	if err != nil {
		return reflect.Value{}, err
	}

	var b bool
	switch text {
	case "true", "1":
		b = true
	case "false", "0":
	default:
		return reflect.Value{}, fmt.Errorf("%q is not a boolean", text)
	}

	v := reflect.New(typ).Elem()
	v.SetBool(b)
	return v, nil
}

// coerceString keeps strings as they are and stores any other JSON value
// as its text
func coerceString(raw []byte, typ reflect.Type) (reflect.Value, error) {
	v := reflect.New(typ).Elem()
	if raw[0] == '"' {
		var s string
		if err := codec.Unmarshal(raw, &s); err != nil {
			return reflect.Value{}, err
		}
		v.SetString(s)
		return v, nil
	}
	v.SetString(string(raw))
	return v, nil
}
