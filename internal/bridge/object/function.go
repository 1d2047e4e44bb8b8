package object

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Function describes one exposed function
type Function struct {
	name string
	fn   reflect.Value

	withContext bool
	params      []reflect.Type
	hasValue    bool
	hasError    bool
}

// Name returns the name exposed to the page
func (f *Function) Name() string { return f.name }

// Arity returns the number of arguments the page must pass
func (f *Function) Arity() int { return len(f.params) }

// HasResult reports whether the function returns a value
func (f *Function) HasResult() bool { return f.hasValue }

// Func exposes fn under name. fn must be a non-variadic function returning
// (), (T), (error) or (T, error). A leading context.Context parameter
// receives the dispatch context.
func Func(name string, fn any) Member {
	return memberFunc(func(o *Object) error {
		f, err := newFunction(name, fn)
		if err != nil {
			return err
		}
		if err := o.claim(name, "function"); err != nil {
			return err
		}
		o.functions[name] = f
		o.functionOrder = append(o.functionOrder, name)
		return nil
	})
}

func newFunction(name string, fn any) (*Function, error) {
	invalid := func(format string, args ...any) error {
		return bridgeerr.New(bridgeerr.KindRegistration, "declare", name).WithDetail(format, args...)
	}

	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, invalid("expected a function, got %T", fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, invalid("variadic functions are not supported")
	}

	f := &Function{name: name, fn: v}

	for i := 0; i < t.NumIn(); i++ {
		in := t.In(i)
		if i == 0 && in == contextType {
			f.withContext = true
			continue
		}
		f.params = append(f.params, in)
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			f.hasError = true
		} else {
			f.hasValue = true
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, invalid("second result must be error, got %s", t.Out(1))
		}
		f.hasValue = true
		f.hasError = true
	default:
		return nil, invalid("too many results (%d)", t.NumOut())
	}

	return f, nil
}

// Call decodes args into the declared parameter types and invokes the
// function. Every failure, including a panic, is reported as
// KindInvocationFailure.
func (f *Function) Call(ctx context.Context, args []json.RawMessage) (result any, hasResult bool, err error) {
	if len(args) != len(f.params) {
		return nil, false, bridgeerr.New(bridgeerr.KindInvocationFailure, "INVOKE", f.name).
			WithDetail("expected %d arguments, got %d", len(f.params), len(args))
	}

	in := make([]reflect.Value, 0, len(f.params)+1)
	if f.withContext {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, typ := range f.params {
		v, cerr := coerceTo(args[i], typ)
		if cerr != nil {
			return nil, false, bridgeerr.New(bridgeerr.KindInvocationFailure, "INVOKE", f.name).
				WithDetail("argument %d", i).WithCause(cerr)
		}
		if !v.IsValid() {
			v = reflect.Zero(typ)
		}
		in = append(in, v)
	}

	defer func() {
		if r := recover(); r != nil {
			result, hasResult = nil, false
			err = bridgeerr.Invocation(f.name, fmt.Errorf("panic: %v", r))
		}
	}()

	out := f.fn.Call(in)

	if f.hasError {
		if e, _ := out[len(out)-1].Interface().(error); e != nil {
			return nil, false, bridgeerr.Invocation(f.name, e)
		}
	}
	if !f.hasValue {
		return nil, false, nil
	}
	return out[0].Interface(), true, nil
}
