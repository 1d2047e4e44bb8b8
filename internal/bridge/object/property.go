package object

import (
	"encoding/json"
	"reflect"

	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
)

// Property describes one exposed property
type Property struct {
	name     string
	typ      reflect.Type
	readable bool
	writable bool

	get func() any
	set func(raw json.RawMessage) error
}

// Name returns the name exposed to the page
func (p *Property) Name() string { return p.name }

// Type returns the declared Go type
func (p *Property) Type() reflect.Type { return p.typ }

// Readable reports whether the page may GET the property
func (p *Property) Readable() bool { return p.readable }

// Writable reports whether the page may SET the property
func (p *Property) Writable() bool { return p.writable }

// PropertyOption adjusts a property's permissions
type PropertyOption func(p *Property)

// ReadOnly disallows SET from the page
func ReadOnly() PropertyOption {
	return func(p *Property) { p.writable = false }
}

// WriteOnly disallows GET from the page
func WriteOnly() PropertyOption {
	return func(p *Property) { p.readable = false }
}

// Value exposes the variable ptr points to as a read/write property
func Value[T any](name string, ptr *T, opts ...PropertyOption) Member {
	return memberFunc(func(o *Object) error {
		if ptr == nil {
			return bridgeerr.New(bridgeerr.KindRegistration, "declare", name).WithDetail("nil storage pointer")
		}
		p := &Property{
			name:     name,
			typ:      typeOf[T](),
			readable: true,
			writable: true,
			get:      func() any { return *ptr },
			set: func(raw json.RawMessage) error {
				v, err := coerce[T](name, raw)
				if err != nil {
					return err
				}
				*ptr = v
				return nil
			},
		}
		return o.addProperty(p, opts)
	})
}

// Accessor exposes a computed property. A nil get or set disallows that
// direction.
func Accessor[T any](name string, get func() T, set func(T) error, opts ...PropertyOption) Member {
	return memberFunc(func(o *Object) error {
		p := &Property{
			name:     name,
			typ:      typeOf[T](),
			readable: get != nil,
			writable: set != nil,
		}
		if get != nil {
			p.get = func() any { return get() }
		}
		if set != nil {
			p.set = func(raw json.RawMessage) error {
				v, err := coerce[T](name, raw)
				if err != nil {
					return err
				}
				if err := set(v); err != nil {
					return bridgeerr.New(bridgeerr.KindBadValue, "SET", name).WithCause(err)
				}
				return nil
			}
		}
		return o.addProperty(p, opts)
	})
}

func (o *Object) addProperty(p *Property, opts []PropertyOption) error {
	if err := o.claim(p.name, "property"); err != nil {
		return err
	}
	for _, opt := range opts {
		opt(p)
	}
	// options may only narrow what the accessors allow
	p.readable = p.readable && p.get != nil
	p.writable = p.writable && p.set != nil

	o.properties[p.name] = p
	o.propertyOrder = append(o.propertyOrder, p.name)
	return nil
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func coerce[T any](name string, raw json.RawMessage) (T, error) {
	var zero T
	v, err := coerceTo(raw, typeOf[T]())
	if err != nil {
		return zero, bridgeerr.New(bridgeerr.KindBadValue, "SET", name).WithCause(err)
	}
	if !v.IsValid() {
		return zero, nil
	}
	return v.Interface().(T), nil
}
