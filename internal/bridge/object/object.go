package object

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"

	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
	"github.com/GriffinCanCode/webbridge/internal/shared/id"
)

// Exposable is implemented by every value that can be handed to the bridge.
// Embedding *Object satisfies it.
type Exposable interface {
	Exposed() *Object
}

// Member is one entry of an object's declaration
type Member interface {
	apply(o *Object) error
}

type memberFunc func(o *Object) error

func (f memberFunc) apply(o *Object) error { return f(o) }

// Binding is a named sub-object
type Binding struct {
	Name   string
	Object *Object
}

// Object holds the identifier and capability tables of one exposed value
type Object struct {
	id id.ObjectID

	properties map[string]*Property
	functions  map[string]*Function
	children   map[string]*Object

	// declaration order, used for deterministic script generation
	propertyOrder []string
	functionOrder []string
	childOrder    []string
}

// New builds an object from its member declarations and assigns it a new
// identifier. Name collisions between any two members are an error.
func New(members ...Member) (*Object, error) {
	o := &Object{
		id:         id.NewObjectID(),
		properties: make(map[string]*Property),
		functions:  make(map[string]*Function),
		children:   make(map[string]*Object),
	}

	for _, m := range members {
		if m == nil {
			continue
		}
		if err := m.apply(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Exposed implements Exposable
func (o *Object) Exposed() *Object {
	return o
}

// ID returns the object's identifier
func (o *Object) ID() id.ObjectID {
	return o.id
}

// Properties returns property names in declaration order
func (o *Object) Properties() []string {
	return append([]string(nil), o.propertyOrder...)
}

// Functions returns function names in declaration order
func (o *Object) Functions() []string {
	return append([]string(nil), o.functionOrder...)
}

// Children returns sub-object bindings in declaration order
func (o *Object) Children() []Binding {
	out := make([]Binding, 0, len(o.childOrder))
	for _, name := range o.childOrder {
		out = append(out, Binding{Name: name, Object: o.children[name]})
	}
	return out
}

// Property looks up a property descriptor
func (o *Object) Property(name string) (*Property, bool) {
	p, ok := o.properties[name]
	return p, ok
}

// Function looks up a function descriptor
func (o *Object) Function(name string) (*Function, bool) {
	f, ok := o.functions[name]
	return f, ok
}

// Get reads a property, honouring its read permission
func (o *Object) Get(name string) (any, error) {
	p, ok := o.properties[name]
	if !ok {
		return nil, bridgeerr.NotFound("GET", name)
	}
	if !p.readable {
		return nil, bridgeerr.Denied("GET", name)
	}
	return p.get(), nil
}

// Peek reads a property regardless of its read permission. It is meant for
// host-side change notification, never for page requests.
func (o *Object) Peek(name string) (any, error) {
	p, ok := o.properties[name]
	if !ok {
		return nil, bridgeerr.NotFound("GET", name)
	}
	if p.get == nil {
		return nil, bridgeerr.Denied("GET", name).WithDetail("property has no getter")
	}
	return p.get(), nil
}

// Set coerces raw to the property's type and stores it, honouring the write
// permission
func (o *Object) Set(name string, raw json.RawMessage) error {
	p, ok := o.properties[name]
	if !ok {
		return bridgeerr.NotFound("SET", name)
	}
	if !p.writable {
		return bridgeerr.Denied("SET", name)
	}
	if err := p.set(raw); err != nil {
		return err
	}
	return nil
}

// Invoke calls a function with page-supplied arguments. hasResult is false
// when the function declares no value result.
func (o *Object) Invoke(ctx context.Context, name string, args []json.RawMessage) (result any, hasResult bool, err error) {
	f, ok := o.functions[name]
	if !ok {
		return nil, false, bridgeerr.NotFound("INVOKE", name)
	}
	return f.Call(ctx, args)
}

// Walk visits o and every reachable sub-object once, parents first
func (o *Object) Walk(visit func(*Object)) {
	seen := make(map[id.ObjectID]bool)
	var walk func(*Object)
	walk = func(cur *Object) {
		if cur == nil || seen[cur.id] {
			return
		}
		seen[cur.id] = true
		visit(cur)
		for _, name := range cur.childOrder {
			walk(cur.children[name])
		}
	}
	walk(o)
}

// Child binds a sub-object under name. A nil child is recorded and skipped
// by script generation.
func Child(name string, child Exposable) Member {
	return memberFunc(func(o *Object) error {
		if err := o.claim(name, "child"); err != nil {
			return err
		}
		o.children[name] = Resolve(child)
		o.childOrder = append(o.childOrder, name)
		return nil
	})
}

// reservedName is the proxy property the page runtime keeps for itself
const reservedName = "__internal"

// claim reserves name for one member and rejects collisions
func (o *Object) claim(name, what string) error {
	if name == "" {
		return bridgeerr.New(bridgeerr.KindRegistration, "declare", name).WithDetail("%s name is empty", what)
	}
	if strings.Contains(name, ".") {
		return bridgeerr.New(bridgeerr.KindRegistration, "declare", name).WithDetail("%s name must not contain '.'", what)
	}
	if name == reservedName {
		return bridgeerr.New(bridgeerr.KindRegistration, "declare", name).WithDetail("%s name %s is reserved by the page runtime", what, reservedName)
	}
	_, isProp := o.properties[name]
	_, isFunc := o.functions[name]
	_, isChild := o.children[name]
	if isProp || isFunc || isChild {
		return bridgeerr.New(bridgeerr.KindRegistration, "declare", name).WithDetail("name already declared")
	}
	return nil
}

// Resolve returns the *Object behind e, or nil for nil interfaces and nil
// pointers
func Resolve(e Exposable) *Object {
	if e == nil {
		return nil
	}
	v := reflect.ValueOf(e)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return nil
	}
	return e.Exposed()
}
