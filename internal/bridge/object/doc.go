/*
Package object declares which parts of a Go value are reachable from the page.

An exposed object is built once from a declarative member list. The member
list is the capability registry for that object: it fixes the property,
function and sub-object names for the object's whole lifetime and assigns
the object a unique identifier. Values behind the capabilities may change
freely afterwards.

# Declaring an object

Embed *Object in a struct to make it exposable, then build the member list in
the constructor:

	type App struct {
		*object.Object

		Count    int
		Settings *Settings
	}

	func NewApp(settings *Settings) (*App, error) {
		a := &App{Settings: settings}
		obj, err := object.New(
			object.Value("count", &a.Count),
			object.Func("increment", a.Increment),
			object.Child("settings", settings),
		)
		if err != nil {
			return nil, err
		}
		a.Object = obj
		return a, nil
	}

# Properties

Value binds a field pointer and Accessor binds a getter/setter pair. Both are
readable and writable unless ReadOnly or WriteOnly is given (or, for Accessor,
the getter or setter is nil). Values written from the page are coerced to the
declared Go type through a fixed table: numeric strings become numbers,
"true"/"false" become booleans, scalars become strings, and anything else is
decoded as JSON. A value that cannot be coerced fails with KindBadValue and
leaves the property untouched.

# Functions

Func accepts any non-variadic Go function. The page must pass exactly as many
arguments as the function declares, in order. A leading context.Context
parameter is supplied by the caller and is not counted. Supported result
shapes are (), (T), (error) and (T, error); a non-nil error, a panic, or a bad
argument all surface as KindInvocationFailure.

# Sub-objects

Child binds another exposed object under a field name. The page sees it at
parent.field, while requests for it are routed by its own identifier.
*/
package object
