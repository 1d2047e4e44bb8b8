package bridge

import (
	_ "embed"
	"strings"

	"github.com/GriffinCanCode/webbridge/internal/bridge/object"
	"github.com/GriffinCanCode/webbridge/internal/shared/codec"
)

// BindingName is the reserved page binding every bridge request goes through
const BindingName = "__bridgeInternal"

// PropertyUpdated is the reserved event type for property push updates
const PropertyUpdated = "propertyUpdated"

//go:embed assets/bridge.js
var runtimeScript string

// RuntimeScript returns the page runtime that defines window.Bridge
func RuntimeScript() string {
	return runtimeScript
}

// GenerateScript returns the script that defines the proxy for obj at the
// dotted path, followed by the proxies of its sub-objects. The output depends
// only on path and the object's declaration, so evaluating it live and
// injecting it before a reload define the same proxy.
func GenerateScript(path string, obj *object.Object) string {
	var b strings.Builder
	writeObject(&b, path, obj, make(map[*object.Object]bool))
	return b.String()
}

func writeObject(b *strings.Builder, path string, obj *object.Object, onPath map[*object.Object]bool) {
	if obj == nil || onPath[obj] {
		return
	}
	onPath[obj] = true
	defer delete(onPath, obj)

	b.WriteString("window.Bridge.__internal.defineObject(")
	b.WriteString(codec.Quote(path))
	b.WriteString(", ")
	b.WriteString(codec.Quote(obj.ID().String()))
	b.WriteString(");\n")

	ref := pathExpr(path)
	for _, name := range obj.Functions() {
		b.WriteString(ref)
		b.WriteString(".__internal.defineFunction(")
		b.WriteString(codec.Quote(name))
		b.WriteString(");\n")
	}
	for _, name := range obj.Properties() {
		b.WriteString(ref)
		b.WriteString(".__internal.defineProperty(")
		b.WriteString(codec.Quote(name))
		b.WriteString(");\n")
	}

	for _, child := range obj.Children() {
		writeObject(b, path+"."+child.Name, child.Object, onPath)
	}
}

// pathExpr turns a dotted path into a bracketed window expression, e.g.
// app.settings -> window["app"]["settings"]
func pathExpr(path string) string {
	var b strings.Builder
	b.WriteString("window")
	for _, part := range strings.Split(path, ".") {
		b.WriteByte('[')
		b.WriteString(codec.Quote(part))
		b.WriteByte(']')
	}
	return b.String()
}

// InitScript joins the page runtime with the scripts of every root binding
func InitScript(roots []object.Binding) string {
	parts := make([]string, 0, len(roots)+1)
	parts = append(parts, runtimeScript)
	for _, root := range roots {
		parts = append(parts, GenerateScript(root.Name, root.Object))
	}
	return strings.Join(parts, "\n\n")
}
