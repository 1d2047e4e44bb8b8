package headless

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
)

// newDocument builds a small document API over the parsed page. It covers
// what bridge pages typically touch: lookups, text, attributes, values,
// click handlers given as onclick attributes, and the title.
func (p *page) newDocument() *goja.Object {
	vm := p.vm
	document := vm.NewObject()

	document.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		return p.element(p.doc.Find("#" + call.Argument(0).String()).First())
	})
	document.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		return p.element(p.find(call.Argument(0).String()).First())
	})
	document.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		var out []any
		p.find(call.Argument(0).String()).Each(func(_ int, s *goquery.Selection) {
			out = append(out, p.element(s))
		})
		return vm.ToValue(vm.NewArray(out...))
	})

	p.accessor(document, "title",
		func() goja.Value {
			return vm.ToValue(p.w.Title())
		},
		func(v goja.Value) {
			p.w.SetTitle(v.String())
		})

	if body := p.doc.Find("body").First(); body.Length() > 0 {
		document.Set("body", p.element(body))
	}

	return document
}

// find runs a CSS selector, treating an invalid selector as no match
func (p *page) find(selector string) (sel *goquery.Selection) {
	defer func() {
		if recover() != nil {
			sel = p.doc.Find("__no_such_element__")
		}
	}()
	return p.doc.Find(selector)
}

// element wraps a single selection, or returns null for an empty one
func (p *page) element(s *goquery.Selection) goja.Value {
	if s.Length() == 0 {
		return goja.Null()
	}
	vm := p.vm
	el := vm.NewObject()

	el.Set("tagName", goquery.NodeName(s))
	el.Set("id", s.AttrOr("id", ""))

	text := func() goja.Value { return vm.ToValue(s.Text()) }
	setText := func(v goja.Value) { s.SetText(v.String()) }
	p.accessor(el, "textContent", text, setText)
	p.accessor(el, "innerText", text, setText)
	p.accessor(el, "innerHTML",
		func() goja.Value {
			html, _ := s.Html()
			return vm.ToValue(html)
		},
		func(v goja.Value) { s.SetHtml(v.String()) })
	p.accessor(el, "value",
		func() goja.Value { return vm.ToValue(s.AttrOr("value", "")) },
		func(v goja.Value) { s.SetAttr("value", v.String()) })
	p.accessor(el, "className",
		func() goja.Value { return vm.ToValue(s.AttrOr("class", "")) },
		func(v goja.Value) { s.SetAttr("class", v.String()) })

	el.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if v, ok := s.Attr(call.Argument(0).String()); ok {
			return vm.ToValue(v)
		}
		return goja.Null()
	})
	el.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		s.SetAttr(call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	el.Set("removeAttribute", func(call goja.FunctionCall) goja.Value {
		s.RemoveAttr(call.Argument(0).String())
		return goja.Undefined()
	})
	el.Set("click", func(call goja.FunctionCall) goja.Value {
		if handler, ok := s.Attr("onclick"); ok && handler != "" {
			_, _ = p.run("onclick", handler)
		}
		return goja.Undefined()
	})

	return el
}

func (p *page) accessor(obj *goja.Object, name string, get func() goja.Value, set func(goja.Value)) {
	getter := p.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() })
	setter := p.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		set(call.Argument(0))
		return goja.Undefined()
	})
	_ = obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
}

// html renders the current document
func (p *page) html() string {
	out, err := goquery.OuterHtml(p.doc.Selection)
	if err != nil {
		return ""
	}
	return out
}
