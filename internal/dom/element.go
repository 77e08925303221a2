package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is an element node of a Document.
type Element struct {
	doc  *Document
	node *html.Node
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

func (e *Element) ID() string {
	v, _ := attr(e.node, "id")
	return v
}

// Attr returns the value of an attribute and whether it is set.
func (e *Element) Attr(key string) (string, bool) {
	return attr(e.node, key)
}

func (e *Element) SetAttr(key, val string) {
	setAttr(e.node, key, val)
}

// Text returns the concatenated text content of the element.
func (e *Element) Text() string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(e.node)
	return b.String()
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	v, _ := attr(e.node, "class")
	return strings.Fields(v)
}

func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends class to the class list unless already present.
func (e *Element) AddClass(class string) {
	if class == "" || e.HasClass(class) {
		return
	}
	setAttr(e.node, "class", strings.Join(append(e.Classes(), class), " "))
}

func (e *Element) RemoveClass(class string) {
	var kept []string
	for _, c := range e.Classes() {
		if c != class {
			kept = append(kept, c)
		}
	}
	setAttr(e.node, "class", strings.Join(kept, " "))
}

// Style returns one property of the inline style attribute.
func (e *Element) Style(prop string) string {
	for _, d := range parseStyle(e.node) {
		if d.prop == prop {
			return d.val
		}
	}
	return ""
}

// SetStyle sets one property of the inline style attribute, keeping the others.
func (e *Element) SetStyle(prop, val string) {
	decls := parseStyle(e.node)
	replaced := false
	for i := range decls {
		if decls[i].prop == prop {
			decls[i].val = val
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, declaration{prop: prop, val: val})
	}
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.val)
	}
	setAttr(e.node, "style", strings.Join(parts, "; "))
}

// Value returns the current value of a form control.
func (e *Element) Value() string {
	v, _ := attr(e.node, "value")
	return v
}

func (e *Element) SetValue(v string) {
	setAttr(e.node, "value", v)
}

// Focus moves the document focus to the element.
func (e *Element) Focus() {
	walk(e.doc.root, func(n *html.Node) bool {
		removeAttr(n, "autofocus")
		return true
	})
	setAttr(e.node, "autofocus", "")
}

func (e *Element) IsFocused() bool {
	_, ok := attr(e.node, "autofocus")
	return ok
}

// Find returns the descendants matching tag and class, in document order.
// An empty tag or class matches anything.
func (e *Element) Find(tag, class string) []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(n *html.Node) bool {
			if tag != "" && n.Data != tag {
				return true
			}
			el := e.doc.wrap(n)
			if class != "" && !el.HasClass(class) {
				return true
			}
			out = append(out, el)
			return true
		})
	}
	return out
}

// On registers fn for event on the element.
func (e *Element) On(event string, fn Listener) Disposer {
	return e.doc.on(e.node, event, fn)
}

// Click dispatches a click event and returns the number of listeners run.
func (e *Element) Click() int {
	return e.doc.dispatch(e.node, "click")
}

type declaration struct {
	prop, val string
}

func parseStyle(n *html.Node) []declaration {
	raw, _ := attr(n, "style")
	var decls []declaration
	for _, part := range strings.Split(raw, ";") {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		decls = append(decls, declaration{prop: prop, val: strings.TrimSpace(val)})
	}
	return decls
}
