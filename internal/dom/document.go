// Package dom provides a small document model over parsed HTML: element lookup
// by id and class, attribute, style, class-list and value access, focus, and
// click listeners that return disposers.
//
// It is the read/write surface the scraper and the page helpers work against,
// so they can run server side and be tested without a browser.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Disposer removes whatever a registration call attached.
type Disposer func()

// Listener handles an event dispatched on an element.
type Listener func(e *Element)

type listener struct {
	fn Listener
}

// Document is a parsed HTML tree plus the event listeners registered on it.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]*listener
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return NewDocument(root), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument wraps an already parsed tree.
func NewDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]*listener),
	}
}

// Root returns the document node.
func (d *Document) Root() *Element {
	return d.wrap(d.root)
}

// ElementByID returns the first element whose id attribute equals id, or nil.
func (d *Document) ElementByID(id string) *Element {
	if id == "" {
		return nil
	}
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if v, ok := attr(n, "id"); ok && v == id {
			found = n
			return false
		}
		return true
	})
	return d.wrap(found)
}

// ElementsByClass returns every element carrying class, in document order.
func (d *Document) ElementsByClass(class string) []*Element {
	return d.Root().Find("", class)
}

// Render writes the document back out as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Focused returns the element marked as focused, or nil.
func (d *Document) Focused() *Element {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if _, ok := attr(n, "autofocus"); ok {
			found = n
			return false
		}
		return true
	})
	return d.wrap(found)
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	return &Element{doc: d, node: n}
}

func (d *Document) on(n *html.Node, event string, fn Listener) Disposer {
	l := &listener{fn: fn}
	byEvent, ok := d.listeners[n]
	if !ok {
		byEvent = make(map[string][]*listener)
		d.listeners[n] = byEvent
	}
	byEvent[event] = append(byEvent[event], l)

	return func() {
		ls := d.listeners[n][event]
		for i, cur := range ls {
			if cur == l {
				d.listeners[n][event] = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
		if len(d.listeners[n][event]) == 0 {
			delete(d.listeners[n], event)
		}
		if len(d.listeners[n]) == 0 {
			delete(d.listeners, n)
		}
	}
}

func (d *Document) dispatch(n *html.Node, event string) int {
	ls := append([]*listener(nil), d.listeners[n][event]...)
	for _, l := range ls {
		l.fn(d.wrap(n))
	}
	return len(ls)
}

// ListenerCount returns how many listeners are currently registered.
func (d *Document) ListenerCount() int {
	total := 0
	for _, byEvent := range d.listeners {
		for _, ls := range byEvent {
			total += len(ls)
		}
	}
	return total
}

// walk visits n and its descendants depth first, in document order, until
// visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if n == nil {
		return true
	}
	if n.Type == html.ElementNode && !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}
