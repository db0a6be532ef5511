// Package dom models the slice of the host page the engine interacts with:
// an element tree with capture- and bubble-phase event dispatch. Hosts bind
// it to the real page; tests construct synthetic trees. Keeping the engine
// behind this seam is what makes the interception logic testable in-process.
package dom

import "strings"

// Element is a node in the host page tree.
type Element struct {
	Tag     string
	ID      string
	Classes []string
	Attrs   map[string]string

	parent   *Element
	children []*Element

	listeners map[string][]*listener
}

type listener struct {
	fn      func(*Event)
	capture bool
}

// NewElement creates a detached element.
func NewElement(tag string) *Element {
	return &Element{
		Tag:       tag,
		Attrs:     map[string]string{},
		listeners: map[string][]*listener{},
	}
}

// WithID sets the element's id and returns it for chained construction.
func (e *Element) WithID(id string) *Element {
	e.ID = id
	return e
}

// WithClasses appends class names and returns the element.
func (e *Element) WithClasses(classes ...string) *Element {
	e.Classes = append(e.Classes, classes...)
	return e
}

// WithAttr sets an attribute and returns the element.
func (e *Element) WithAttr(key, value string) *Element {
	e.Attrs[key] = value
	return e
}

// AppendChild attaches child under e.
func (e *Element) AppendChild(child *Element) *Element {
	child.parent = e
	e.children = append(e.children, child)
	return e
}

// Parent returns the element's parent, or nil at the root.
func (e *Element) Parent() *Element {
	return e.parent
}

// Children returns the element's direct children.
func (e *Element) Children() []*Element {
	return e.children
}

// Attr returns the attribute value, or "".
func (e *Element) Attr(key string) string {
	return e.Attrs[key]
}

// HasClass reports whether the element carries the exact class name.
func (e *Element) HasClass(name string) bool {
	for _, c := range e.Classes {
		if c == name {
			return true
		}
	}
	return false
}

// ClassAttr returns the space-joined class list.
func (e *Element) ClassAttr() string {
	return strings.Join(e.Classes, " ")
}

// Closest walks from e toward the root, up to maxDepth ancestors, returning
// the first element for which match reports true.
func (e *Element) Closest(maxDepth int, match func(*Element) bool) *Element {
	node := e
	for depth := 0; node != nil && depth <= maxDepth; depth++ {
		if match(node) {
			return node
		}
		node = node.parent
	}
	return nil
}

// IsDescendantOf reports whether e is root or sits anywhere under it.
func (e *Element) IsDescendantOf(root *Element) bool {
	for node := e; node != nil; node = node.parent {
		if node == root {
			return true
		}
	}
	return false
}

// AddEventListener registers fn for events of the given type. Capture
// listeners run on the way down from the root; bubble listeners on the way
// back up.
func (e *Element) AddEventListener(eventType string, capture bool, fn func(*Event)) {
	e.listeners[eventType] = append(e.listeners[eventType], &listener{fn: fn, capture: capture})
}

// FormValues collects name/value pairs from input-like descendants, the
// host-page equivalent of serializing a form.
func (e *Element) FormValues() map[string][]string {
	values := map[string][]string{}
	var walk func(*Element)
	walk = func(node *Element) {
		switch node.Tag {
		case "input", "select", "textarea", "button":
			name := node.Attr("name")
			if name != "" {
				values[name] = append(values[name], node.Attr("value"))
			}
		}
		for _, child := range node.children {
			walk(child)
		}
	}
	walk(e)
	return values
}
