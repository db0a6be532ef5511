package dom

// Event types the engine cares about.
const (
	EventClick   = "click"
	EventSubmit  = "submit"
	EventKeyDown = "keydown"
)

// Event is a dispatched page event.
type Event struct {
	Type   string
	Target *Element
	// Key carries the key name for keydown events.
	Key string

	defaultPrevented   bool
	propagationStopped bool
	immediatelyStopped bool
}

// PreventDefault cancels the native behavior tied to the event.
func (ev *Event) PreventDefault() { ev.defaultPrevented = true }

// StopPropagation keeps the event from reaching further elements; listeners
// already queued on the current element still run.
func (ev *Event) StopPropagation() { ev.propagationStopped = true }

// StopImmediatePropagation additionally skips remaining listeners on the
// current element.
func (ev *Event) StopImmediatePropagation() {
	ev.propagationStopped = true
	ev.immediatelyStopped = true
}

// DefaultPrevented reports whether a listener cancelled the native behavior.
func (ev *Event) DefaultPrevented() bool { return ev.defaultPrevented }

// Document owns the element tree and dispatches events through it.
type Document struct {
	Root *Element

	// NativeSubmit is invoked when the engine deliberately falls back to the
	// theme's own form submission. Hosts bind it to the real submit; tests
	// record the call.
	NativeSubmit func(form *Element)
}

// NewDocument creates a document with an empty root.
func NewDocument() *Document {
	return &Document{Root: NewElement("body")}
}

// Dispatch runs the capture phase from the root down to the target, then the
// bubble phase back up, honoring stopPropagation and
// stopImmediatePropagation. It returns the event so callers can inspect
// DefaultPrevented.
func (d *Document) Dispatch(ev *Event) *Event {
	if ev.Target == nil {
		return ev
	}

	// Build the propagation path root -> target.
	var path []*Element
	for node := ev.Target; node != nil; node = node.parent {
		path = append([]*Element{node}, path...)
	}

	// Capture phase.
	for _, node := range path {
		if ev.propagationStopped {
			return ev
		}
		d.invoke(node, ev, true)
	}

	// Bubble phase (target listeners registered without capture run first).
	for i := len(path) - 1; i >= 0; i-- {
		if ev.propagationStopped {
			return ev
		}
		d.invoke(path[i], ev, false)
	}
	return ev
}

func (d *Document) invoke(node *Element, ev *Event, capture bool) {
	for _, l := range node.listeners[ev.Type] {
		if l.capture != capture {
			continue
		}
		if ev.immediatelyStopped {
			return
		}
		l.fn(ev)
	}
}

// Click dispatches a click event targeting el.
func (d *Document) Click(el *Element) *Event {
	return d.Dispatch(&Event{Type: EventClick, Target: el})
}

// Submit dispatches a submit event targeting form. When no listener prevents
// the default, the native submission runs.
func (d *Document) Submit(form *Element) *Event {
	ev := d.Dispatch(&Event{Type: EventSubmit, Target: form})
	if !ev.defaultPrevented {
		d.submitNative(form)
	}
	return ev
}

// KeyDown dispatches a keydown event targeting the root.
func (d *Document) KeyDown(key string) *Event {
	return d.Dispatch(&Event{Type: EventKeyDown, Target: d.Root, Key: key})
}

func (d *Document) submitNative(form *Element) {
	if d.NativeSubmit != nil {
		d.NativeSubmit(form)
	}
}

// SubmitNative triggers the host's native submission directly, bypassing
// listeners. Used by the add-to-cart failure fallback.
func (d *Document) SubmitNative(form *Element) {
	d.submitNative(form)
}
