package dom

import (
	"reflect"
	"testing"
)

func buildTree() (*Document, *Element, *Element, *Element) {
	doc := NewDocument()
	header := NewElement("header").WithID("header")
	link := NewElement("a").WithAttr("href", "/cart")
	icon := NewElement("span").WithClasses("icon")
	link.AppendChild(icon)
	header.AppendChild(link)
	doc.Root.AppendChild(header)
	return doc, header, link, icon
}

func TestDispatchCaptureThenBubbleOrder(t *testing.T) {
	doc, header, link, icon := buildTree()

	var order []string
	record := func(name string, capture bool) func(*Event) {
		return func(*Event) { order = append(order, name) }
	}
	doc.Root.AddEventListener(EventClick, true, record("root-capture", true))
	header.AddEventListener(EventClick, true, record("header-capture", true))
	link.AddEventListener(EventClick, false, record("link-bubble", false))
	header.AddEventListener(EventClick, false, record("header-bubble", false))
	doc.Root.AddEventListener(EventClick, false, record("root-bubble", false))

	doc.Click(icon)

	want := []string{"root-capture", "header-capture", "link-bubble", "header-bubble", "root-bubble"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestStopPropagationHaltsDispatch(t *testing.T) {
	doc, header, _, icon := buildTree()

	var reached []string
	doc.Root.AddEventListener(EventClick, true, func(ev *Event) {
		reached = append(reached, "root")
		ev.StopPropagation()
	})
	header.AddEventListener(EventClick, true, func(*Event) {
		reached = append(reached, "header")
	})

	doc.Click(icon)

	if !reflect.DeepEqual(reached, []string{"root"}) {
		t.Errorf("reached = %v, want [root]", reached)
	}
}

func TestStopImmediatePropagationSkipsSiblingListeners(t *testing.T) {
	doc, _, _, icon := buildTree()

	var reached []string
	doc.Root.AddEventListener(EventClick, true, func(ev *Event) {
		reached = append(reached, "first")
		ev.StopImmediatePropagation()
	})
	doc.Root.AddEventListener(EventClick, true, func(*Event) {
		reached = append(reached, "second")
	})

	doc.Click(icon)

	if !reflect.DeepEqual(reached, []string{"first"}) {
		t.Errorf("reached = %v, want [first]", reached)
	}
}

func TestSubmitRunsNativeUnlessPrevented(t *testing.T) {
	doc := NewDocument()
	form := NewElement("form").WithAttr("action", "/cart/add")
	doc.Root.AppendChild(form)

	var native int
	doc.NativeSubmit = func(*Element) { native++ }

	doc.Submit(form)
	if native != 1 {
		t.Fatalf("native submits = %d, want 1", native)
	}

	doc.Root.AddEventListener(EventSubmit, true, func(ev *Event) { ev.PreventDefault() })
	ev := doc.Submit(form)
	if native != 1 {
		t.Errorf("prevented submit still ran natively, count = %d", native)
	}
	if !ev.DefaultPrevented() {
		t.Error("DefaultPrevented = false after PreventDefault")
	}
}

func TestClosestRespectsMaxDepth(t *testing.T) {
	_, _, link, icon := buildTree()

	isLink := func(e *Element) bool { return e.Tag == "a" }
	if got := icon.Closest(6, isLink); got != link {
		t.Errorf("Closest within depth = %v, want the link", got)
	}
	if got := icon.Closest(0, isLink); got != nil {
		t.Errorf("Closest depth 0 matched ancestor %v", got)
	}
}

func TestIsDescendantOf(t *testing.T) {
	doc, header, _, icon := buildTree()
	other := NewElement("div")
	doc.Root.AppendChild(other)

	if !icon.IsDescendantOf(header) {
		t.Error("icon should descend from header")
	}
	if !header.IsDescendantOf(header) {
		t.Error("element should descend from itself")
	}
	if icon.IsDescendantOf(other) {
		t.Error("icon should not descend from a sibling subtree")
	}
}

func TestFormValues(t *testing.T) {
	form := NewElement("form")
	form.AppendChild(NewElement("input").WithAttr("name", "id").WithAttr("value", "123"))
	form.AppendChild(NewElement("input").WithAttr("name", "quantity").WithAttr("value", "2"))
	wrapper := NewElement("div")
	wrapper.AppendChild(NewElement("select").WithAttr("name", "properties[Size]").WithAttr("value", "M"))
	wrapper.AppendChild(NewElement("input")) // unnamed, skipped
	form.AppendChild(wrapper)

	got := form.FormValues()
	want := map[string][]string{
		"id":               {"123"},
		"quantity":         {"2"},
		"properties[Size]": {"M"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FormValues = %v, want %v", got, want)
	}
}
