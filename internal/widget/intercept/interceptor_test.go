package intercept

import (
	"testing"

	"github.com/niaga-platform/service-cartdrawer/internal/widget/dom"
)

type recorded struct {
	opens int
	forms []*dom.Element
}

func installed(t *testing.T, engineRoot *dom.Element) (*dom.Document, *recorded) {
	t.Helper()
	doc := dom.NewDocument()
	if engineRoot != nil {
		doc.Root.AppendChild(engineRoot)
	}
	rec := &recorded{}
	i := New(Config{
		Document:   doc,
		EngineRoot: engineRoot,
		Handlers: Handlers{
			OnCartOpenRequested:  func() { rec.opens++ },
			OnAddToCartRequested: func(form *dom.Element) { rec.forms = append(rec.forms, form) },
		},
	})
	i.Install()
	return doc, rec
}

func TestClickInterception(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *dom.Element
		intercept bool
	}{
		{"cart link", func() *dom.Element {
			return dom.NewElement("a").WithAttr("href", "/cart")
		}, true},
		{"cart link with query", func() *dom.Element {
			return dom.NewElement("a").WithAttr("href", "/cart?discount=X")
		}, true},
		{"data attribute toggle", func() *dom.Element {
			return dom.NewElement("button").WithAttr("data-cart-toggle", "true")
		}, true},
		{"cart icon class", func() *dom.Element {
			return dom.NewElement("div").WithClasses("header__cart-icon")
		}, true},
		{"aria controls", func() *dom.Element {
			return dom.NewElement("button").WithAttr("aria-controls", "mini-cart")
		}, true},
		{"bare cart id", func() *dom.Element {
			return dom.NewElement("div").WithID("cart")
		}, true},
		{"plain link", func() *dom.Element {
			return dom.NewElement("a").WithAttr("href", "/collections/all")
		}, false},
		{"discard button is not a cart", func() *dom.Element {
			return dom.NewElement("button").WithID("discard-button")
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, rec := installed(t, nil)
			el := tt.build()
			doc.Root.AppendChild(el)

			ev := doc.Click(el)

			if tt.intercept {
				if rec.opens != 1 {
					t.Errorf("opens = %d, want 1", rec.opens)
				}
				if !ev.DefaultPrevented() {
					t.Error("default not prevented on interception")
				}
			} else {
				if rec.opens != 0 {
					t.Errorf("opens = %d, want 0", rec.opens)
				}
				if ev.DefaultPrevented() {
					t.Error("default prevented on a non-cart click")
				}
			}
		})
	}
}

func TestClickOnDescendantOfCartAffordance(t *testing.T) {
	doc, rec := installed(t, nil)
	link := dom.NewElement("a").WithAttr("href", "/cart")
	icon := dom.NewElement("span").WithClasses("icon")
	link.AppendChild(icon)
	doc.Root.AppendChild(link)

	doc.Click(icon)

	if rec.opens != 1 {
		t.Errorf("opens = %d, want 1 via ancestor match", rec.opens)
	}
}

func TestEngineRootExclusionWins(t *testing.T) {
	engineRoot := dom.NewElement("div").WithID("cart-drawer-root")
	// Matches the cart heuristics AND sits inside the engine; exclusion must win.
	inner := dom.NewElement("button").WithClasses("cart-drawer__close")
	engineRoot.AppendChild(inner)

	doc, rec := installed(t, engineRoot)

	ev := doc.Click(inner)

	if rec.opens != 0 {
		t.Errorf("opens = %d, engine-internal click was intercepted", rec.opens)
	}
	if ev.DefaultPrevented() {
		t.Error("engine-internal click had its default prevented")
	}
}

func TestInstallIsIdempotent(t *testing.T) {
	doc := dom.NewDocument()
	rec := &recorded{}
	i := New(Config{
		Document: doc,
		Handlers: Handlers{OnCartOpenRequested: func() { rec.opens++ }},
	})
	i.Install()
	i.Install()
	if !i.Installed() {
		t.Fatal("Installed = false after Install")
	}

	link := dom.NewElement("a").WithAttr("href", "/cart")
	doc.Root.AppendChild(link)
	doc.Click(link)

	if rec.opens != 1 {
		t.Errorf("opens = %d, want 1 after double install", rec.opens)
	}
}

func TestSubmitInterception(t *testing.T) {
	doc, rec := installed(t, nil)
	var native int
	doc.NativeSubmit = func(*dom.Element) { native++ }

	form := dom.NewElement("form").WithAttr("action", "/cart/add")
	form.AppendChild(dom.NewElement("input").WithAttr("name", "id").WithAttr("value", "111"))
	doc.Root.AppendChild(form)

	doc.Submit(form)

	if len(rec.forms) != 1 || rec.forms[0] != form {
		t.Fatalf("forms = %v, want the submitted form", rec.forms)
	}
	if native != 0 {
		t.Errorf("native submits = %d, want 0 when intercepted", native)
	}
}

func TestSubmitPassThroughCases(t *testing.T) {
	engineRoot := dom.NewElement("div").WithID("cart-drawer-root")
	doc, rec := installed(t, engineRoot)
	var native int
	doc.NativeSubmit = func(*dom.Element) { native++ }

	checkout := dom.NewElement("form").WithAttr("action", "/checkout")
	doc.Root.AppendChild(checkout)
	own := dom.NewElement("form").WithAttr("action", "/cart/add").WithAttr("data-cart-drawer-own", "1")
	doc.Root.AppendChild(own)
	inside := dom.NewElement("form").WithAttr("action", "/cart/add")
	engineRoot.AppendChild(inside)

	doc.Submit(checkout)
	doc.Submit(own)
	doc.Submit(inside)

	if len(rec.forms) != 0 {
		t.Errorf("forms = %v, want none intercepted", rec.forms)
	}
	if native != 3 {
		t.Errorf("native submits = %d, want 3", native)
	}
}
