package dashboard

import (
	"context"
	"strings"
	"sync"
)

// Attribute names the dashboard reads from the rendered tree.
const (
	AttrPrice    = "data-price"
	AttrCurrency = "data-currency"
	AttrSection  = "data-section"
	AttrRecord   = "data-record"
)

// Node is the part of the rendered UI tree the dashboard reads and writes.
type Node interface {
	Attr(name string) (string, bool)
	SetText(text string)
	Children() []Node
}

// Walk visits root and its descendants in document order. Returning false
// from fn skips the node's children.
func Walk(root Node, fn func(Node) bool) {
	if root == nil {
		return
	}
	if !fn(root) {
		return
	}
	for _, child := range root.Children() {
		Walk(child, fn)
	}
}

// Element is an in-memory Node used by the CLI, the HTTP surfaces and tests.
type Element struct {
	Tag   string            `json:"tag"`
	Attrs map[string]string `json:"attrs,omitempty"`
	Kids  []*Element        `json:"children,omitempty"`

	mu   sync.RWMutex
	text string
}

// NewElement builds an element with attributes and children.
func NewElement(tag string, attrs map[string]string, children ...*Element) *Element {
	return &Element{Tag: tag, Attrs: attrs, Kids: children}
}

// PriceElement builds a price-bearing node showing the unconverted amount.
func PriceElement(amount, currency string) *Element {
	attrs := map[string]string{AttrPrice: amount}
	label := amount
	if currency != "" {
		attrs[AttrCurrency] = currency
		label = currency + " " + amount
	}
	el := NewElement("span", attrs)
	el.SetText(label)
	return el
}

// TextElement builds a leaf element with text content.
func TextElement(tag, text string) *Element {
	el := NewElement(tag, nil)
	el.SetText(text)
	return el
}

// Attr implements Node.
func (e *Element) Attr(name string) (string, bool) {
	if e == nil || e.Attrs == nil {
		return "", false
	}
	v, ok := e.Attrs[name]
	return v, ok
}

// SetText implements Node.
func (e *Element) SetText(text string) {
	e.mu.Lock()
	e.text = text
	e.mu.Unlock()
}

// Text returns the element's own text content.
func (e *Element) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text
}

// Children implements Node.
func (e *Element) Children() []Node {
	if e == nil {
		return nil
	}
	out := make([]Node, 0, len(e.Kids))
	for _, kid := range e.Kids {
		out = append(out, kid)
	}
	return out
}

// Append adds children and returns the element.
func (e *Element) Append(children ...*Element) *Element {
	e.Kids = append(e.Kids, children...)
	return e
}

// TextContent concatenates the text of e and its descendants, space separated.
func (e *Element) TextContent() string {
	var parts []string
	Walk(e, func(n Node) bool {
		if el, ok := n.(*Element); ok {
			if t := el.Text(); t != "" {
				parts = append(parts, t)
			}
		}
		return true
	})
	return strings.Join(parts, " ")
}

// MessageLevel classifies viewer-facing notices.
type MessageLevel string

const (
	MessageInfo    MessageLevel = "info"
	MessageSuccess MessageLevel = "success"
	MessageError   MessageLevel = "error"
)

// View is the presentation collaborator driven by the navigation machine and
// the action handlers.
type View interface {
	SetActive(sectionID string, active bool)
	SetTitle(title string)
	SetSidebarOpen(open bool)
	IsNarrow() bool
	Mount(sectionID string, content Node)
	ShowBusy(control string, busy bool)
	ShowOverlay(visible bool)
	ShowMessage(level MessageLevel, text string)
	ShowCurrencyIndicator(currency string)
}

// PriceView is implemented by views that redraw once converted prices have
// been written into content they already mounted.
type PriceView interface {
	PricesUpdated(sectionID string, content Node)
}

// Prompter asks the viewer to confirm destructive or financial operations.
type Prompter interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// PrompterFunc adapts a function into a Prompter.
type PrompterFunc func(ctx context.Context, message string) (bool, error)

// Confirm implements Prompter.
func (f PrompterFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

// AutoConfirm accepts every prompt. Intended for non-interactive callers that
// collected consent elsewhere.
var AutoConfirm Prompter = PrompterFunc(func(context.Context, string) (bool, error) { return true, nil })

// Redirector navigates the viewer away from the dashboard.
type Redirector interface {
	Redirect(ctx context.Context, url string) error
}

type noopView struct{}

func (noopView) SetActive(string, bool)           {}
func (noopView) SetTitle(string)                  {}
func (noopView) SetSidebarOpen(bool)              {}
func (noopView) IsNarrow() bool                   { return false }
func (noopView) Mount(string, Node)               {}
func (noopView) ShowBusy(string, bool)            {}
func (noopView) ShowOverlay(bool)                 {}
func (noopView) ShowMessage(MessageLevel, string) {}
func (noopView) ShowCurrencyIndicator(string)     {}

// declinePrompter refuses every prompt so nothing destructive runs unattended.
type declinePrompter struct{}

func (declinePrompter) Confirm(context.Context, string) (bool, error) { return false, nil }

type noopRedirector struct{}

func (noopRedirector) Redirect(context.Context, string) error { return nil }

type confirmedKey struct{}

// WithConfirmed marks ctx as carrying the viewer's consent, for transports
// that collect confirmation alongside the request.
func WithConfirmed(ctx context.Context) context.Context {
	return context.WithValue(ctx, confirmedKey{}, true)
}

// ContextPrompter confirms only when the context was marked WithConfirmed.
var ContextPrompter Prompter = PrompterFunc(func(ctx context.Context, _ string) (bool, error) {
	ok, _ := ctx.Value(confirmedKey{}).(bool)
	return ok, nil
})
