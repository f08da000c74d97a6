package form

import "github.com/roach88/formflow/internal/params"

// Element is the capability contract of every input or control.
//
// Side effects stay inside the element. Cross-element effects happen only
// through dependency Rules on the owning Container.
type Element interface {
	// Name identifies the element within its container. It is also the
	// request key the element reads.
	Name() string

	// Common exposes the shared state (id, flags, validation error).
	Common() *Base

	// Pull reads the element's own keys from sub. Absent keys mean
	// "unchanged", never an error. Must be idempotent.
	Pull(sub *params.Submission)

	// Dispatch runs only on the element whose dispatch id matched.
	// It may call d.Submit to request a full submit.
	Dispatch(d *Dispatch)

	// Validate appends at most one entry to st. Only called while the
	// element is visible and enabled.
	Validate(st *Status)

	// Reset restores the default value. Errors are cleared by the engine.
	Reset()
}

// Displayer is implemented by elements that expose a current value to the
// rendering layer.
type Displayer interface {
	Display() string
}

// Valued is implemented by elements whose value can be empty. The IsSet and
// IsUnset rule predicates use it.
type Valued interface {
	Empty() bool
}

// Base carries the state shared by all elements. Concrete elements embed it.
type Base struct {
	name    string
	kind    string
	id      string
	visible bool
	enabled bool
	errKey  string
	errArgs []string
}

// NewBase creates visible, enabled state for an element of the given kind.
func NewBase(name, kind string) Base {
	return Base{name: name, kind: kind, visible: true, enabled: true}
}

// Name returns the element name.
func (b *Base) Name() string { return b.name }

// Common returns b.
func (b *Base) Common() *Base { return b }

// Kind names the element type ("text", "file", ...).
func (b *Base) Kind() string { return b.kind }

// ID returns the dispatch id assigned by the latest render, or "".
func (b *Base) ID() string { return b.id }

// Visible reports whether the element is rendered.
func (b *Base) Visible() bool { return b.visible }

// SetVisible shows or hides the element.
func (b *Base) SetVisible(v bool) { b.visible = v }

// Enabled reports whether the element accepts input.
func (b *Base) Enabled() bool { return b.enabled }

// SetEnabled enables or disables the element.
func (b *Base) SetEnabled(v bool) { b.enabled = v }

// SetError records a validation error key. Translation happens elsewhere.
func (b *Base) SetError(key string, args ...string) {
	b.errKey = key
	b.errArgs = args
}

// ClearError drops the validation error.
func (b *Base) ClearError() {
	b.errKey = ""
	b.errArgs = nil
}

// ErrorKey returns the validation error key, or "".
func (b *Base) ErrorKey() string { return b.errKey }

// ErrorArgs returns the validation error arguments.
func (b *Base) ErrorArgs() []string { return b.errArgs }

// HasError reports whether a validation error is set.
func (b *Base) HasError() bool { return b.errKey != "" }
