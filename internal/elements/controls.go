package elements

import (
	"slices"
	"strings"

	"github.com/roach88/formflow/internal/form"
	"github.com/roach88/formflow/internal/params"
)

// Toggle is a single on/off checkbox. The submitted value "on", "true" or
// "1" switches it on; any other submitted value switches it off.
type Toggle struct {
	form.Base
	on  bool
	def bool
}

// NewToggle creates a toggle that starts off.
func NewToggle(name string) *Toggle {
	return &Toggle{Base: form.NewBase(name, "toggle")}
}

// WithDefault sets the state Reset restores and applies it now.
func (t *Toggle) WithDefault(on bool) *Toggle {
	t.def = on
	t.on = on
	return t
}

// On reports the current state.
func (t *Toggle) On() bool { return t.on }

// SetOn changes the state.
func (t *Toggle) SetOn(on bool) { t.on = on }

// Display implements form.Displayer.
func (t *Toggle) Display() string {
	if t.on {
		return "on"
	}
	return "off"
}

// Empty implements form.Valued.
func (t *Toggle) Empty() bool { return !t.on }

// Pull implements form.Element.
func (t *Toggle) Pull(sub *params.Submission) {
	v, ok := sub.Get(t.Name())
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "on", "true", "1":
		t.on = true
	default:
		t.on = false
	}
}

// Dispatch implements form.Element.
func (t *Toggle) Dispatch(*form.Dispatch) {}

// Validate implements form.Element.
func (t *Toggle) Validate(*form.Status) {}

// Reset implements form.Element.
func (t *Toggle) Reset() { t.on = t.def }

// Select is a choice among fixed options. With Multiple unset only the first
// submitted value is kept.
type Select struct {
	form.Base
	Options  []string
	Multiple bool
	Required bool

	selected []string
	invalid  bool
}

// NewSelect creates a choice over options.
func NewSelect(name string, options ...string) *Select {
	return &Select{Base: form.NewBase(name, "select"), Options: options}
}

// Selected returns the selected options in submission order.
func (s *Select) Selected() []string {
	return slices.Clone(s.selected)
}

// Display implements form.Displayer.
func (s *Select) Display() string { return strings.Join(s.selected, ",") }

// Empty implements form.Valued.
func (s *Select) Empty() bool { return len(s.selected) == 0 }

// Pull implements form.Element. Values outside Options are dropped and
// flagged for validation.
func (s *Select) Pull(sub *params.Submission) {
	vals := sub.GetAll(s.Name())
	if vals == nil {
		return
	}
	s.invalid = false
	s.selected = s.selected[:0]
	for _, v := range vals {
		if !slices.Contains(s.Options, v) {
			s.invalid = true
			continue
		}
		if slices.Contains(s.selected, v) {
			continue
		}
		s.selected = append(s.selected, v)
		if !s.Multiple {
			break
		}
	}
}

// Dispatch implements form.Element.
func (s *Select) Dispatch(*form.Dispatch) {}

// Validate implements form.Element.
func (s *Select) Validate(st *form.Status) {
	if s.invalid {
		st.Add(s, ErrInvalidOption)
		return
	}
	if s.Required && len(s.selected) == 0 {
		st.Add(s, ErrRequired)
	}
}

// Reset implements form.Element.
func (s *Select) Reset() {
	s.selected = nil
	s.invalid = false
}

// Submit is a button that requests a full submit when clicked.
type Submit struct {
	form.Base
	clicks int
}

// NewSubmit creates a submit button.
func NewSubmit(name string) *Submit {
	return &Submit{Base: form.NewBase(name, "submit")}
}

// Clicks counts how often the button was dispatched.
func (s *Submit) Clicks() int { return s.clicks }

// Pull implements form.Element.
func (s *Submit) Pull(*params.Submission) {}

// Dispatch implements form.Element.
func (s *Submit) Dispatch(d *form.Dispatch) {
	s.clicks++
	d.Submit()
}

// Validate implements form.Element.
func (s *Submit) Validate(*form.Status) {}

// Reset implements form.Element.
func (s *Submit) Reset() {}

// Button runs OnClick when dispatched and never submits.
type Button struct {
	form.Base
	OnClick func(d *form.Dispatch)
	clicks  int
}

// NewButton creates a button.
func NewButton(name string, onClick func(d *form.Dispatch)) *Button {
	return &Button{Base: form.NewBase(name, "button"), OnClick: onClick}
}

// Clicks counts how often the button was dispatched.
func (b *Button) Clicks() int { return b.clicks }

// Pull implements form.Element.
func (b *Button) Pull(*params.Submission) {}

// Dispatch implements form.Element.
func (b *Button) Dispatch(d *form.Dispatch) {
	b.clicks++
	if b.OnClick != nil {
		b.OnClick(d)
	}
}

// Validate implements form.Element.
func (b *Button) Validate(*form.Status) {}

// Reset implements form.Element.
func (b *Button) Reset() {}
