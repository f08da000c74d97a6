package elements

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/formflow/internal/form"
	"github.com/roach88/formflow/internal/params"
)

// Error keys.
const (
	ErrRequired      = "required"
	ErrMaxLength     = "maxlength"
	ErrFileTooLarge  = "filetoolarge"
	ErrMimeType      = "mimetype"
	ErrInvalidOption = "invalidoption"
)

// Text is a single-line text input.
type Text struct {
	form.Base
	Required  bool
	MaxLength int

	value string
	def   string
}

// NewText creates a text input with an empty default.
func NewText(name string) *Text {
	return &Text{Base: form.NewBase(name, "text")}
}

// WithDefault sets the value Reset restores and applies it now.
func (t *Text) WithDefault(v string) *Text {
	t.def = v
	t.value = v
	return t
}

// Value returns the current value.
func (t *Text) Value() string { return t.value }

// SetValue replaces the current value.
func (t *Text) SetValue(v string) { t.value = v }

// Display implements form.Displayer.
func (t *Text) Display() string { return t.value }

// Empty implements form.Valued. Whitespace-only counts as empty.
func (t *Text) Empty() bool { return strings.TrimSpace(t.value) == "" }

// Pull implements form.Element.
func (t *Text) Pull(sub *params.Submission) {
	if v, ok := sub.Get(t.Name()); ok {
		t.value = v
	}
}

// Dispatch implements form.Element. Text inputs never request a submit.
func (t *Text) Dispatch(*form.Dispatch) {}

// Validate implements form.Element.
func (t *Text) Validate(st *form.Status) {
	if t.Required && t.Empty() {
		st.Add(t, ErrRequired)
		return
	}
	if t.MaxLength > 0 && utf8.RuneCountInString(t.value) > t.MaxLength {
		st.Add(t, ErrMaxLength, strconv.Itoa(t.MaxLength))
	}
}

// Reset implements form.Element.
func (t *Text) Reset() { t.value = t.def }
