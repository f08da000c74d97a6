package form

import (
	"github.com/roach88/formflow/internal/ident"
	"github.com/roach88/formflow/internal/params"
)

// Visitor is one pass over an element tree.
type Visitor interface {
	// Visit is called for el with its parent (nil for the root).
	// Returning false skips el's children.
	Visit(el Element, parent *Container) bool
}

// Parents maps every visited element to its parent container.
// It is rebuilt on every walk; elements hold no back-pointers.
type Parents map[Element]*Container

// Walk visits root and its descendants depth-first in insertion order.
func Walk(root *Container, v Visitor) Parents {
	p := make(Parents)
	walk(root, nil, v, p)
	return p
}

func walk(el Element, parent *Container, v Visitor, p Parents) {
	p[el] = parent
	if !v.Visit(el, parent) {
		return
	}
	c, ok := asContainer(el)
	if !ok {
		return
	}
	for _, child := range c.children {
		walk(child, c, v, p)
	}
}

func active(el Element) bool {
	b := el.Common()
	return b.Visible() && b.Enabled()
}

// finder locates the live element carrying a dispatch id. Hidden or disabled
// subtrees are not live and are skipped.
type finder struct {
	id    string
	found Element
}

func (f *finder) Visit(el Element, _ *Container) bool {
	if !active(el) {
		return false
	}
	if f.id != "" && f.found == nil && el.Common().ID() == f.id {
		f.found = el
	}
	return true
}

// evaluator pulls request values into every live element and locates the
// dispatch target in the same walk.
type evaluator struct {
	sub  *params.Submission
	find finder
}

func (e *evaluator) Visit(el Element, parent *Container) bool {
	if !e.find.Visit(el, parent) {
		return false
	}
	el.Pull(e.sub)
	return true
}

// validator collects failures of live elements. Every element's previous
// error is cleared first, including those in hidden or disabled subtrees.
type validator struct {
	status  *Status
	dormant map[*Container]bool
}

func (v *validator) Visit(el Element, parent *Container) bool {
	el.Common().ClearError()
	if v.dormant[parent] || !active(el) {
		if c, ok := asContainer(el); ok {
			if v.dormant == nil {
				v.dormant = make(map[*Container]bool)
			}
			v.dormant[c] = true
		}
		return true
	}
	el.Validate(v.status)
	return true
}

// resetter restores every element, hidden or not.
type resetter struct{}

func (resetter) Visit(el Element, _ *Container) bool {
	el.Common().ClearError()
	el.Reset()
	return true
}

// rulePass evaluates every rule of every container.
type rulePass struct{}

func (rulePass) Visit(el Element, _ *Container) bool {
	if c, ok := asContainer(el); ok {
		c.EvaluateRules(nil)
	}
	return true
}

// Rendered is the snapshot of one element handed to the rendering layer.
type Rendered struct {
	Path      string   `json:"path"`
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	ID        string   `json:"id"`
	Visible   bool     `json:"visible"`
	Enabled   bool     `json:"enabled"`
	Value     string   `json:"value,omitempty"`
	Error     string   `json:"error,omitempty"`
	ErrorArgs []string `json:"error_args,omitempty"`
}

// renderer assigns fresh dispatch ids to every element and records the
// snapshot. Stops assigning at the first source error.
type renderer struct {
	reg   *ident.Registry[Element]
	src   ident.Source
	paths map[*Container]string
	out   []Rendered
	err   error
}

func (r *renderer) Visit(el Element, parent *Container) bool {
	if r.err != nil {
		return false
	}
	b := el.Common()
	id, err := r.reg.Assign(r.src, el)
	if err != nil {
		r.err = err
		return false
	}
	b.id = id

	path := el.Name()
	if parent != nil {
		path = r.paths[parent] + "/" + path
	}
	if c, ok := asContainer(el); ok {
		r.paths[c] = path
	}

	rd := Rendered{
		Path:      path,
		Name:      el.Name(),
		Kind:      b.Kind(),
		ID:        id,
		Visible:   b.Visible(),
		Enabled:   b.Enabled(),
		Error:     b.ErrorKey(),
		ErrorArgs: b.ErrorArgs(),
	}
	if d, ok := el.(Displayer); ok {
		rd.Value = d.Display()
	}
	r.out = append(r.out, rd)
	return true
}
