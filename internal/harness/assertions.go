package harness

import (
	"fmt"

	"github.com/roach88/formflow/internal/form"
)

// EvaluateAssertions checks every assertion against the result's trace and
// the final state of f. Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, f *form.Form) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEventCount:
			err = assertEventCount(result, a)
		case AssertEventOrder:
			err = assertEventOrder(result, a)
		case AssertElementState:
			err = assertElementState(f, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d] (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func assertEventCount(result *Result, a Assertion) error {
	n := 0
	for _, r := range result.Trace {
		if string(r.Type) == a.Event {
			n++
		}
	}
	if n != a.Count {
		return fmt.Errorf("expected %d %s event(s), found %d", a.Count, a.Event, n)
	}
	return nil
}

// assertEventOrder matches a.Events as a subsequence of the trace.
func assertEventOrder(result *Result, a Assertion) error {
	next := 0
	for _, r := range result.Trace {
		if next < len(a.Events) && string(r.Type) == a.Events[next] {
			next++
		}
	}
	if next < len(a.Events) {
		return fmt.Errorf("event %q (position %d) not found in order", a.Events[next], next)
	}
	return nil
}

func assertElementState(f *form.Form, a Assertion) error {
	el, ok := find(f, a.Element)
	if !ok {
		return fmt.Errorf("element %q not found", a.Element)
	}
	b := el.Common()

	if a.Value != nil {
		got := ""
		if d, ok := el.(form.Displayer); ok {
			got = d.Display()
		}
		if got != *a.Value {
			return fmt.Errorf("%s: expected value %q, got %q", a.Element, *a.Value, got)
		}
	}
	if a.Visible != nil && *a.Visible != b.Visible() {
		return fmt.Errorf("%s: expected visible=%t, got %t", a.Element, *a.Visible, b.Visible())
	}
	if a.Enabled != nil && *a.Enabled != b.Enabled() {
		return fmt.Errorf("%s: expected enabled=%t, got %t", a.Element, *a.Enabled, b.Enabled())
	}
	if a.Error != nil && *a.Error != b.ErrorKey() {
		return fmt.Errorf("%s: expected error %q, got %q", a.Element, *a.Error, b.ErrorKey())
	}
	return nil
}

// finder locates an element by name or by path below the form root.
type finder struct {
	root  *form.Container
	want  string
	paths map[*form.Container]string
	found form.Element
}

func (v *finder) Visit(el form.Element, parent *form.Container) bool {
	if v.found != nil {
		return false
	}
	path := ""
	if parent != nil && parent != v.root {
		path = v.paths[parent] + "/"
	}
	path += el.Name()
	if c, ok := el.(*form.Container); ok {
		v.paths[c] = path
	}
	if parent != nil && (path == v.want || el.Name() == v.want) {
		v.found = el
		return false
	}
	return true
}

func find(f *form.Form, name string) (form.Element, bool) {
	v := &finder{root: f.Root(), want: name, paths: make(map[*form.Container]string)}
	form.Walk(f.Root(), v)
	return v.found, v.found != nil
}
