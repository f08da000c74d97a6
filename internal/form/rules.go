package form

import "fmt"

// Effect is what a Rule does to its targets when the predicate holds.
// When it does not hold the opposite is applied, which keeps rules
// idempotent.
type Effect int

const (
	Show Effect = iota
	Hide
	Enable
	Disable
)

func (e Effect) String() string {
	switch e {
	case Show:
		return "show"
	case Hide:
		return "hide"
	case Enable:
		return "enable"
	case Disable:
		return "disable"
	}
	return fmt.Sprintf("Effect(%d)", int(e))
}

// ParseEffect parses "show", "hide", "enable" or "disable".
func ParseEffect(s string) (Effect, error) {
	switch s {
	case "show":
		return Show, nil
	case "hide":
		return Hide, nil
	case "enable":
		return Enable, nil
	case "disable":
		return Disable, nil
	}
	return 0, fmt.Errorf("unknown rule effect %q", s)
}

// Rule is a declarative dependency between siblings: a predicate over the
// trigger's state decides the visibility or enablement of the targets.
type Rule struct {
	Trigger string
	When    func(Element) bool
	Effect  Effect
	Targets []string
}

func (r Rule) apply(c *Container) {
	trigger, ok := c.byName[r.Trigger]
	if !ok {
		return
	}
	holds := r.When(trigger)
	for _, name := range r.Targets {
		t, ok := c.byName[name]
		if !ok {
			continue
		}
		b := t.Common()
		switch r.Effect {
		case Show:
			b.SetVisible(holds)
		case Hide:
			b.SetVisible(!holds)
		case Enable:
			b.SetEnabled(holds)
		case Disable:
			b.SetEnabled(!holds)
		}
	}
}

func (r Rule) mentions(name string) bool {
	if r.Trigger == name {
		return true
	}
	for _, t := range r.Targets {
		if t == name {
			return true
		}
	}
	return false
}

// IsSet holds when the element has a non-empty value.
// Elements that do not implement Valued never count as set.
func IsSet(el Element) bool {
	v, ok := el.(Valued)
	return ok && !v.Empty()
}

// IsUnset is the negation of IsSet.
func IsUnset(el Element) bool {
	return !IsSet(el)
}
