package form

import (
	"fmt"

	"github.com/roach88/formflow/internal/params"
)

// KindContainer is the Kind of every Container.
const KindContainer = "container"

// Container is an ordered composite of elements and nested containers plus
// the dependency rules between its children.
//
// A container owns its children. Children are looked up by name, which is
// unique within one container.
type Container struct {
	Base
	children []Element
	byName   map[string]Element
	rules    []Rule
}

// NewContainer creates an empty container.
func NewContainer(name string) *Container {
	return &Container{
		Base:   NewBase(name, KindContainer),
		byName: make(map[string]Element),
	}
}

// holder lets types that embed *Container be walked as containers.
type holder interface {
	container() *Container
}

func (c *Container) container() *Container { return c }

func asContainer(el Element) (*Container, bool) {
	h, ok := el.(holder)
	if !ok {
		return nil, false
	}
	return h.container(), true
}

// Add appends elements in order. Fails on a duplicate or empty name;
// elements before the offending one are kept.
func (c *Container) Add(els ...Element) error {
	for _, el := range els {
		name := el.Name()
		if name == "" {
			return fmt.Errorf("container %q: element without name", c.name)
		}
		if _, dup := c.byName[name]; dup {
			return fmt.Errorf("container %q: duplicate element %q", c.name, name)
		}
		c.children = append(c.children, el)
		c.byName[name] = el
	}
	return nil
}

// Remove drops the named child and every rule that mentions it.
// Returns false if no such child exists.
func (c *Container) Remove(name string) bool {
	if _, ok := c.byName[name]; !ok {
		return false
	}
	delete(c.byName, name)
	for i, el := range c.children {
		if el.Name() == name {
			c.children = append(c.children[:i:i], c.children[i+1:]...)
			break
		}
	}
	kept := c.rules[:0]
	for _, r := range c.rules {
		if !r.mentions(name) {
			kept = append(kept, r)
		}
	}
	c.rules = kept
	return true
}

// Children returns the children in insertion order.
func (c *Container) Children() []Element {
	out := make([]Element, len(c.children))
	copy(out, c.children)
	return out
}

// Child returns the named child.
func (c *Container) Child(name string) (Element, bool) {
	el, ok := c.byName[name]
	return el, ok
}

// AddRule attaches a dependency rule. Trigger and targets must already be
// children of c.
func (c *Container) AddRule(r Rule) error {
	if r.When == nil {
		return fmt.Errorf("container %q: rule on %q has no predicate", c.name, r.Trigger)
	}
	if _, ok := c.byName[r.Trigger]; !ok {
		return fmt.Errorf("container %q: rule trigger %q is not a child", c.name, r.Trigger)
	}
	for _, t := range r.Targets {
		if _, ok := c.byName[t]; !ok {
			return fmt.Errorf("container %q: rule target %q is not a child", c.name, t)
		}
	}
	c.rules = append(c.rules, r)
	return nil
}

// Rules returns the attached rules in declaration order.
func (c *Container) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// EvaluateRules recomputes the rules triggered by justDispatched.
// A nil element, or one that is not a child, evaluates every rule.
// Evaluating twice with unchanged inputs changes nothing.
func (c *Container) EvaluateRules(justDispatched Element) {
	all := justDispatched == nil
	if !all {
		if _, ok := c.byName[justDispatched.Name()]; !ok {
			all = true
		}
	}
	for _, r := range c.rules {
		if all || r.Trigger == justDispatched.Name() {
			r.apply(c)
		}
	}
}

// Pull is a no-op; children pull for themselves.
func (c *Container) Pull(*params.Submission) {}

// Dispatch is a no-op.
func (c *Container) Dispatch(*Dispatch) {}

// Validate is a no-op; children validate for themselves.
func (c *Container) Validate(*Status) {}

// Reset is a no-op.
func (c *Container) Reset() {}
