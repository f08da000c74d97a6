package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/formflow/internal/form"
)

// Scenario is one scripted interaction with a single form.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Forms is the CUE definitions directory, relative to the scenario file.
	Forms string `yaml:"forms"`

	// Form names the definition to build.
	Form string `yaml:"form"`

	// Multipart forces multipart bodies even for forms that do not
	// declare multipart.
	Multipart bool `yaml:"multipart,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one interaction. Action is render, submit or reset.
type Step struct {
	Action string `yaml:"action"`

	// Target is the element name whose dispatch id is sent (submit only).
	Target string `yaml:"target,omitempty"`

	// TargetID sends a literal dispatch id instead of looking one up.
	TargetID string `yaml:"target_id,omitempty"`

	// Event is sent as the dispatch event key.
	Event string `yaml:"event,omitempty"`

	Fields map[string]string `yaml:"fields,omitempty"`
	Files  []FileUpload      `yaml:"files,omitempty"`

	// Expect validates the dispatch result. Nil skips validation.
	Expect *Expect `yaml:"expect,omitempty"`
}

// FileUpload is one file part of a submit step. SizeKB pads Content with
// zero bytes up to the given size.
type FileUpload struct {
	Field       string `yaml:"field"`
	Filename    string `yaml:"filename"`
	ContentType string `yaml:"content_type,omitempty"`
	Content     string `yaml:"content,omitempty"`
	SizeKB      int    `yaml:"size_kb,omitempty"`
}

// Expect is a subset match against a dispatch result. Unset fields are
// not checked.
type Expect struct {
	Resolution string `yaml:"resolution,omitempty"`
	Outcome    string `yaml:"outcome,omitempty"`
	Submitted  *bool  `yaml:"submitted,omitempty"`
	Valid      *bool  `yaml:"valid,omitempty"`
	Code       string `yaml:"code,omitempty"`

	// Errors lists the failing element names in traversal order. Form-level
	// entries are matched by key.
	Errors []string `yaml:"errors,omitempty"`
}

// Assertion validates the trace or the final element state.
type Assertion struct {
	Type string `yaml:"type"`

	// Event and Count are used by event_count.
	Event string `yaml:"event,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Events is used by event_order.
	Events []string `yaml:"events,omitempty"`

	// Element and the optional state fields are used by element_state.
	Element string  `yaml:"element,omitempty"`
	Value   *string `yaml:"value,omitempty"`
	Visible *bool   `yaml:"visible,omitempty"`
	Enabled *bool   `yaml:"enabled,omitempty"`
	Error   *string `yaml:"error,omitempty"`
}

// Step actions.
const (
	ActionRender = "render"
	ActionSubmit = "submit"
	ActionReset  = "reset"
)

// Assertion type constants.
const (
	AssertEventCount   = "event_count"
	AssertEventOrder   = "event_order"
	AssertElementState = "element_state"
)

// LoadScenario reads and parses a scenario YAML file. The forms path is
// resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.Forms != "" && !filepath.IsAbs(s.Forms) {
		s.Forms = filepath.Join(filepath.Dir(path), s.Forms)
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML. Unknown fields are
// rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Forms == "" {
		return fmt.Errorf("forms is required")
	}
	if s.Form == "" {
		return fmt.Errorf("form is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch step.Action {
		case ActionRender, ActionReset:
			if step.Target != "" || step.TargetID != "" || len(step.Fields) > 0 || len(step.Files) > 0 || step.Expect != nil {
				return fmt.Errorf("steps[%d]: %s takes no target, fields or expect", i, step.Action)
			}
		case ActionSubmit:
			if step.Target != "" && step.TargetID != "" {
				return fmt.Errorf("steps[%d]: target and target_id are mutually exclusive", i)
			}
			if err := validateExpect(i, step.Expect); err != nil {
				return err
			}
		case "":
			return fmt.Errorf("steps[%d]: action is required", i)
		default:
			return fmt.Errorf("steps[%d]: unknown action %q", i, step.Action)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(index int, e *Expect) error {
	if e == nil {
		return nil
	}
	switch form.Resolution(e.Resolution) {
	case "", form.ResolutionImplicit, form.ResolutionDispatch, form.ResolutionUnresolved, form.ResolutionRejected:
	default:
		return fmt.Errorf("steps[%d].expect: unknown resolution %q", index, e.Resolution)
	}
	switch form.EventType(e.Outcome) {
	case "", form.EventDone, form.EventFailed:
	default:
		return fmt.Errorf("steps[%d].expect: outcome must be done or failed", index)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEventCount:
		if !knownEvent(a.Event) {
			return fmt.Errorf("assertions[%d]: unknown event %q for event_count", index, a.Event)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
		for _, ev := range a.Events {
			if !knownEvent(ev) {
				return fmt.Errorf("assertions[%d]: unknown event %q for event_order", index, ev)
			}
		}
	case AssertElementState:
		if a.Element == "" {
			return fmt.Errorf("assertions[%d]: element is required for element_state", index)
		}
		if a.Value == nil && a.Visible == nil && a.Enabled == nil && a.Error == nil {
			return fmt.Errorf("assertions[%d]: element_state needs at least one of value, visible, enabled, error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func knownEvent(s string) bool {
	switch form.EventType(s) {
	case form.EventDone, form.EventFailed, form.EventReset:
		return true
	}
	return false
}
