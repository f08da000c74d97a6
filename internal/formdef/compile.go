package formdef

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Definition is one compiled form.
type Definition struct {
	Name          string
	Screen        string
	Multipart     bool
	UploadLimitKB int64
	DefaultSubmit string
	Elements      []ElementDef
	Rules         []RuleDef
}

// ElementDef is one element, or a nested group when Kind is KindGroup.
type ElementDef struct {
	Name      string
	Kind      string
	Required  bool
	Hidden    bool
	Disabled  bool
	Default   string
	MaxLength int
	MaxKB     int64
	Accept    []string
	Options   []string
	Multiple  bool
	Elements  []ElementDef
	Rules     []RuleDef
}

// RuleDef is a dependency rule between siblings.
type RuleDef struct {
	Trigger string
	When    string
	Effect  string
	Targets []string
}

// Element kinds understood by Build.
const (
	KindText   = "text"
	KindFile   = "file"
	KindToggle = "toggle"
	KindSelect = "select"
	KindSubmit = "submit"
	KindButton = "button"
	KindGroup  = "group"
)

var knownKinds = map[string]bool{
	KindText: true, KindFile: true, KindToggle: true, KindSelect: true,
	KindSubmit: true, KindButton: true, KindGroup: true,
}

// CompileError is a definition error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileForm parses a CUE value into a Definition. The form name is the
// last path selector, so pass the value at "form.<name>":
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`form: login: { elements: [...] }`)
//	def, err := CompileForm(v.LookupPath(cue.ParsePath("form.login")))
func CompileForm(v cue.Value) (*Definition, error) {
	name := ""
	if sels := v.Path().Selectors(); len(sels) > 0 {
		name = sels[len(sels)-1].String()
	}
	return compileNamed(name, v)
}

func compileNamed(name string, v cue.Value) (*Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if name == "" {
		return nil, &CompileError{Field: "form", Message: "form name is required", Pos: v.Pos()}
	}

	def := &Definition{Name: name}

	var err error
	if def.Screen, err = optString(v, "screen"); err != nil {
		return nil, err
	}
	if def.Screen == "" {
		def.Screen = def.Name
	}
	if def.Multipart, err = optBool(v, "multipart"); err != nil {
		return nil, err
	}
	if def.UploadLimitKB, err = optInt(v, "upload_limit_kb"); err != nil {
		return nil, err
	}
	if def.DefaultSubmit, err = optString(v, "default_submit"); err != nil {
		return nil, err
	}

	elemsVal := v.LookupPath(cue.ParsePath("elements"))
	if !elemsVal.Exists() {
		return nil, &CompileError{Field: "elements", Message: "elements is required", Pos: v.Pos()}
	}
	if def.Elements, err = parseElements(elemsVal); err != nil {
		return nil, err
	}
	if len(def.Elements) == 0 {
		return nil, &CompileError{Field: "elements", Message: "at least one element is required", Pos: elemsVal.Pos()}
	}
	if def.Rules, err = parseRules(v); err != nil {
		return nil, err
	}

	if def.DefaultSubmit != "" && !containsSubmit(def.Elements, def.DefaultSubmit) {
		return nil, &CompileError{
			Field:   "default_submit",
			Message: fmt.Sprintf("%q is not a submit element of this form", def.DefaultSubmit),
			Pos:     v.LookupPath(cue.ParsePath("default_submit")).Pos(),
		}
	}
	return def, nil
}

func parseElements(v cue.Value) ([]ElementDef, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ElementDef
	seen := make(map[string]bool)
	for iter.Next() {
		el, err := parseElement(iter.Value())
		if err != nil {
			return nil, err
		}
		if seen[el.Name] {
			return nil, &CompileError{
				Field:   "elements",
				Message: fmt.Sprintf("duplicate element %q", el.Name),
				Pos:     iter.Value().Pos(),
			}
		}
		seen[el.Name] = true
		out = append(out, el)
	}
	return out, nil
}

func parseElement(v cue.Value) (ElementDef, error) {
	var el ElementDef
	var err error

	if el.Name, err = reqString(v, "name"); err != nil {
		return el, err
	}
	if el.Kind, err = reqString(v, "kind"); err != nil {
		return el, err
	}
	if !knownKinds[el.Kind] {
		return el, &CompileError{
			Field:   "kind",
			Message: fmt.Sprintf("unknown element kind %q", el.Kind),
			Pos:     v.LookupPath(cue.ParsePath("kind")).Pos(),
		}
	}
	if el.Required, err = optBool(v, "required"); err != nil {
		return el, err
	}
	if el.Hidden, err = optBool(v, "hidden"); err != nil {
		return el, err
	}
	if el.Disabled, err = optBool(v, "disabled"); err != nil {
		return el, err
	}
	if el.Default, err = optString(v, "default"); err != nil {
		return el, err
	}
	maxLen, err := optInt(v, "max_length")
	if err != nil {
		return el, err
	}
	el.MaxLength = int(maxLen)
	if el.MaxKB, err = optInt(v, "max_kb"); err != nil {
		return el, err
	}
	if el.Accept, err = optStrings(v, "accept"); err != nil {
		return el, err
	}
	if el.Options, err = optStrings(v, "options"); err != nil {
		return el, err
	}
	if el.Multiple, err = optBool(v, "multiple"); err != nil {
		return el, err
	}

	if el.Kind == KindSelect && len(el.Options) == 0 {
		return el, &CompileError{Field: "options", Message: "select needs at least one option", Pos: v.Pos()}
	}

	if el.Kind == KindGroup {
		elemsVal := v.LookupPath(cue.ParsePath("elements"))
		if elemsVal.Exists() {
			if el.Elements, err = parseElements(elemsVal); err != nil {
				return el, err
			}
		}
		if el.Rules, err = parseRules(v); err != nil {
			return el, err
		}
	}
	return el, nil
}

func parseRules(v cue.Value) ([]RuleDef, error) {
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, nil
	}
	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []RuleDef
	for iter.Next() {
		rv := iter.Value()
		var r RuleDef
		if r.Trigger, err = reqString(rv, "trigger"); err != nil {
			return nil, err
		}
		if r.When, err = optString(rv, "when"); err != nil {
			return nil, err
		}
		if r.When == "" {
			r.When = "set"
		}
		if r.When != "set" && r.When != "unset" {
			return nil, &CompileError{Field: "when", Message: fmt.Sprintf("must be \"set\" or \"unset\", got %q", r.When), Pos: rv.Pos()}
		}
		if r.Effect, err = reqString(rv, "effect"); err != nil {
			return nil, err
		}
		if r.Targets, err = optStrings(rv, "targets"); err != nil {
			return nil, err
		}
		if len(r.Targets) == 0 {
			return nil, &CompileError{Field: "targets", Message: "rule needs at least one target", Pos: rv.Pos()}
		}
		out = append(out, r)
	}
	return out, nil
}

func containsSubmit(els []ElementDef, name string) bool {
	for _, el := range els {
		if el.Name == name && el.Kind == KindSubmit {
			return true
		}
		if el.Kind == KindGroup && containsSubmit(el.Elements, name) {
			return true
		}
	}
	return false
}

func reqString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if s == "" {
		return "", &CompileError{Field: field, Message: field + " must not be empty", Pos: fv.Pos()}
	}
	return s, nil
}

func optString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func optInt(v cue.Value, field string) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	if n < 0 {
		return 0, &CompileError{Field: field, Message: "must not be negative", Pos: fv.Pos()}
	}
	return n, nil
}

func optStrings(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
