package formdef

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/roach88/formflow/internal/elements"
	"github.com/roach88/formflow/internal/form"
	"github.com/roach88/formflow/internal/ident"
)

// Env carries the runtime settings a definition does not own.
type Env struct {
	// UploadDir is where file elements claim their uploads. Each form gets
	// its own subdirectory.
	UploadDir string
	TempDir   string
	// UploadLimitKB applies when the definition sets none.
	UploadLimitKB int64
	Source        ident.Source
	Replay        *ident.ReplayRegistry
	Logger        *slog.Logger
	Business      form.BusinessRules
}

// Build instantiates a live form from a definition. Each call returns an
// independent form with fresh element state.
func Build(def *Definition, env Env) (*form.Form, error) {
	limit := def.UploadLimitKB
	if limit == 0 {
		limit = env.UploadLimitKB
	}

	opts := []form.Option{
		form.WithScreen(def.Screen),
		form.WithMultipart(def.Multipart),
		form.WithUploadLimitKB(limit),
		form.WithTempDir(env.TempDir),
	}
	if env.Source != nil {
		opts = append(opts, form.WithSource(env.Source))
	}
	if env.Replay != nil {
		opts = append(opts, form.WithReplay(env.Replay))
	}
	if env.Logger != nil {
		opts = append(opts, form.WithLogger(env.Logger))
	}
	if env.Business != nil {
		opts = append(opts, form.WithBusinessRules(env.Business))
	}

	f := form.New(def.Name, opts...)
	b := &builder{def: def, env: env}
	if err := b.fill(f.Root(), def.Elements, def.Rules); err != nil {
		return nil, fmt.Errorf("form %s: %w", def.Name, err)
	}
	if b.defaultSubmit != nil {
		f.SetDefaultSubmit(b.defaultSubmit)
	}
	f.ApplyRules()
	return f, nil
}

type builder struct {
	def           *Definition
	env           Env
	defaultSubmit form.Element
}

func (b *builder) fill(c *form.Container, defs []ElementDef, rules []RuleDef) error {
	for _, ed := range defs {
		el, err := b.element(ed)
		if err != nil {
			return err
		}
		if err := c.Add(el); err != nil {
			return err
		}
	}
	for _, rd := range rules {
		r, err := rule(rd)
		if err != nil {
			return err
		}
		if err := c.AddRule(r); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) element(ed ElementDef) (form.Element, error) {
	var el form.Element
	switch ed.Kind {
	case KindText:
		t := elements.NewText(ed.Name).WithDefault(ed.Default)
		t.Required = ed.Required
		t.MaxLength = ed.MaxLength
		el = t
	case KindFile:
		dir := ""
		if b.env.UploadDir != "" {
			dir = filepath.Join(b.env.UploadDir, b.def.Name)
		}
		fe := elements.NewFile(ed.Name, dir)
		fe.Required = ed.Required
		fe.MaxKB = ed.MaxKB
		fe.Accept = ed.Accept
		el = fe
	case KindToggle:
		el = elements.NewToggle(ed.Name).WithDefault(ed.Default == "on")
	case KindSelect:
		s := elements.NewSelect(ed.Name, ed.Options...)
		s.Multiple = ed.Multiple
		s.Required = ed.Required
		el = s
	case KindSubmit:
		s := elements.NewSubmit(ed.Name)
		if ed.Name == b.def.DefaultSubmit {
			b.defaultSubmit = s
		}
		el = s
	case KindButton:
		el = elements.NewButton(ed.Name, nil)
	case KindGroup:
		g := form.NewContainer(ed.Name)
		if err := b.fill(g, ed.Elements, ed.Rules); err != nil {
			return nil, fmt.Errorf("group %s: %w", ed.Name, err)
		}
		el = g
	default:
		return nil, fmt.Errorf("element %s: unknown kind %q", ed.Name, ed.Kind)
	}

	el.Common().SetVisible(!ed.Hidden)
	el.Common().SetEnabled(!ed.Disabled)
	return el, nil
}

func rule(rd RuleDef) (form.Rule, error) {
	effect, err := form.ParseEffect(rd.Effect)
	if err != nil {
		return form.Rule{}, err
	}
	when := form.IsSet
	if rd.When == "unset" {
		when = form.IsUnset
	}
	return form.Rule{Trigger: rd.Trigger, When: when, Effect: effect, Targets: rd.Targets}, nil
}
