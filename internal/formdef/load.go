package formdef

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"go.uber.org/multierr"
)

// LoadDir loads every form under the "form" struct of the CUE package in
// dir. All compile errors are collected; definitions that compiled are
// returned alongside them, sorted by name.
func LoadDir(dir string) ([]*Definition, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("forms directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("forms directory: not a directory: %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", formatCUEError(inst.Err))
	}

	ctx := cuecontext.New()
	return compileAll(ctx.BuildInstance(inst))
}

// LoadString compiles forms from CUE source. filename is used in error
// positions.
func LoadString(src, filename string) ([]*Definition, error) {
	ctx := cuecontext.New()
	return compileAll(ctx.CompileString(src, cue.Filename(filename)))
}

func compileAll(v cue.Value) ([]*Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	formsVal := v.LookupPath(cue.ParsePath("form"))
	if !formsVal.Exists() {
		return nil, &CompileError{Field: "form", Message: "no form definitions found", Pos: v.Pos()}
	}
	iter, err := formsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []*Definition
	var errs error
	for iter.Next() {
		def, err := compileNamed(iter.Label(), iter.Value())
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("form.%s: %w", iter.Label(), err))
			continue
		}
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, errs
}
