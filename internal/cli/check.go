package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/roach88/formflow/internal/formdef"
)

// FormSummary describes one valid definition.
type FormSummary struct {
	Name          string `json:"name"`
	Screen        string `json:"screen"`
	Multipart     bool   `json:"multipart"`
	Elements      int    `json:"elements"`
	Rules         int    `json:"rules"`
	DefaultSubmit string `json:"default_submit,omitempty"`
}

// CheckError is one definition problem.
type CheckError struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <forms-dir>",
		Short: "Validate form definitions",
		Long: `Load every form definition in a CUE directory and report problems.

All definitions are checked; every error is reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
}

func runCheck(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(dir); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("forms directory not found: %s", dir), nil)
		return WrapExitError(ExitCommandError, "forms directory not found", err)
	}

	defs, err := formdef.LoadDir(dir)
	summaries := make([]FormSummary, 0, len(defs))
	for _, def := range defs {
		formatter.VerboseLog("Checked form: %s", def.Name)
		summaries = append(summaries, summarize(def))
	}

	if err != nil {
		problems := checkErrors(err)
		if formatter.Format == "json" {
			_ = formatter.Error(ErrCodeDefinition, fmt.Sprintf("%d problem(s) found", len(problems)), problems)
		} else {
			var b strings.Builder
			fmt.Fprintf(&b, "✗ %d problem(s) found:\n", len(problems))
			for _, p := range problems {
				fmt.Fprintf(&b, "  %s\n", p.Message)
			}
			fmt.Fprint(formatter.Writer, b.String())
		}
		return NewExitError(ExitFailure, "form definitions invalid")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✓ %d form(s) valid", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(&b, "\n  %s (screen %s): %d element(s), %d rule(s)", s.Name, s.Screen, s.Elements, s.Rules)
	}
	return formatter.Success(summaries, b.String())
}

func summarize(def *formdef.Definition) FormSummary {
	s := FormSummary{
		Name:          def.Name,
		Screen:        def.Screen,
		Multipart:     def.Multipart,
		DefaultSubmit: def.DefaultSubmit,
		Rules:         len(def.Rules),
	}
	var count func([]formdef.ElementDef)
	count = func(els []formdef.ElementDef) {
		for _, el := range els {
			s.Elements++
			s.Rules += len(el.Rules)
			count(el.Elements)
		}
	}
	count(def.Elements)
	return s
}

func checkErrors(err error) []CheckError {
	var out []CheckError
	for _, e := range multierr.Errors(err) {
		ce := CheckError{Message: e.Error()}
		var compileErr *formdef.CompileError
		if errors.As(e, &compileErr) && compileErr.Pos.IsValid() {
			ce.File = compileErr.Pos.Filename()
			ce.Line = compileErr.Pos.Line()
		}
		out = append(out, ce)
	}
	return out
}
