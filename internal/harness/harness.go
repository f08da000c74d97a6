package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/formflow/internal/form"
	"github.com/roach88/formflow/internal/formdef"
	"github.com/roach88/formflow/internal/journal"
	"github.com/roach88/formflow/internal/testutil"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds the journaled events in order.
	Trace []journal.Record `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []journal.Record{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Harness drives one scenario against one live form.
type Harness struct {
	form     *form.Form
	journal  *journal.Journal
	rendered []form.Rendered
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each run builds a fresh form, journals into a fresh in-memory database
// and stages uploads in a private temporary directory that is removed on
// return. An error means the scenario could not be executed at all; failed
// expectations are reported through the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	defs, err := formdef.LoadDir(scenario.Forms)
	if err != nil {
		return nil, fmt.Errorf("failed to load forms: %w", err)
	}
	var def *formdef.Definition
	for _, d := range defs {
		if d.Name == scenario.Form {
			def = d
			break
		}
	}
	if def == nil {
		return nil, fmt.Errorf("form %q not found in %s", scenario.Form, scenario.Forms)
	}

	tmp, err := os.MkdirTemp("", "formflow-harness-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	j, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f, err := formdef.Build(def, formdef.Env{
		UploadDir: filepath.Join(tmp, "uploads"),
		TempDir:   tmp,
		Source:    testutil.NewSequentialIDs("id-"),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	f.AddListener(j.Listener(ctx, logger))

	h := &Harness{form: f, journal: j, logger: logger}
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.execute(i, step, scenario.Multipart || def.Multipart, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}

	trace, err := j.List(ctx, journal.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	result.Trace = trace

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, f) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) execute(index int, step Step, multipart bool, result *Result) error {
	switch step.Action {
	case ActionRender:
		rendered, err := h.form.Render()
		if err != nil {
			return err
		}
		h.rendered = rendered
	case ActionReset:
		h.form.Reset()
	case ActionSubmit:
		fields, err := h.fields(step)
		if err != nil {
			return err
		}
		req, err := testutil.BuildRequest("/", multipart, fields, files(step.Files))
		if err != nil {
			return err
		}
		res := h.form.Dispatch(req)
		h.logger.Debug("submit step completed",
			"step", index,
			"resolution", res.Resolution,
			"outcome", res.Outcome(),
		)
		if step.Expect != nil {
			for _, msg := range checkExpect(index, step.Expect, res) {
				result.AddError(msg)
			}
		}
	}
	return nil
}

// fields assembles the request keys of a submit step. Dispatch keys come
// first, then the step's fields sorted by key.
func (h *Harness) fields(step Step) ([]testutil.Field, error) {
	var out []testutil.Field

	switch {
	case step.TargetID != "":
		out = append(out, testutil.Field{Key: form.KeyDispatchTarget, Value: step.TargetID})
	case step.Target != "":
		id, ok := h.idOf(step.Target)
		if !ok {
			if h.rendered == nil {
				return nil, fmt.Errorf("target %q: form has not been rendered", step.Target)
			}
			return nil, fmt.Errorf("target %q: no such element in the last render", step.Target)
		}
		out = append(out, testutil.Field{Key: form.KeyDispatchTarget, Value: id})
	}
	if step.Event != "" {
		out = append(out, testutil.Field{Key: form.KeyDispatchEvent, Value: step.Event})
	}

	keys := make([]string, 0, len(step.Fields))
	for k := range step.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, testutil.Field{Key: k, Value: step.Fields[k]})
	}
	return out, nil
}

// idOf finds an element of the last render by name, or by path below the
// form when name contains a slash.
func (h *Harness) idOf(name string) (string, bool) {
	for _, r := range h.rendered {
		if matches(r.Path, r.Name, name) {
			return r.ID, true
		}
	}
	return "", false
}

func matches(path, elName, want string) bool {
	if strings.Contains(want, "/") {
		_, rel, ok := strings.Cut(path, "/")
		return ok && rel == want
	}
	return elName == want
}

func files(uploads []FileUpload) []testutil.File {
	out := make([]testutil.File, 0, len(uploads))
	for _, u := range uploads {
		content := []byte(u.Content)
		if pad := u.SizeKB*1024 - len(content); pad > 0 {
			content = append(content, make([]byte, pad)...)
		}
		out = append(out, testutil.File{
			Field:       u.Field,
			Filename:    u.Filename,
			ContentType: u.ContentType,
			Content:     content,
		})
	}
	return out
}

func checkExpect(index int, e *Expect, res *form.Result) []string {
	var errs []string
	prefix := fmt.Sprintf("steps[%d]", index)

	if e.Resolution != "" && form.Resolution(e.Resolution) != res.Resolution {
		errs = append(errs, fmt.Sprintf("%s: expected resolution %s, got %s", prefix, e.Resolution, res.Resolution))
	}
	if e.Outcome != "" && form.EventType(e.Outcome) != res.Outcome() {
		errs = append(errs, fmt.Sprintf("%s: expected outcome %s, got %s", prefix, e.Outcome, res.Outcome()))
	}
	if e.Submitted != nil && *e.Submitted != res.Submitted {
		errs = append(errs, fmt.Sprintf("%s: expected submitted=%t, got %t", prefix, *e.Submitted, res.Submitted))
	}
	if e.Valid != nil && *e.Valid != res.Valid {
		errs = append(errs, fmt.Sprintf("%s: expected valid=%t, got %t", prefix, *e.Valid, res.Valid))
	}
	if e.Code != "" && e.Code != string(res.Code) {
		errs = append(errs, fmt.Sprintf("%s: expected code %s, got %s", prefix, e.Code, res.Code))
	}
	if e.Errors != nil {
		got := failing(res.Status)
		if strings.Join(got, ",") != strings.Join(e.Errors, ",") {
			errs = append(errs, fmt.Sprintf("%s: expected errors %v, got %v", prefix, e.Errors, got))
		}
	}
	return errs
}

func failing(st *form.Status) []string {
	out := []string{}
	for _, e := range st.Entries() {
		if e.Element != "" {
			out = append(out, e.Element)
		} else {
			out = append(out, e.Key)
		}
	}
	return out
}
