package form

import (
	"log/slog"

	"github.com/roach88/formflow/internal/ident"
	"github.com/roach88/formflow/internal/params"
)

// Reserved request keys.
const (
	// KeyDispatchTarget carries the dispatch id of the triggering element.
	KeyDispatchTarget = "dispatchuri"

	// KeyDispatchEvent carries the event kind ("click", "change", ...).
	KeyDispatchEvent = "dispatchevent"
)

// BusinessRules lets the owning screen add validity on top of field checks.
// It always runs after the validate pass, even when fields already failed,
// and may add entries to st. The form is valid only if st is empty and the
// hook returned true.
type BusinessRules func(f *Form, st *Status) bool

// Form is the root aggregate of one rendered form instance.
type Form struct {
	name   string
	screen string
	root   *Container

	registry *ident.Registry[Element]
	source   ident.Source
	replay   *ident.ReplayRegistry

	listeners     []*listenerEntry
	defaultSubmit Element
	business      BusinessRules
	logger        *slog.Logger

	multipart   bool
	maxUploadKB int64
	tempDir     string

	hasFired       bool
	submittedValid bool
	lastCode       params.ErrorCode
	status         *Status

	// sub is only set while a Dispatch call is running.
	sub *params.Submission
}

// Option configures a Form.
type Option func(*Form)

// WithScreen names the owning screen class. Replay identifiers are numbered
// per screen class. Defaults to the form name.
func WithScreen(screen string) Option {
	return func(f *Form) { f.screen = screen }
}

// WithMultipart enables file uploads.
func WithMultipart(enabled bool) Option {
	return func(f *Form) { f.multipart = enabled }
}

// WithUploadLimitKB sets the cumulative upload ceiling.
//
// Default: params.DefaultMaxUploadKB (10 MB)
func WithUploadLimitKB(kb int64) Option {
	return func(f *Form) { f.maxUploadKB = kb }
}

// WithTempDir sets where uploads are staged. Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(f *Form) { f.tempDir = dir }
}

// WithSource replaces the identifier source (ident.UUIDSource by default).
func WithSource(src ident.Source) Option {
	return func(f *Form) { f.source = src }
}

// WithReplay switches the form to replay identifiers drawn from r.
// A nil registry leaves replay mode off.
func WithReplay(r *ident.ReplayRegistry) Option {
	return func(f *Form) { f.replay = r }
}

// WithBusinessRules installs the screen's business-rule hook.
func WithBusinessRules(br BusinessRules) Option {
	return func(f *Form) { f.business = br }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Form) { f.logger = l }
}

// New creates a form with an empty root container named after the form.
func New(name string, opts ...Option) *Form {
	f := &Form{
		name:     name,
		screen:   name,
		root:     NewContainer(name),
		registry: ident.NewRegistry[Element](),
		source:   ident.UUIDSource{},
		lastCode: params.NoError,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	f.logger = f.logger.With("form", f.name)
	return f
}

// Name returns the form instance name.
func (f *Form) Name() string { return f.name }

// Screen returns the owning screen class.
func (f *Form) Screen() string { return f.screen }

// Root returns the root container.
func (f *Form) Root() *Container { return f.root }

// Multipart reports whether uploads are enabled.
func (f *Form) Multipart() bool { return f.multipart }

// SetDefaultSubmit designates the element an implicit submit acts on.
// Pass nil to clear it.
func (f *Form) SetDefaultSubmit(el Element) { f.defaultSubmit = el }

// DefaultSubmit returns the default submit element, if any.
func (f *Form) DefaultSubmit() Element { return f.defaultSubmit }

// HasFired reports whether the latest dispatch or reset emitted its event.
func (f *Form) HasFired() bool { return f.hasFired }

// SubmittedAndValid reports whether the latest dispatch ran a submit that
// passed validation and business rules.
func (f *Form) SubmittedAndValid() bool { return f.submittedValid }

// LastCode returns the request error code of the latest dispatch.
func (f *Form) LastCode() params.ErrorCode { return f.lastCode }

// Status returns the validation status of the latest submit, or nil.
func (f *Form) Status() *Status { return f.status }

// Submission returns the materialized request while a dispatch is running,
// nil otherwise. Listeners use it to reach uploads before teardown.
func (f *Form) Submission() *params.Submission { return f.sub }

// Resolve returns the live element bound to id in the current render.
func (f *Form) Resolve(id string) (Element, bool) {
	return f.registry.Resolve(id)
}

// Render assigns fresh dispatch ids to the whole tree, in insertion order,
// and returns the snapshot. Ids of the previous render stop resolving.
//
// In replay mode an exhausted id space is returned as a
// *ident.ReplayExhaustedError; the form must not be served afterwards.
func (f *Form) Render() ([]Rendered, error) {
	src := f.source
	if f.replay != nil {
		s, err := f.replay.Session(f.screen)
		if err != nil {
			f.logger.Error("replay id space exhausted", "screen", f.screen, "error", err)
			return nil, err
		}
		src = s
	}

	f.registry.Begin()
	r := &renderer{reg: f.registry, src: src, paths: make(map[*Container]string)}
	Walk(f.root, r)
	if r.err != nil {
		if ident.IsReplayExhausted(r.err) {
			f.logger.Error("replay id space exhausted", "screen", f.screen, "error", r.err)
		}
		return nil, r.err
	}
	return r.out, nil
}

// Reset restores every element, hidden or disabled ones included,
// re-evaluates all dependency rules and emits EventReset. The request
// machinery is not involved.
func (f *Form) Reset() {
	f.hasFired = false
	Walk(f.root, resetter{})
	f.ApplyRules()
	f.status = nil
	f.submittedValid = false
	f.lastCode = params.NoError
	f.emit(Event{Type: EventReset, Valid: true, Code: params.NoError})
}

// ApplyRules evaluates every dependency rule of the tree once.
func (f *Form) ApplyRules() {
	Walk(f.root, rulePass{})
}

func (f *Form) materializeOptions() params.Options {
	return params.Options{
		Multipart:   f.multipart,
		MaxUploadKB: f.maxUploadKB,
		TempDir:     f.tempDir,
	}
}
