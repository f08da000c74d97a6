package params

import (
	"log/slog"
	"mime"
	"net/http"
	"sort"

	"go.uber.org/multierr"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxUploadKB is the upload ceiling used when Options leaves it unset.
const DefaultMaxUploadKB = 10 * 1024

// DefaultMaxFieldBytes caps a single non-file multipart field.
const DefaultMaxFieldBytes = 1 << 20

// DefaultMaxFieldsBytes caps all non-file multipart fields together.
const DefaultMaxFieldsBytes = 10 << 20

// DefaultMaxParts caps the number of parts in one multipart body.
const DefaultMaxParts = 1000

// Options configures how a submission is materialized.
type Options struct {
	// Multipart enables streaming of file parts to temporary storage.
	// When false, multipart bodies are still read for their fields but
	// file parts are drained without touching storage.
	Multipart bool

	// MaxUploadKB is the cumulative ceiling for all file parts, in kilobytes.
	MaxUploadKB int64

	// MaxFieldBytes caps each non-file field.
	MaxFieldBytes int64

	// MaxFieldsBytes caps the sum of all non-file fields.
	MaxFieldsBytes int64

	// MaxParts caps the number of parts, named or not.
	MaxParts int

	// TempDir is where uploads are staged. Empty means os.TempDir().
	TempDir string
}

func (o Options) uploadLimit() int64 {
	if o.MaxUploadKB <= 0 {
		return DefaultMaxUploadKB * 1024
	}
	return o.MaxUploadKB * 1024
}

func (o Options) fieldLimit() int64 {
	if o.MaxFieldBytes <= 0 {
		return DefaultMaxFieldBytes
	}
	return o.MaxFieldBytes
}

func (o Options) fieldsLimit() int64 {
	if o.MaxFieldsBytes <= 0 {
		return DefaultMaxFieldsBytes
	}
	return o.MaxFieldsBytes
}

func (o Options) partLimit() int {
	if o.MaxParts <= 0 {
		return DefaultMaxParts
	}
	return o.MaxParts
}

// Submission is the materialized form of one inbound request.
//
// It is owned by exactly one dispatch call. Close must run on every exit
// path; it empties the view and deletes unclaimed uploads.
type Submission struct {
	*View

	// Uploads holds the staged file parts.
	Uploads *Arena

	// Code is NoError, or EmptyFileField when a file input was submitted
	// without content. Fatal codes are reported through the returned error.
	Code ErrorCode

	// Received is the number of file bytes staged.
	Received int64

	// Logger receives element-level warnings. Nil means slog.Default().
	Logger *slog.Logger

	closed bool
}

// Log returns the submission's logger.
func (s *Submission) Log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Close tears the submission down. It is safe to call more than once.
func (s *Submission) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.View.Clear()
	return s.Uploads.Close()
}

// IsMultipart reports whether r carries a multipart/form-data body.
func IsMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// Materialize turns r into a Submission.
//
// The returned Submission is never nil, even with a non-nil error, and must
// be closed by the caller. Errors are always *RequestError; any upload staged
// before a failure stays in the arena until Close.
func Materialize(r *http.Request, opts Options) (*Submission, error) {
	sub := &Submission{
		View:    NewView(),
		Uploads: NewArena(opts.TempDir),
		Code:    NoError,
	}

	if IsMultipart(r) {
		p := &streamProcessor{
			opts:         opts,
			view:         sub.View,
			arena:        sub.Uploads,
			remain:       opts.uploadLimit(),
			fieldsRemain: opts.fieldsLimit(),
		}
		err := p.run(r)
		sub.Received = p.received
		if p.sawEmpty {
			sub.Code = EmptyFileField
		}
		if err != nil {
			return sub, err
		}
		// Body values precede query values, as ParseForm orders them.
		addValues(sub.View, r.URL.Query())
		return sub, nil
	}

	if err := r.ParseForm(); err != nil {
		return sub, newRequestError(MalformedRequest, "parsing form body", err)
	}
	addValues(sub.View, r.Form)
	return sub, nil
}

// Teardown closes sub and joins any cleanup failure with err.
func Teardown(sub *Submission, err error) error {
	if sub == nil {
		return err
	}
	return multierr.Append(err, sub.Close())
}

func addValues(v *View, src map[string][]string) {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, val := range src[k] {
			v.Add(k, norm.NFC.String(val))
		}
	}
}
