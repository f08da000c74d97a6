package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/roach88/formflow/internal/form"
	"github.com/roach88/formflow/internal/formdef"
	"github.com/roach88/formflow/internal/ident"
	"github.com/roach88/formflow/internal/journal"
	"github.com/roach88/formflow/internal/metrics"
	"github.com/roach88/formflow/internal/params"
)

// Options configures a Server.
type Options struct {
	Env     formdef.Env
	Journal *journal.Journal
	Logger  *slog.Logger
	// Clock measures dispatch durations. Defaults to time.Now.
	Clock func() time.Time
}

type entry struct {
	mu   sync.Mutex
	form *form.Form
}

// Server holds one live form per definition.
type Server struct {
	forms  map[string]*entry
	logger *slog.Logger
	clock  func() time.Time
}

// New builds every definition into a live form.
func New(ctx context.Context, defs []*formdef.Definition, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Env.Logger == nil {
		opts.Env.Logger = opts.Logger
	}

	s := &Server{
		forms:  make(map[string]*entry, len(defs)),
		logger: opts.Logger,
		clock:  opts.Clock,
	}
	for _, def := range defs {
		if _, dup := s.forms[def.Name]; dup {
			return nil, fmt.Errorf("duplicate form %q", def.Name)
		}
		f, err := formdef.Build(def, opts.Env)
		if err != nil {
			return nil, err
		}
		if opts.Journal != nil {
			f.AddListener(opts.Journal.Listener(ctx, opts.Logger))
		}
		s.forms[def.Name] = &entry{form: f}
	}
	metrics.Register()
	return s, nil
}

// Forms returns the served form names in order.
func (s *Server) Forms() []string {
	names := make([]string, 0, len(s.forms))
	for name := range s.forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /forms/{name}", s.handleRender)
	mux.HandleFunc("POST /forms/{name}", s.handleDispatch)
	mux.HandleFunc("POST /forms/{name}/reset", s.handleReset)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "forms": s.Forms()})
	})
	return mux
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "forms", s.Forms())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Snapshot is the rendered state of a form.
type Snapshot struct {
	Form      string          `json:"form"`
	Screen    string          `json:"screen"`
	Multipart bool            `json:"multipart"`
	Elements  []form.Rendered `json:"elements"`
}

// DispatchResponse is returned by POST /forms/{name}.
type DispatchResponse struct {
	Resolution form.Resolution  `json:"resolution"`
	Outcome    form.EventType   `json:"outcome"`
	Target     string           `json:"target,omitempty"`
	Submitted  bool             `json:"submitted"`
	Valid      bool             `json:"valid"`
	Code       params.ErrorCode `json:"code"`
	Errors     []form.Entry     `json:"errors"`
	Render     *Snapshot        `json:"render"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	name := r.PathValue("name")
	e, ok := s.forms[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("form %q not found", name)})
		return nil, false
	}
	return e, true
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := s.render(e.form)
	if err != nil {
		s.renderFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	start := s.clock()
	res := e.form.Dispatch(r)
	metrics.RecordDispatch(e.form.Name(), res, s.clock().Sub(start))

	s.logger.Debug("dispatched",
		"form", e.form.Name(),
		"resolution", res.Resolution,
		"outcome", res.Outcome(),
		"code", res.Code)

	snap, err := s.render(e.form)
	if err != nil {
		s.renderFailed(w, err)
		return
	}

	resp := DispatchResponse{
		Resolution: res.Resolution,
		Outcome:    res.Outcome(),
		Submitted:  res.Submitted,
		Valid:      res.Valid,
		Code:       res.Code,
		Errors:     res.Status.Entries(),
		Render:     snap,
	}
	if res.Target != nil {
		resp.Target = res.Target.Name()
	}
	if resp.Errors == nil {
		resp.Errors = []form.Entry{}
	}
	writeJSON(w, statusFor(res), resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.form.Reset()
	metrics.RecordReset(e.form.Name())

	snap, err := s.render(e.form)
	if err != nil {
		s.renderFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) render(f *form.Form) (*Snapshot, error) {
	rendered, err := f.Render()
	if err != nil {
		return nil, err
	}
	metrics.RecordRender(f.Name())
	return &Snapshot{
		Form:      f.Name(),
		Screen:    f.Screen(),
		Multipart: f.Multipart(),
		Elements:  rendered,
	}, nil
}

func (s *Server) renderFailed(w http.ResponseWriter, err error) {
	if ident.IsReplayExhausted(err) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Code: "REPLAY_EXHAUSTED"})
		return
	}
	s.logger.Error("render failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// statusFor maps a dispatch result to an HTTP status. Validation failures
// are a normal outcome and stay 200.
func statusFor(res *form.Result) int {
	if res.Resolution != form.ResolutionRejected {
		return http.StatusOK
	}
	switch res.Code {
	case params.UploadLimitExceeded:
		return http.StatusRequestEntityTooLarge
	case params.MalformedRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
