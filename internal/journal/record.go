package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/formflow/internal/form"
	"github.com/roach88/formflow/internal/params"
)

// Record is one journaled form event.
type Record struct {
	Seq        int64            `json:"seq"`
	Form       string           `json:"form"`
	Type       form.EventType   `json:"type"`
	Resolution form.Resolution  `json:"resolution,omitempty"`
	Source     string           `json:"source,omitempty"`
	Submitted  bool             `json:"submitted"`
	Valid      bool             `json:"valid"`
	Code       params.ErrorCode `json:"code"`
	Errors     []form.Entry     `json:"errors"`
}

// RecordOf converts a form event. Seq is left for Append to assign.
func RecordOf(ev form.Event) Record {
	r := Record{
		Type:       ev.Type,
		Resolution: ev.Resolution,
		Submitted:  ev.Submitted,
		Valid:      ev.Valid,
		Code:       ev.Code,
		Errors:     ev.Status.Entries(),
	}
	if ev.Form != nil {
		r.Form = ev.Form.Name()
	}
	if ev.Source != nil {
		r.Source = ev.Source.Name()
	}
	if r.Errors == nil {
		r.Errors = []form.Entry{}
	}
	return r
}

// Append assigns the next sequence number to r and writes it.
func (j *Journal) Append(ctx context.Context, r Record) (int64, error) {
	errorsJSON, err := marshalEntries(r.Errors)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	seq := j.seq + 1
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO events
		(seq, form, type, resolution, source, submitted, valid, code, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		seq,
		r.Form,
		string(r.Type),
		string(r.Resolution),
		r.Source,
		r.Submitted,
		r.Valid,
		string(r.Code),
		errorsJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	j.seq = seq
	return seq, nil
}

// Listener returns a form listener that appends every event. Write
// failures are logged and never reach the form.
func (j *Journal) Listener(ctx context.Context, logger *slog.Logger) form.Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ev form.Event) {
		r := RecordOf(ev)
		if _, err := j.Append(ctx, r); err != nil {
			logger.Error("journal write failed", "form", r.Form, "type", r.Type, "error", err)
		}
	}
}

// marshalEntries encodes validation entries with HTML escaping disabled
// so stored rows stay byte-identical to what the API returns.
func marshalEntries(entries []form.Entry) (string, error) {
	if entries == nil {
		entries = []form.Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return "", fmt.Errorf("marshal errors: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalEntries(data string) ([]form.Entry, error) {
	entries := []form.Entry{}
	if data == "" || data == "[]" {
		return entries, nil
	}
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	return entries, nil
}
