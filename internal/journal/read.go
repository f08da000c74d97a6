package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/formflow/internal/form"
	"github.com/roach88/formflow/internal/params"
)

// Filter narrows List. Zero values match everything.
type Filter struct {
	Form     string
	AfterSeq int64
	Limit    int
}

// List returns records in seq order.
//
// Returns an empty slice (not nil) if nothing matches.
func (j *Journal) List(ctx context.Context, f Filter) ([]Record, error) {
	query := `
		SELECT seq, form, type, resolution, source, submitted, valid, code, errors
		FROM events
		WHERE seq > ? AND (? = '' OR form = ?)
		ORDER BY seq ASC
	`
	args := []any{f.AfterSeq, f.Form, f.Form}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

// Count returns the number of records per event type for a form, or for
// all forms when name is empty.
func (j *Journal) Count(ctx context.Context, name string) (map[form.EventType]int, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT type, COUNT(*)
		FROM events
		WHERE ? = '' OR form = ?
		GROUP BY type
	`, name, name)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[form.EventType]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[form.EventType(typ)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		r                     Record
		typ, resolution, code string
		errorsJSON            string
	)
	if err := rows.Scan(&r.Seq, &r.Form, &typ, &resolution, &r.Source,
		&r.Submitted, &r.Valid, &code, &errorsJSON); err != nil {
		return Record{}, fmt.Errorf("scan event: %w", err)
	}
	entries, err := unmarshalEntries(errorsJSON)
	if err != nil {
		return Record{}, fmt.Errorf("event %d: %w", r.Seq, err)
	}
	r.Type = form.EventType(typ)
	r.Resolution = form.Resolution(resolution)
	r.Code = params.ErrorCode(code)
	r.Errors = entries
	return r, nil
}
