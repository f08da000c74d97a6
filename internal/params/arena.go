package params

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Upload is one staged file part of a multipart submission.
//
// The bytes live in a temporary file owned by the Arena that created it.
// An element that wants to keep the file must Claim it before the dispatch
// call ends; anything unclaimed is deleted when the arena is closed.
type Upload struct {
	// Field is the form key the part was submitted under.
	Field string

	// Filename is the sanitized client-declared filename.
	Filename string

	// ContentType is the client-declared content type. It is metadata only.
	ContentType string

	// Size is the number of bytes written.
	Size int64

	path    string
	claimed string
	arena   *Arena
}

// Path returns where the bytes currently are: the temp file before Claim,
// the destination afterwards.
func (u *Upload) Path() string {
	if u.claimed != "" {
		return u.claimed
	}
	return u.path
}

// Claimed reports whether the upload was moved out of the arena.
func (u *Upload) Claimed() bool {
	return u.claimed != ""
}

// Open opens the staged bytes for reading.
func (u *Upload) Open() (io.ReadCloser, error) {
	return os.Open(u.Path())
}

// Claim moves the staged file to dest and removes it from cleanup.
// Parent directories of dest are created as needed.
func (u *Upload) Claim(dest string) error {
	if u.arena == nil || u.arena.closed {
		return errors.New("claim after teardown")
	}
	if u.claimed != "" {
		return fmt.Errorf("upload %q already claimed to %s", u.Field, u.claimed)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("claim upload: %w", err)
	}
	if err := os.Rename(u.path, dest); err != nil {
		// Rename fails across filesystems; fall back to copy + remove.
		if cerr := copyFile(u.path, dest); cerr != nil {
			return fmt.Errorf("claim upload: %w", cerr)
		}
		_ = os.Remove(u.path)
	}
	u.claimed = dest
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Arena owns every Upload created during one dispatch call.
// Close deletes whatever was not claimed; it runs exactly once.
type Arena struct {
	dir     string
	uploads []*Upload
	closed  bool
}

// NewArena creates an arena staging files under dir.
// An empty dir means os.TempDir().
func NewArena(dir string) *Arena {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Arena{dir: dir}
}

// create allocates a collision-free temp file for a part of field.
// The caller registers the upload once the copy succeeds and removes the file
// otherwise.
func (a *Arena) create(field string) (*Upload, *os.File, error) {
	name := filepath.Join(a.dir, "formflow-upload-"+uuid.NewString())
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	u := &Upload{Field: field, path: name, arena: a}
	return u, f, nil
}

// register makes u visible to elements.
func (a *Arena) register(u *Upload) {
	a.uploads = append(a.uploads, u)
}

// Upload returns the first upload submitted under field.
func (a *Arena) Upload(field string) (*Upload, bool) {
	for _, u := range a.uploads {
		if u.Field == field {
			return u, true
		}
	}
	return nil, false
}

// Uploads returns every upload submitted under field, in submission order.
func (a *Arena) Uploads(field string) []*Upload {
	var out []*Upload
	for _, u := range a.uploads {
		if u.Field == field {
			out = append(out, u)
		}
	}
	return out
}

// All returns every registered upload.
func (a *Arena) All() []*Upload {
	out := make([]*Upload, len(a.uploads))
	copy(out, a.uploads)
	return out
}

// Close deletes every unclaimed upload. Calling Close again is a no-op.
func (a *Arena) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	var err error
	for _, u := range a.uploads {
		if u.claimed != "" {
			continue
		}
		if rerr := os.Remove(u.path); rerr != nil && !os.IsNotExist(rerr) {
			err = multierr.Append(err, rerr)
		}
	}
	a.uploads = nil
	return err
}
