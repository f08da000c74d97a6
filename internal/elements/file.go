package elements

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/formflow/internal/form"
	"github.com/roach88/formflow/internal/params"
)

// File is an upload input.
//
// When an upload arrives and Dir is set, the element claims it into
// Dir/<uuid>/<filename>, replacing any file it claimed before. A claimed
// file that fails validation is deleted again. Without Dir the upload is
// left to the arena and deleted at teardown.
type File struct {
	form.Base
	Required bool
	MaxKB    int64
	Accept   []string
	Dir      string

	path        string
	owned       string
	filename    string
	contentType string
	size        int64
}

// NewFile creates a file input that keeps uploads under dir.
func NewFile(name, dir string) *File {
	return &File{Base: form.NewBase(name, "file"), Dir: dir}
}

// Path returns where the claimed file lives, or "".
func (f *File) Path() string { return f.path }

// Filename returns the sanitized client filename.
func (f *File) Filename() string { return f.filename }

// ContentType returns the client-declared content type.
func (f *File) ContentType() string { return f.contentType }

// Size returns the claimed file size in bytes.
func (f *File) Size() int64 { return f.size }

// Display implements form.Displayer.
func (f *File) Display() string { return f.filename }

// Empty implements form.Valued.
func (f *File) Empty() bool { return f.path == "" }

// Pull implements form.Element.
func (f *File) Pull(sub *params.Submission) {
	u, ok := sub.Uploads.Upload(f.Name())
	if !ok || f.Dir == "" {
		return
	}
	f.discard()
	dest := filepath.Join(f.Dir, uuid.NewString(), u.Filename)
	if err := u.Claim(dest); err != nil {
		_ = os.Remove(filepath.Dir(dest))
		sub.Log().Warn("file element could not claim upload", "element", f.Name(), "error", err)
		return
	}
	f.path = dest
	f.owned = dest
	f.filename = u.Filename
	f.contentType = u.ContentType
	f.size = u.Size
}

// MoveTo relocates the claimed file, for screens that persist it elsewhere.
// The element no longer deletes a moved file.
func (f *File) MoveTo(dest string) error {
	if f.path == "" {
		return fmt.Errorf("file element %q holds no upload", f.Name())
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.Rename(f.path, dest); err != nil {
		return err
	}
	if f.owned != "" {
		_ = os.Remove(filepath.Dir(f.owned))
		f.owned = ""
	}
	f.path = dest
	return nil
}

// Dispatch implements form.Element.
func (f *File) Dispatch(*form.Dispatch) {}

// Validate implements form.Element. A file that fails is deleted.
func (f *File) Validate(st *form.Status) {
	if f.path == "" {
		if f.Required {
			st.Add(f, ErrRequired)
		}
		return
	}
	if f.MaxKB > 0 && f.size > f.MaxKB*1024 {
		st.Add(f, ErrFileTooLarge, strconv.FormatInt(f.MaxKB, 10))
		f.discard()
		return
	}
	if len(f.Accept) > 0 && !f.accepts(f.contentType) {
		st.Add(f, ErrMimeType, strings.Join(f.Accept, ","))
		f.discard()
	}
}

// accepts matches exact types and "type/*" wildcards.
func (f *File) accepts(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	for _, a := range f.Accept {
		a = strings.ToLower(a)
		if a == ct {
			return true
		}
		if prefix, ok := strings.CutSuffix(a, "/*"); ok && strings.HasPrefix(ct, prefix+"/") {
			return true
		}
	}
	return false
}

// Reset implements form.Element. The claimed file is deleted.
func (f *File) Reset() { f.discard() }

// discard deletes the file the element claimed itself. Moved files are
// left alone.
func (f *File) discard() {
	if f.owned != "" {
		_ = os.Remove(f.owned)
		_ = os.Remove(filepath.Dir(f.owned))
	}
	f.path = ""
	f.owned = ""
	f.filename = ""
	f.contentType = ""
	f.size = 0
}
