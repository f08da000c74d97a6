package params

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// streamProcessor reads a multipart body part by part. Nothing is buffered
// beyond the current part; file parts go straight to the arena.
type streamProcessor struct {
	opts         Options
	view         *View
	arena        *Arena
	remain       int64
	fieldsRemain int64
	parts        int
	received     int64
	sawEmpty     bool
}

func (p *streamProcessor) run(r *http.Request) error {
	mr, err := r.MultipartReader()
	if err != nil {
		return newRequestError(MalformedRequest, "opening multipart stream", err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return newRequestError(MalformedRequest, "reading next part", err)
		}
		p.parts++
		if p.parts > p.opts.partLimit() {
			part.Close()
			return newRequestError(MalformedRequest,
				fmt.Sprintf("body exceeds %d parts", p.opts.partLimit()), nil)
		}
		err = p.handle(part)
		part.Close()
		if err != nil {
			return err
		}
	}
}

func (p *streamProcessor) handle(part *multipart.Part) error {
	field := part.FormName()
	if field == "" {
		// Parts without a form name carry nothing an element can read.
		_, err := io.Copy(io.Discard, part)
		return readError(err, "draining unnamed part")
	}

	filename, isFile := declaredFilename(part)
	if !isFile {
		return p.handleField(field, part)
	}
	if !p.opts.Multipart {
		_, err := io.Copy(io.Discard, part)
		return readError(err, "draining file part")
	}
	return p.handleFile(field, filename, part)
}

func (p *streamProcessor) handleField(field string, part *multipart.Part) error {
	limit := min(p.opts.fieldLimit(), p.fieldsRemain)
	data, err := io.ReadAll(io.LimitReader(part, limit+1))
	if err != nil {
		return readError(err, fmt.Sprintf("reading field %q", field))
	}
	if int64(len(data)) > limit {
		if limit < p.opts.fieldLimit() {
			return newRequestError(UploadLimitExceeded,
				fmt.Sprintf("fields exceed %d bytes in total", p.opts.fieldsLimit()), nil)
		}
		return newRequestError(UploadLimitExceeded, fmt.Sprintf("field %q exceeds %d bytes", field, limit), nil)
	}
	p.fieldsRemain -= int64(len(data))
	p.view.Add(field, norm.NFC.String(string(data)))
	return nil
}

func (p *streamProcessor) handleFile(field, filename string, part *multipart.Part) error {
	u, f, err := p.arena.create(field)
	if err != nil {
		return newRequestError(GeneralRequestError, "creating temporary upload", err)
	}
	discard := func() {
		f.Close()
		_ = os.Remove(u.path)
	}

	// One byte past the remaining budget is enough to detect overflow.
	n, err := io.CopyN(f, part, p.remain+1)
	if err != nil && !errors.Is(err, io.EOF) {
		discard()
		return readError(err, fmt.Sprintf("streaming file %q", field))
	}
	if n > p.remain {
		discard()
		return newRequestError(UploadLimitExceeded,
			fmt.Sprintf("upload %q exceeds limit of %d KB", field, p.opts.uploadLimit()/1024), nil)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(u.path)
		return newRequestError(GeneralRequestError, "closing temporary upload", err)
	}

	p.remain -= n
	p.received += n

	if n == 0 || filename == "" {
		_ = os.Remove(u.path)
		if n == 0 {
			p.sawEmpty = true
		}
		return nil
	}

	u.Filename = filename
	u.ContentType = part.Header.Get("Content-Type")
	u.Size = n
	p.arena.register(u)
	p.view.Add(field, filename)
	return nil
}

// declaredFilename reports the sanitized filename and whether the part was
// declared as a file at all. An empty filename="" still marks a file part.
func declaredFilename(part *multipart.Part) (string, bool) {
	_, dparams, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return "", false
	}
	name, ok := dparams["filename"]
	if !ok {
		return "", false
	}
	return SanitizeFilename(name), true
}

// SanitizeFilename strips any directory component from a client-declared
// filename, whichever separator style the client used.
func SanitizeFilename(name string) string {
	name = norm.NFC.String(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}

func readError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return newRequestError(MalformedRequest, msg, err)
	}
	return newRequestError(GeneralRequestError, msg, err)
}
