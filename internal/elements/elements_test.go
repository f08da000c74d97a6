package elements

import (
	"bytes"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formflow/internal/form"
	"github.com/roach88/formflow/internal/params"
	"github.com/roach88/formflow/internal/testutil"
)

func submission(t *testing.T, req *http.Request) *params.Submission {
	t.Helper()
	sub, err := params.Materialize(req, params.Options{Multipart: true, TempDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	return sub
}

func fields(t *testing.T, kv ...testutil.Field) *params.Submission {
	t.Helper()
	return submission(t, testutil.NewFormRequest(t, "/", kv))
}

func TestText_PullAbsentKeepsValue(t *testing.T) {
	txt := NewText("name").WithDefault("x")
	txt.Pull(fields(t, testutil.Field{Key: "other", Value: "y"}))
	assert.Equal(t, "x", txt.Value())

	txt.Pull(fields(t, testutil.Field{Key: "name", Value: "alice"}))
	assert.Equal(t, "alice", txt.Value())

	txt.Reset()
	assert.Equal(t, "x", txt.Value())
}

func TestText_Validate(t *testing.T) {
	tests := []struct {
		name     string
		required bool
		max      int
		value    string
		wantKey  string
	}{
		{"required empty", true, 0, "", ErrRequired},
		{"required blank", true, 0, "   ", ErrRequired},
		{"required ok", true, 0, "a", ""},
		{"max ok", false, 3, "abc", ""},
		{"max exceeded", false, 3, "abcd", ErrMaxLength},
		{"max counts runes", false, 3, "äöü", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txt := NewText("t")
			txt.Required = tt.required
			txt.MaxLength = tt.max
			txt.SetValue(tt.value)

			st := form.NewStatus()
			txt.Validate(st)
			if tt.wantKey == "" {
				assert.True(t, st.Valid())
				return
			}
			require.Equal(t, 1, st.Len())
			assert.Equal(t, tt.wantKey, st.Entries()[0].Key)
			assert.Equal(t, tt.wantKey, txt.ErrorKey())
		})
	}
}

func TestToggle_Pull(t *testing.T) {
	tg := NewToggle("t")
	tg.Pull(fields(t, testutil.Field{Key: "t", Value: "on"}))
	assert.True(t, tg.On())
	assert.True(t, form.IsSet(tg))

	tg.Pull(fields(t))
	assert.True(t, tg.On(), "absent key leaves the state unchanged")

	tg.Pull(fields(t, testutil.Field{Key: "t", Value: "off"}))
	assert.False(t, tg.On())
	assert.True(t, form.IsUnset(tg))
}

func TestSelect_PullFiltersAndOrders(t *testing.T) {
	s := NewSelect("s", "a", "b", "c")
	s.Multiple = true
	s.Pull(fields(t,
		testutil.Field{Key: "s", Value: "c"},
		testutil.Field{Key: "s", Value: "a"},
		testutil.Field{Key: "s", Value: "c"},
	))
	assert.Equal(t, []string{"c", "a"}, s.Selected())

	st := form.NewStatus()
	s.Validate(st)
	assert.True(t, st.Valid())
}

func TestSelect_SingleKeepsFirst(t *testing.T) {
	s := NewSelect("s", "a", "b")
	s.Pull(fields(t, testutil.Field{Key: "s", Value: "b"}, testutil.Field{Key: "s", Value: "a"}))
	assert.Equal(t, []string{"b"}, s.Selected())
}

func TestSelect_UnknownOptionInvalid(t *testing.T) {
	s := NewSelect("s", "a")
	s.Pull(fields(t, testutil.Field{Key: "s", Value: "evil"}))

	st := form.NewStatus()
	s.Validate(st)
	require.Equal(t, 1, st.Len())
	assert.Equal(t, ErrInvalidOption, st.Entries()[0].Key)

	s.Reset()
	st = form.NewStatus()
	s.Validate(st)
	assert.True(t, st.Valid())
}

func TestSelect_Required(t *testing.T) {
	s := NewSelect("s", "a")
	s.Required = true
	st := form.NewStatus()
	s.Validate(st)
	assert.Equal(t, ErrRequired, s.ErrorKey())
}

// storedFiles lists the regular files under dir, relative to it.
func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		out = append(out, rel)
		return err
	})
	require.NoError(t, err)
	return out
}

func uploadRequest(t *testing.T, filename, ct string, content []byte) *http.Request {
	return testutil.NewMultipartRequest(t, "/", nil, []testutil.File{
		{Field: "doc", Filename: filename, ContentType: ct, Content: content},
	})
}

func TestFile_ClaimsIntoDir(t *testing.T) {
	dir := t.TempDir()
	fe := NewFile("doc", dir)
	sub := submission(t, uploadRequest(t, "../report.pdf", "application/pdf", []byte("%PDF")))

	fe.Pull(sub)
	require.NoError(t, sub.Close())

	assert.Equal(t, "report.pdf", filepath.Base(fe.Path()))
	assert.Equal(t, dir, filepath.Dir(filepath.Dir(fe.Path())))
	assert.Equal(t, "report.pdf", fe.Filename())
	assert.Equal(t, "application/pdf", fe.ContentType())
	assert.Equal(t, int64(4), fe.Size())
	_, err := os.Stat(fe.Path())
	assert.NoError(t, err)

	fe.Reset()
	assert.True(t, fe.Empty())
	assert.Empty(t, storedFiles(t, dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFile_ReplacesPreviousClaim(t *testing.T) {
	dir := t.TempDir()
	fe := NewFile("doc", dir)

	fe.Pull(submission(t, uploadRequest(t, "one.txt", "", []byte("1"))))
	fe.Pull(submission(t, uploadRequest(t, "two.txt", "", []byte("2"))))

	got := storedFiles(t, dir)
	require.Len(t, got, 1)
	assert.Equal(t, "two.txt", filepath.Base(got[0]))
}

func TestFile_SameFilenameDoesNotCollide(t *testing.T) {
	dir := t.TempDir()
	a := NewFile("doc", dir)
	b := NewFile("doc", dir)

	a.Pull(submission(t, uploadRequest(t, "avatar.png", "image/png", []byte("first"))))
	b.Pull(submission(t, uploadRequest(t, "avatar.png", "image/png", []byte("second"))))

	require.NotEqual(t, a.Path(), b.Path())
	assert.Len(t, storedFiles(t, dir), 2)
	first, err := os.ReadFile(a.Path())
	require.NoError(t, err)
	assert.Equal(t, "first", string(first))
	second, err := os.ReadFile(b.Path())
	require.NoError(t, err)
	assert.Equal(t, "second", string(second))
}

func TestFile_ClaimFailureLogsThroughSubmission(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	fe := NewFile("doc", blocker)

	var buf bytes.Buffer
	sub := submission(t, uploadRequest(t, "a.txt", "", []byte("a")))
	sub.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	fe.Pull(sub)

	assert.True(t, fe.Empty())
	assert.Contains(t, buf.String(), "could not claim upload")
	assert.Contains(t, buf.String(), "element=doc")
}

func TestFile_MoveTo(t *testing.T) {
	dir := t.TempDir()
	fe := NewFile("doc", dir)
	assert.Error(t, fe.MoveTo(filepath.Join(t.TempDir(), "x")))

	fe.Pull(submission(t, uploadRequest(t, "a.txt", "", []byte("a"))))
	dest := filepath.Join(t.TempDir(), "store", "a.txt")
	require.NoError(t, fe.MoveTo(dest))
	assert.Equal(t, dest, fe.Path())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	fe.Reset()
	_, err = os.Stat(dest)
	assert.NoError(t, err, "moved file belongs to the caller")
}

func TestFile_Validate(t *testing.T) {
	t.Run("required", func(t *testing.T) {
		fe := NewFile("doc", t.TempDir())
		fe.Required = true
		st := form.NewStatus()
		fe.Validate(st)
		assert.Equal(t, ErrRequired, fe.ErrorKey())
	})

	upload := func(t *testing.T, fe *File, ct string, size int) {
		fe.Pull(submission(t, uploadRequest(t, "f.bin", ct, make([]byte, size))))
	}

	t.Run("too large", func(t *testing.T) {
		dir := t.TempDir()
		fe := NewFile("doc", dir)
		fe.MaxKB = 1
		upload(t, fe, "image/png", 2048)
		st := form.NewStatus()
		fe.Validate(st)
		assert.Equal(t, ErrFileTooLarge, fe.ErrorKey())
		assert.Equal(t, []string{"1"}, fe.ErrorArgs())
		assert.True(t, fe.Empty())
		assert.Empty(t, storedFiles(t, dir))
	})

	t.Run("wildcard accept", func(t *testing.T) {
		dir := t.TempDir()
		fe := NewFile("doc", dir)
		fe.Accept = []string{"image/*"}
		upload(t, fe, "image/png; charset=binary", 10)
		st := form.NewStatus()
		fe.Validate(st)
		assert.True(t, st.Valid())
		assert.Len(t, storedFiles(t, dir), 1)
	})

	t.Run("rejected type", func(t *testing.T) {
		dir := t.TempDir()
		fe := NewFile("doc", dir)
		fe.Accept = []string{"image/png", "image/jpeg"}
		upload(t, fe, "application/x-msdownload", 10)
		st := form.NewStatus()
		fe.Validate(st)
		assert.Equal(t, ErrMimeType, fe.ErrorKey())
		assert.True(t, fe.Empty())
		assert.Empty(t, storedFiles(t, dir))
	})
}

func TestSubmit_RequestsSubmit(t *testing.T) {
	s := NewSubmit("save")
	d := &form.Dispatch{}
	s.Dispatch(d)
	assert.True(t, d.SubmitRequested())
	assert.Equal(t, 1, s.Clicks())
}

func TestButton_RunsCallbackWithoutSubmit(t *testing.T) {
	var got string
	b := NewButton("b", func(d *form.Dispatch) { got = d.Event })
	d := &form.Dispatch{Event: "click"}
	b.Dispatch(d)

	assert.Equal(t, "click", got)
	assert.False(t, d.SubmitRequested())
	assert.Equal(t, 1, b.Clicks())
}
