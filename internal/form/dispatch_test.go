package form_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formflow/internal/elements"
	"github.com/roach88/formflow/internal/form"
	"github.com/roach88/formflow/internal/ident"
	"github.com/roach88/formflow/internal/params"
	"github.com/roach88/formflow/internal/testutil"
)

type f = testutil.Field

func idOf(t *testing.T, rendered []form.Rendered, name string) string {
	t.Helper()
	for _, r := range rendered {
		if r.Name == name {
			return r.ID
		}
	}
	t.Fatalf("element %q not rendered", name)
	return ""
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

type collected struct {
	events []form.Event
}

func (c *collected) listen(ev form.Event) { c.events = append(c.events, ev) }

func (c *collected) only(t *testing.T) form.Event {
	t.Helper()
	require.Len(t, c.events, 1, "exactly one terminal event expected")
	return c.events[0]
}

// profile builds the end-to-end tree. With SequentialIDs the root is id-1
// and Save is id-7.
type profile struct {
	form       *form.Form
	username   *elements.Text
	avatar     *elements.File
	newsletter *elements.Toggle
	topics     *elements.Select
	cancel     *elements.Button
	save       *elements.Submit
	events     *collected
	tempDir    string
	uploadDir  string
}

func newProfile(t *testing.T, opts ...form.Option) *profile {
	t.Helper()
	p := &profile{
		tempDir:   t.TempDir(),
		uploadDir: t.TempDir(),
		events:    &collected{},
	}
	base := []form.Option{
		form.WithMultipart(true),
		form.WithUploadLimitKB(10 * 1024),
		form.WithTempDir(p.tempDir),
		form.WithSource(testutil.NewSequentialIDs("id-")),
	}
	p.form = form.New("profile", append(base, opts...)...)

	p.username = elements.NewText("username")
	p.username.Required = true
	p.avatar = elements.NewFile("avatar", p.uploadDir)
	p.newsletter = elements.NewToggle("newsletter")
	p.topics = elements.NewSelect("topics", "go", "rust", "zig")
	p.topics.Multiple = true
	p.cancel = elements.NewButton("cancel", nil)
	p.save = elements.NewSubmit("save")

	root := p.form.Root()
	require.NoError(t, root.Add(p.username, p.avatar, p.newsletter, p.topics, p.cancel, p.save))
	require.NoError(t, root.AddRule(form.Rule{
		Trigger: "newsletter", When: form.IsSet, Effect: form.Show, Targets: []string{"topics"},
	}))
	root.EvaluateRules(nil)
	p.form.SetDefaultSubmit(p.save)
	p.form.AddListener(p.events.listen)
	return p
}

func TestDispatch_EndToEnd_MissingUsername(t *testing.T) {
	p := newProfile(t)
	rendered, err := p.form.Render()
	require.NoError(t, err)
	require.Equal(t, "id-7", idOf(t, rendered, "save"))

	req := testutil.NewMultipartRequest(t, "/forms/profile",
		[]f{{Key: form.KeyDispatchTarget, Value: "id-7"}, {Key: "username", Value: ""}}, nil)
	res := p.form.Dispatch(req)

	assert.Equal(t, form.ResolutionDispatch, res.Resolution)
	assert.True(t, res.Submitted)
	assert.False(t, res.Valid)
	assert.Equal(t, []form.Entry{{Element: "username", ID: "id-2", Key: "required"}}, res.Status.Entries())
	assert.Equal(t, params.NoError, res.Code)

	ev := p.events.only(t)
	assert.Equal(t, form.EventFailed, ev.Type)
	assert.Same(t, p.save, ev.Source)

	assert.Equal(t, 0, dirEntries(t, p.tempDir))
	assert.Equal(t, 0, dirEntries(t, p.uploadDir))
	assert.Nil(t, p.form.Submission())
}

func TestDispatch_EndToEnd_AvatarClaimed(t *testing.T) {
	p := newProfile(t)
	_, err := p.form.Render()
	require.NoError(t, err)

	avatar := bytes.Repeat([]byte{0x89}, 40*1024)
	req := testutil.NewMultipartRequest(t, "/forms/profile",
		[]f{{Key: form.KeyDispatchTarget, Value: "id-7"}, {Key: "username", Value: "alice"}},
		[]testutil.File{{Field: "avatar", Filename: "alice.png", ContentType: "image/png", Content: avatar}},
	)
	res := p.form.Dispatch(req)

	assert.Equal(t, form.ResolutionDispatch, res.Resolution)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Status.Entries())
	assert.Equal(t, int64(len(avatar)), res.Received)
	assert.True(t, p.form.SubmittedAndValid())

	assert.Equal(t, form.EventDone, p.events.only(t).Type)

	got := p.avatar.Path()
	assert.Equal(t, "alice.png", filepath.Base(got))
	assert.Equal(t, p.uploadDir, filepath.Dir(filepath.Dir(got)))
	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, avatar, data)
	assert.Equal(t, 0, dirEntries(t, p.tempDir), "temporary storage must be empty after teardown")
}

func TestDispatch_RejectedUploadNotKept(t *testing.T) {
	p := newProfile(t)
	p.avatar.Accept = []string{"image/png"}
	_, err := p.form.Render()
	require.NoError(t, err)

	req := testutil.NewMultipartRequest(t, "/forms/profile",
		[]f{{Key: form.KeyDispatchTarget, Value: "id-7"}, {Key: "username", Value: "alice"}},
		[]testutil.File{{Field: "avatar", Filename: "tool.exe", ContentType: "application/x-msdownload", Content: []byte("MZ")}},
	)
	res := p.form.Dispatch(req)

	assert.True(t, res.Submitted)
	assert.False(t, res.Valid)
	assert.Equal(t, []form.Entry{{Element: "avatar", ID: "id-3", Key: "mimetype", Args: []string{"image/png"}}}, res.Status.Entries())
	assert.True(t, p.avatar.Empty())
	assert.Equal(t, 0, dirEntries(t, p.uploadDir))
	assert.Equal(t, 0, dirEntries(t, p.tempDir))
}

func TestDispatch_ClaimWarningUsesFormLogger(t *testing.T) {
	var buf bytes.Buffer
	p := newProfile(t, form.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	p.avatar.Dir = blocker
	_, err := p.form.Render()
	require.NoError(t, err)

	req := testutil.NewMultipartRequest(t, "/forms/profile",
		[]f{{Key: form.KeyDispatchTarget, Value: "id-7"}, {Key: "username", Value: "alice"}},
		[]testutil.File{{Field: "avatar", Filename: "a.png", ContentType: "image/png", Content: []byte("png")}},
	)
	p.form.Dispatch(req)

	assert.Contains(t, buf.String(), "could not claim upload")
	assert.Contains(t, buf.String(), "form=profile")
}

func TestDispatch_OnlyTargetDispatched(t *testing.T) {
	fm := form.New("many", form.WithSource(testutil.NewSequentialIDs("")))
	var buttons []*elements.Button
	for i := 0; i < 5; i++ {
		b := elements.NewButton(fmt.Sprintf("b%d", i), nil)
		buttons = append(buttons, b)
		require.NoError(t, fm.Root().Add(b))
	}
	for target := range buttons {
		rendered, err := fm.Render()
		require.NoError(t, err)

		id := idOf(t, rendered, buttons[target].Name())
		res := fm.Dispatch(testutil.NewFormRequest(t, "/", []f{{Key: form.KeyDispatchTarget, Value: id}}))
		require.Equal(t, form.ResolutionDispatch, res.Resolution)
		assert.Same(t, buttons[target], res.Target)
		assert.False(t, res.Submitted)

		for i, b := range buttons {
			want := 0
			if i <= target {
				want = 1
			}
			assert.Equal(t, want, b.Clicks(), "button %d after dispatching %d", i, target)
		}
	}
}

func TestDispatch_NonSubmitEmitsDone(t *testing.T) {
	p := newProfile(t)
	rendered, err := p.form.Render()
	require.NoError(t, err)

	res := p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{
		{Key: form.KeyDispatchTarget, Value: idOf(t, rendered, "cancel")},
		{Key: form.KeyDispatchEvent, Value: "click"},
	}))

	assert.Equal(t, form.ResolutionDispatch, res.Resolution)
	assert.Equal(t, "click", res.Event)
	assert.False(t, res.Submitted)
	assert.Nil(t, res.Status)
	assert.Equal(t, 1, p.cancel.Clicks())
	assert.Equal(t, 0, p.save.Clicks())

	ev := p.events.only(t)
	assert.Equal(t, form.EventDone, ev.Type)
	assert.False(t, ev.Submitted)
	assert.True(t, p.form.HasFired())
}

func TestDispatch_ImplicitSubmit(t *testing.T) {
	implicit := newProfile(t)
	_, err := implicit.form.Render()
	require.NoError(t, err)
	resImplicit := implicit.form.Dispatch(testutil.NewFormRequest(t, "/", []f{{Key: "username", Value: ""}}))

	explicit := newProfile(t)
	_, err = explicit.form.Render()
	require.NoError(t, err)
	resExplicit := explicit.form.Dispatch(testutil.NewFormRequest(t, "/", []f{
		{Key: form.KeyDispatchTarget, Value: "id-7"}, {Key: "username", Value: ""},
	}))

	assert.Equal(t, form.ResolutionImplicit, resImplicit.Resolution)
	assert.Equal(t, form.ResolutionDispatch, resExplicit.Resolution)

	assert.Same(t, implicit.save, resImplicit.Target)
	assert.Equal(t, 1, implicit.save.Clicks())
	assert.Equal(t, resExplicit.Submitted, resImplicit.Submitted)
	assert.Equal(t, resExplicit.Valid, resImplicit.Valid)
	assert.Equal(t, resExplicit.Status.Entries(), resImplicit.Status.Entries())
	assert.Equal(t, explicit.events.only(t).Type, implicit.events.only(t).Type)
}

func TestDispatch_EventKeyAloneIsNotImplicit(t *testing.T) {
	p := newProfile(t)
	_, err := p.form.Render()
	require.NoError(t, err)

	res := p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{{Key: form.KeyDispatchEvent, Value: "click"}, {Key: "username", Value: "bob"}}))
	assert.Equal(t, form.ResolutionUnresolved, res.Resolution)
	assert.True(t, res.Submitted)
	assert.True(t, res.Valid)
}

func TestDispatch_StaleIDUnresolved(t *testing.T) {
	p := newProfile(t)
	first, err := p.form.Render()
	require.NoError(t, err)
	stale := idOf(t, first, "cancel")

	_, err = p.form.Render()
	require.NoError(t, err)

	res := p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{
		{Key: form.KeyDispatchTarget, Value: stale}, {Key: "username", Value: "bob"},
	}))

	assert.Equal(t, form.ResolutionUnresolved, res.Resolution)
	assert.Equal(t, 0, p.cancel.Clicks(), "stale id must not reach the element")
	assert.Same(t, p.save, res.Target)
	assert.True(t, res.Submitted)
	assert.True(t, res.Valid)
	assert.Equal(t, form.EventDone, p.events.only(t).Type)
}

func TestDispatch_ForgedIDWithoutDefaultSubmit(t *testing.T) {
	fm := form.New("bare")
	name := elements.NewText("name")
	name.Required = true
	require.NoError(t, fm.Root().Add(name))
	_, err := fm.Render()
	require.NoError(t, err)

	var events collected
	fm.AddListener(events.listen)

	res := fm.Dispatch(testutil.NewFormRequest(t, "/", []f{{Key: form.KeyDispatchTarget, Value: "o_fiforged"}}))
	assert.Equal(t, form.ResolutionUnresolved, res.Resolution)
	assert.Nil(t, res.Target)
	assert.True(t, res.Submitted)
	assert.False(t, res.Valid)
	assert.Equal(t, form.EventFailed, events.only(t).Type)
}

func TestDispatch_DisabledTargetUnresolved(t *testing.T) {
	p := newProfile(t)
	rendered, err := p.form.Render()
	require.NoError(t, err)
	p.cancel.SetEnabled(false)

	res := p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{
		{Key: form.KeyDispatchTarget, Value: idOf(t, rendered, "cancel")}, {Key: "username", Value: "x"},
	}))
	assert.Equal(t, form.ResolutionUnresolved, res.Resolution)
	assert.Equal(t, 0, p.cancel.Clicks())
}

func TestDispatch_RemovedElementUnresolved(t *testing.T) {
	p := newProfile(t)
	rendered, err := p.form.Render()
	require.NoError(t, err)
	require.True(t, p.form.Root().Remove("cancel"))

	res := p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{
		{Key: form.KeyDispatchTarget, Value: idOf(t, rendered, "cancel")}, {Key: "username", Value: "x"},
	}))
	assert.Equal(t, form.ResolutionUnresolved, res.Resolution)
	assert.Equal(t, 0, p.cancel.Clicks())
}

func TestDispatch_ValidationAggregation(t *testing.T) {
	fm := form.New("two")
	first, second := elements.NewText("first"), elements.NewText("second")
	first.Required = true
	second.MaxLength = 3
	save := elements.NewSubmit("save")
	require.NoError(t, fm.Root().Add(first, second, save))
	fm.SetDefaultSubmit(save)
	_, err := fm.Render()
	require.NoError(t, err)

	res := fm.Dispatch(testutil.NewFormRequest(t, "/", []f{{Key: "first", Value: ""}, {Key: "second", Value: "toolong"}}))

	require.Equal(t, 2, res.Status.Len())
	assert.True(t, res.Status.Has("first"))
	assert.True(t, res.Status.Has("second"))
	assert.Equal(t, "maxlength", second.ErrorKey())
	assert.Equal(t, []string{"3"}, second.ErrorArgs())
}

func TestDispatch_BusinessRulesAlwaysRun(t *testing.T) {
	calls := 0
	p := newProfile(t, form.WithBusinessRules(func(fm *form.Form, st *form.Status) bool {
		calls++
		st.AddForm("profile.quota")
		return false
	}))
	_, err := p.form.Render()
	require.NoError(t, err)

	res := p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{{Key: "username", Value: ""}}))

	assert.Equal(t, 1, calls, "business rules must run even when fields fail")
	assert.False(t, res.Valid)
	assert.Equal(t, []form.Entry{
		{Element: "username", ID: "id-2", Key: "required"},
		{Key: "profile.quota"},
	}, res.Status.Entries())
}

func TestDispatch_BusinessRulesCanFailValidFields(t *testing.T) {
	p := newProfile(t, form.WithBusinessRules(func(*form.Form, *form.Status) bool { return false }))
	_, err := p.form.Render()
	require.NoError(t, err)

	res := p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{{Key: "username", Value: "alice"}}))
	assert.False(t, res.Valid)
	assert.Equal(t, form.EventFailed, p.events.only(t).Type)
}

func TestDispatch_HiddenRequiredSkipped(t *testing.T) {
	p := newProfile(t)
	p.username.SetVisible(false)
	_, err := p.form.Render()
	require.NoError(t, err)

	res := p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{{Key: "username", Value: "ignored"}}))
	assert.True(t, res.Valid)
	assert.Equal(t, "", p.username.Value(), "hidden elements do not pull")
}

func TestDispatch_DependencyRuleAfterDispatch(t *testing.T) {
	p := newProfile(t)
	rendered, err := p.form.Render()
	require.NoError(t, err)
	require.False(t, p.topics.Visible())

	res := p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{
		{Key: form.KeyDispatchTarget, Value: idOf(t, rendered, "newsletter")},
		{Key: form.KeyDispatchEvent, Value: "change"},
		{Key: "newsletter", Value: "on"},
	}))
	assert.Equal(t, form.ResolutionDispatch, res.Resolution)
	assert.False(t, res.Submitted)
	assert.True(t, p.topics.Visible())

	// Once visible, topics pulls its values.
	rendered, err = p.form.Render()
	require.NoError(t, err)
	p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{
		{Key: form.KeyDispatchTarget, Value: idOf(t, rendered, "newsletter")},
		{Key: "newsletter", Value: "on"},
		{Key: "topics", Value: "zig"}, {Key: "topics", Value: "go"}, {Key: "topics", Value: "rust"},
	}))
	assert.Equal(t, []string{"zig", "go", "rust"}, p.topics.Selected())
}

func TestDispatch_UploadLimitExceeded(t *testing.T) {
	p := newProfile(t, form.WithUploadLimitKB(1))
	_, err := p.form.Render()
	require.NoError(t, err)

	req := testutil.NewMultipartRequest(t, "/",
		[]f{{Key: form.KeyDispatchTarget, Value: "id-7"}, {Key: "username", Value: "alice"}},
		[]testutil.File{{Field: "avatar", Filename: "big.png", Content: bytes.Repeat([]byte("x"), 4096)}},
	)
	res := p.form.Dispatch(req)

	assert.Equal(t, form.ResolutionRejected, res.Resolution)
	assert.Equal(t, params.UploadLimitExceeded, res.Code)
	assert.Error(t, res.Err)
	assert.Equal(t, params.UploadLimitExceeded, p.form.LastCode())

	ev := p.events.only(t)
	assert.Equal(t, form.EventFailed, ev.Type)
	assert.Equal(t, params.UploadLimitExceeded, ev.Code)
	assert.Equal(t, 0, p.save.Clicks())
	assert.Equal(t, 0, dirEntries(t, p.tempDir))
	assert.Equal(t, 0, dirEntries(t, p.uploadDir))
}

func TestDispatch_EmptyFileFieldIsNotFailure(t *testing.T) {
	p := newProfile(t)
	_, err := p.form.Render()
	require.NoError(t, err)

	req := testutil.NewMultipartRequest(t, "/",
		[]f{{Key: form.KeyDispatchTarget, Value: "id-7"}, {Key: "username", Value: "alice"}},
		[]testutil.File{{Field: "avatar", Filename: ""}},
	)
	res := p.form.Dispatch(req)

	assert.Equal(t, params.EmptyFileField, res.Code)
	assert.True(t, res.Valid)
	assert.Equal(t, form.EventDone, p.events.only(t).Type)
}

func TestDispatch_UnclaimedUploadDeleted(t *testing.T) {
	p := newProfile(t)
	p.avatar.Dir = ""
	_, err := p.form.Render()
	require.NoError(t, err)

	var seen string
	p.form.AddListener(func(ev form.Event) {
		u, ok := ev.Form.Submission().Uploads.Upload("avatar")
		require.True(t, ok)
		seen = u.Path()
		_, statErr := os.Stat(seen)
		assert.NoError(t, statErr, "upload must exist while listeners run")
	})

	req := testutil.NewMultipartRequest(t, "/",
		[]f{{Key: form.KeyDispatchTarget, Value: "id-7"}, {Key: "username", Value: "alice"}},
		[]testutil.File{{Field: "avatar", Filename: "a.png", Content: []byte("png")}},
	)
	p.form.Dispatch(req)

	require.NotEmpty(t, seen)
	_, err = os.Stat(seen)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, dirEntries(t, p.tempDir))
}

func TestDispatch_TeardownAfterListenerPanic(t *testing.T) {
	p := newProfile(t)
	p.avatar.Dir = ""
	_, err := p.form.Render()
	require.NoError(t, err)
	p.form.AddListener(func(form.Event) { panic("listener blew up") })

	req := testutil.NewMultipartRequest(t, "/",
		[]f{{Key: form.KeyDispatchTarget, Value: "id-7"}, {Key: "username", Value: "alice"}},
		[]testutil.File{{Field: "avatar", Filename: "a.png", Content: []byte("png")}},
	)
	assert.Panics(t, func() { p.form.Dispatch(req) })

	assert.Equal(t, 0, dirEntries(t, p.tempDir))
	assert.Nil(t, p.form.Submission())
}

func TestDispatch_ListenerRemoval(t *testing.T) {
	p := newProfile(t)
	_, err := p.form.Render()
	require.NoError(t, err)

	var extra collected
	remove := p.form.AddListener(extra.listen)
	p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{{Key: "username", Value: "a"}}))
	remove()
	p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{{Key: "username", Value: "a"}}))

	assert.Len(t, extra.events, 1)
	assert.Len(t, p.events.events, 2)
}

func TestReset_Idempotent(t *testing.T) {
	p := newProfile(t)
	p.username = p.username.WithDefault("guest")
	_, err := p.form.Render()
	require.NoError(t, err)

	rendered, _ := p.form.Render()
	p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{
		{Key: form.KeyDispatchTarget, Value: idOf(t, rendered, "newsletter")}, {Key: "newsletter", Value: "on"},
	}))
	p.form.Dispatch(testutil.NewFormRequest(t, "/", []f{
		{Key: "username", Value: ""}, {Key: "newsletter", Value: "on"}, {Key: "topics", Value: "go"},
	}))
	require.True(t, p.username.HasError())
	require.True(t, p.topics.Visible())

	snapshot := func() []form.Rendered {
		out, err := p.form.Render()
		require.NoError(t, err)
		for i := range out {
			out[i].ID = ""
		}
		return out
	}

	p.form.Reset()
	once := snapshot()
	p.form.Reset()
	twice := snapshot()

	assert.Equal(t, once, twice)
	assert.Equal(t, "guest", p.username.Value())
	assert.False(t, p.username.HasError())
	assert.False(t, p.newsletter.On())
	assert.False(t, p.topics.Visible(), "rules re-evaluated after reset")
	assert.Empty(t, p.topics.Selected())

	last := p.events.events[len(p.events.events)-1]
	assert.Equal(t, form.EventReset, last.Type)
}

func TestRender_FreshIDsEveryRender(t *testing.T) {
	fm := form.New("f")
	require.NoError(t, fm.Root().Add(elements.NewText("a"), elements.NewText("b")))

	first, err := fm.Render()
	require.NoError(t, err)
	second, err := fm.Render()
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, r := range append(first, second...) {
		assert.False(t, seen[r.ID], "id %s reused", r.ID)
		seen[r.ID] = true
	}
	_, ok := fm.Resolve(first[1].ID)
	assert.False(t, ok)
	el, ok := fm.Resolve(second[1].ID)
	require.True(t, ok)
	assert.Equal(t, "a", el.Name())
}

func TestRender_Paths(t *testing.T) {
	fm := form.New("f", form.WithSource(testutil.NewSequentialIDs("")))
	group := form.NewContainer("address")
	require.NoError(t, group.Add(elements.NewText("street")))
	require.NoError(t, fm.Root().Add(elements.NewText("name"), group, elements.NewSubmit("save")))

	out, err := fm.Render()
	require.NoError(t, err)

	var paths []string
	for _, r := range out {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"f", "f/name", "f/address", "f/address/street", "f/save"}, paths)
}

func TestRender_ReplayDeterministic(t *testing.T) {
	build := func(replay *ident.ReplayRegistry) *form.Form {
		fm := form.New("f", form.WithScreen("course.Editor"), form.WithReplay(replay))
		require.NoError(t, fm.Root().Add(elements.NewText("title"), elements.NewSubmit("save")))
		return fm
	}

	ids := func() []string {
		fm := build(ident.NewReplayRegistry(0, 0))
		var out []string
		for i := 0; i < 2; i++ {
			rendered, err := fm.Render()
			require.NoError(t, err)
			for _, r := range rendered {
				out = append(out, r.ID)
			}
		}
		return out
	}

	assert.Equal(t, ids(), ids())
	assert.Equal(t, []string{
		"o_ficourseEditor_1_1", "o_ficourseEditor_1_2", "o_ficourseEditor_1_3",
		"o_ficourseEditor_2_1", "o_ficourseEditor_2_2", "o_ficourseEditor_2_3",
	}, ids())
}

func TestRender_ReplayExhausted(t *testing.T) {
	fm := form.New("f", form.WithReplay(ident.NewReplayRegistry(10, 2)))
	require.NoError(t, fm.Root().Add(elements.NewText("a"), elements.NewText("b")))

	_, err := fm.Render()
	require.Error(t, err)
	assert.True(t, ident.IsReplayExhausted(err))
}
