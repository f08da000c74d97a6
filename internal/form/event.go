package form

import "github.com/roach88/formflow/internal/params"

// EventType is the kind of terminal notification a form emits.
type EventType string

const (
	// EventDone fires when a dispatch completed and, if a submit ran, the
	// form was valid.
	EventDone EventType = "done"

	// EventFailed fires when a submit found the form invalid or when the
	// request itself could not be read.
	EventFailed EventType = "failed"

	// EventReset fires after an explicit Reset.
	EventReset EventType = "reset"
)

// Resolution is the branch a dispatch call took.
type Resolution string

const (
	// ResolutionImplicit: no target and no event key; the default submit
	// element was treated as clicked.
	ResolutionImplicit Resolution = "implicit"

	// ResolutionDispatch: the target id resolved to a live element.
	ResolutionDispatch Resolution = "dispatch"

	// ResolutionUnresolved: a stale, forged or missing id. Handled the same
	// way as an implicit submit.
	ResolutionUnresolved Resolution = "unresolved"

	// ResolutionRejected: the request could not be materialized; no element
	// was evaluated.
	ResolutionRejected Resolution = "rejected"
)

// Event is delivered to every listener exactly once per dispatch or reset.
type Event struct {
	Type       EventType
	Form       *Form
	Source     Element
	Resolution Resolution
	Submitted  bool
	Valid      bool
	Code       params.ErrorCode
	Status     *Status
}

// Listener receives form events. Listeners run synchronously before
// teardown, so they may still claim uploads through the form's submission.
type Listener func(Event)

type listenerEntry struct {
	fn Listener
}

// AddListener registers l and returns a func that removes it again.
func (f *Form) AddListener(l Listener) (remove func()) {
	e := &listenerEntry{fn: l}
	f.listeners = append(f.listeners, e)
	return func() {
		for i, x := range f.listeners {
			if x == e {
				f.listeners = append(f.listeners[:i:i], f.listeners[i+1:]...)
				return
			}
		}
	}
}

func (f *Form) emit(ev Event) {
	ev.Form = f
	f.hasFired = true
	// Listeners may remove themselves while being notified.
	ls := make([]*listenerEntry, len(f.listeners))
	copy(ls, f.listeners)
	for _, l := range ls {
		l.fn(ev)
	}
}
