package form

import (
	"net/http"

	"github.com/roach88/formflow/internal/params"
)

// Dispatch is handed to the element that received the event.
type Dispatch struct {
	// Form is the dispatching form.
	Form *Form

	// Submission is the materialized request.
	Submission *params.Submission

	// Event is the submitted event kind; empty when none was sent.
	Event string

	submit bool
}

// Submit asks the form to run a full submit after the element returns.
func (d *Dispatch) Submit() { d.submit = true }

// SubmitRequested reports whether Submit was called.
func (d *Dispatch) SubmitRequested() bool { return d.submit }

// Result describes how one dispatch call ended.
type Result struct {
	Resolution Resolution
	Target     Element
	Event      string
	Submitted  bool
	Valid      bool
	Code       params.ErrorCode
	Err        error
	Status     *Status
	Received   int64
}

// Outcome returns the event type the dispatch emitted.
func (r *Result) Outcome() EventType {
	if r.Resolution == ResolutionRejected || (r.Submitted && !r.Valid) {
		return EventFailed
	}
	return EventDone
}

// Dispatch handles one inbound submission.
//
// Teardown runs on every exit path, including a panicking listener: the
// parameter view is emptied and every upload no element claimed is deleted.
// Request errors never escape; they end in EventFailed with the code set.
func (f *Form) Dispatch(r *http.Request) *Result {
	f.hasFired = false
	f.submittedValid = false
	f.status = nil
	f.lastCode = params.NoError

	sub, err := params.Materialize(r, f.materializeOptions())
	sub.Logger = f.logger
	f.sub = sub
	defer f.teardown(sub)

	res := &Result{Code: sub.Code, Received: sub.Received}
	if err != nil {
		code := params.CodeOf(err)
		f.lastCode = code
		res.Resolution = ResolutionRejected
		res.Code = code
		res.Err = err
		f.logger.Warn("request rejected", "code", code, "error", err)
		f.emit(Event{Type: EventFailed, Resolution: res.Resolution, Code: code})
		return res
	}
	f.lastCode = sub.Code

	targetID, hasTarget := sub.Get(KeyDispatchTarget)
	event, hasEvent := sub.Get(KeyDispatchEvent)
	res.Event = event

	ev := &evaluator{sub: sub, find: finder{id: targetID}}
	parents := Walk(f.root, ev)

	d := &Dispatch{Form: f, Submission: sub, Event: event}
	var source Element

	switch {
	case !hasTarget && !hasEvent && f.defaultSubmit != nil:
		res.Resolution = ResolutionImplicit
		source = f.defaultSubmit
		source.Dispatch(d)
		d.Submit()

	case hasTarget && f.live(targetID, ev.find.found) != nil:
		res.Resolution = ResolutionDispatch
		source = ev.find.found
		source.Dispatch(d)

	default:
		// Crawlers and resubmissions of an already re-rendered form end up
		// here. Degrade to an implicit submit instead of failing the request.
		res.Resolution = ResolutionUnresolved
		f.logger.Warn("dispatch target not resolved, treating as implicit submit",
			"target", targetID, "event", event)
		if f.defaultSubmit != nil {
			source = f.defaultSubmit
			source.Dispatch(d)
		}
		d.Submit()
	}
	res.Target = source

	if d.SubmitRequested() {
		res.Submitted = true
		res.Status, res.Valid = f.submit()
		f.status = res.Status
		f.submittedValid = res.Valid
	} else {
		res.Valid = true
	}

	f.evaluateRulesFor(source, parents)

	f.emit(Event{
		Type:       res.Outcome(),
		Source:     source,
		Resolution: res.Resolution,
		Submitted:  res.Submitted,
		Valid:      res.Valid,
		Code:       res.Code,
		Status:     res.Status,
	})
	return res
}

// live returns found if it is what the registry holds for id.
func (f *Form) live(id string, found Element) Element {
	if found == nil {
		return nil
	}
	el, ok := f.registry.Resolve(id)
	if !ok || el != found {
		return nil
	}
	return found
}

// submit runs the validate pass and the business rules. Both always run so
// that every field error and business error surfaces in one round trip.
func (f *Form) submit() (*Status, bool) {
	st := NewStatus()
	Walk(f.root, &validator{status: st})
	fieldsValid := st.Valid()

	businessValid := true
	if f.business != nil {
		businessValid = f.business(f, st)
	}
	return st, fieldsValid && businessValid && st.Valid()
}

// evaluateRulesFor re-evaluates the rules of source's nearest container.
// Without a source the root's rules are evaluated.
func (f *Form) evaluateRulesFor(source Element, parents Parents) {
	c := f.root
	if source != nil {
		if p := parents[source]; p != nil {
			c = p
		} else if sc, ok := asContainer(source); ok {
			c = sc
		}
	}
	c.EvaluateRules(source)
}

func (f *Form) teardown(sub *params.Submission) {
	f.sub = nil
	if err := sub.Close(); err != nil {
		f.logger.Error("teardown failed", "error", err)
	}
}
