// Package harness runs form scenarios: scripted sequences of renders,
// submits and resets against a form built from CUE definitions.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: profile_required_username
//	description: "Saving without a username fails validation"
//	forms: ../forms
//	form: profile
//	steps:
//	  - action: render
//	  - action: submit
//	    target: save
//	    fields: { username: "" }
//	    expect:
//	      resolution: dispatch
//	      outcome: failed
//	      errors: [username]
//	  - action: reset
//	assertions:
//	  - type: event_order
//	    events: [failed, reset]
//	  - type: element_state
//	    element: username
//	    value: ""
//
// The forms path is resolved relative to the scenario file. A submit step
// names its target element; the harness looks up the element's dispatch id
// in the most recent render. target_id sends a literal id instead, which is
// how stale or forged ids are exercised.
//
// # Assertion Types
//
//   - event_count: the trace holds exactly count events of a type
//   - event_order: the given event types appear in order (gaps allowed)
//   - element_state: an element's value, visibility, enablement or error
//
// # Determinism
//
// Every run builds a fresh form with sequential dispatch ids ("id-1",
// "id-2", ...) and journals into an in-memory database, so the trace of a
// scenario is identical across runs and can be compared to a golden file.
package harness
