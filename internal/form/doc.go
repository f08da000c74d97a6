// Package form implements the request-dispatch engine behind every
// interactive screen.
//
// A Form owns a tree of Elements rooted at a Container. One inbound HTTP
// submission is handled by exactly one Dispatch call, which runs a fixed
// sequence of phases:
//
//  1. Materialize: build the parameter view and stage uploads (package params)
//  2. Evaluate: every visible, enabled element pulls its value; the element
//     whose dispatch id was submitted is located in the same walk
//  3. Resolve: implicit submit, explicit dispatch, or unresolved
//  4. Submit (when requested): validate pass plus business rules
//  5. Dependency rules of the dispatched element's container
//  6. Emit exactly one terminal event to the listeners
//  7. Teardown: clear the view, delete unclaimed uploads (always runs)
//
// The walks are one generic traversal (Walk) driven by interchangeable
// Visitor values: evaluator, finder, validator, resetter, renderer and the
// rule pass. Children are visited in insertion order, which keeps identifier
// assignment deterministic across renders.
//
// Everything is synchronous. A Form is not safe for concurrent use; callers
// serialize dispatches per form.
package form
