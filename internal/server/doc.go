// Package server serves compiled forms over HTTP.
//
// Routes:
//
//	GET  /forms/{name}        render the form and return its snapshot
//	POST /forms/{name}        dispatch a submission, then re-render
//	POST /forms/{name}/reset  reset the form, then re-render
//	GET  /metrics             Prometheus metrics
//	GET  /healthz             liveness
//
// Each form is one live instance guarded by its own mutex, so dispatches
// against the same form are serialized while different forms proceed in
// parallel. Every response carries a fresh render: ids from earlier
// responses stop resolving.
package server
