// Package corvid is a small web framework built over net/http whose core
// is an endpoint signature resolver and invocation pipeline: handler
// functions declare their parameters and return type using the typed
// markers in this package (Path, Query, Header, Cookie, Body, Form,
// Union, Empty, SSE), and corvid uses reflection at route-registration
// time to build a decode/validate/encode plan for each one. Request-time
// dispatch never reflects again — it walks the plan built at setup.
//
// The resolver (pkg/signature), the per-request dependency graph
// (pkg/di), the request/response runtime (pkg/endpoint), the router
// (pkg/router), and the RFC 9457 problem mapper (pkg/problem) are the
// subsystems that do the actual work; this package is the thin surface
// applications import to declare endpoints and dependencies.
package corvid
