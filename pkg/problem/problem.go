// Package problem implements the RFC 9457 "problem details" error
// taxonomy and mapper described in spec.md §4.6/§7. It generalizes the
// teacher's status-keyed ErrorResponse (internal/web/response/errors.go)
// into the standard {type, title, status, detail, instance, ...} wire
// shape, keyed by exception (Go: error) type as well as by status.
package problem

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
)

// Detail is one RFC 9457 problem details document.
type Detail struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Members  map[string]any `json:"-"`
}

// MarshalJSON folds Members into the top-level object, per spec.md §6's
// "{type, title, status, detail, instance, [extra members]}".
func (d Detail) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":   d.Type,
		"title":  d.Title,
		"status": d.Status,
	}
	if d.Detail != "" {
		m["detail"] = d.Detail
	}
	if d.Instance != "" {
		m["instance"] = d.Instance
	}
	for k, v := range d.Members {
		m[k] = v
	}
	return json.Marshal(m)
}

// HTTPProblem is implemented by any error type that wants specific
// control over its problem-details rendering. Errors that don't
// implement it are rendered by the Mapper as a generic 500 "internal"
// problem; their type name is not used.
type HTTPProblem interface {
	error
	ProblemType() string
	ProblemTitle() string
	ProblemStatus() int
}

// Headers is optionally implemented by an HTTPProblem to propagate
// additional response headers (e.g. WWW-Authenticate, Allow, Retry-After).
type Headers interface {
	ProblemHeaders() http.Header
}

// Solver renders a final HTTPProblem-derived Detail (and any headers) for
// a given error. r may be nil when solving outside of a request.
type Solver func(r *http.Request, err error) (Detail, http.Header)

// Mapper holds the per-type and per-status solver dictionaries and
// resolves them in spec.md §4.6's fixed order: exact type -> nearest
// registered base -> status code -> fallback (500).
type Mapper struct {
	perType   map[reflect.Type]Solver
	perStatus map[int]Solver
	verbose   bool
}

// NewMapper creates a Mapper with the built-in taxonomy registered.
func NewMapper(verbose bool) *Mapper {
	m := &Mapper{
		perType:   make(map[reflect.Type]Solver),
		perStatus: make(map[int]Solver),
		verbose:   verbose,
	}
	registerBuiltins(m)
	return m
}

// RegisterType installs a solver for errors matching (via errors.As) the
// concrete type of sample.
func (m *Mapper) RegisterType(sample error, solver Solver) {
	m.perType[reflect.TypeOf(sample)] = solver
}

// RegisterStatus installs a fallback solver for a given status code.
func (m *Mapper) RegisterStatus(status int, solver Solver) {
	m.perStatus[status] = solver
}

// Solve resolves err into a wire-ready Detail and header set.
func (m *Mapper) Solve(r *http.Request, err error) (Detail, http.Header) {
	if err == nil {
		return Detail{Status: http.StatusOK}, nil
	}

	// Exact type.
	t := reflect.TypeOf(err)
	if solver, ok := m.perType[t]; ok {
		return solver(r, err)
	}

	// Nearest registered base, walking the error chain.
	for cause := err; cause != nil; cause = errors.Unwrap(cause) {
		if solver, ok := m.perType[reflect.TypeOf(cause)]; ok {
			return solver(r, err)
		}
	}

	if hp, ok := err.(HTTPProblem); ok {
		if solver, ok := m.perStatus[hp.ProblemStatus()]; ok {
			return solver(r, err)
		}
		return defaultSolve(hp)
	}

	return m.fallback(err)
}

func defaultSolve(hp HTTPProblem) (Detail, http.Header) {
	d := Detail{
		Type:   hp.ProblemType(),
		Title:  hp.ProblemTitle(),
		Status: hp.ProblemStatus(),
		Detail: hp.Error(),
	}
	var headers http.Header
	if hh, ok := hp.(Headers); ok {
		headers = hh.ProblemHeaders()
	}
	return d, headers
}

func (m *Mapper) fallback(err error) (Detail, http.Header) {
	detail := "internal server error"
	if m.verbose {
		detail = err.Error()
	}
	return Detail{
		Type:   "internal",
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: detail,
	}, nil
}

// WriteJSON writes d as application/problem+json, per spec.md §6.
func WriteJSON(w http.ResponseWriter, d Detail) {
	w.Header().Set("Content-Type", "application/problem+json; charset=utf-8")
	w.WriteHeader(d.Status)
	_ = json.NewEncoder(w).Encode(d)
}

// WriteHeaders copies each header value from headers onto w, ahead of
// WriteJSON (which calls WriteHeader and thus freezes the header map).
func WriteHeaders(w http.ResponseWriter, headers http.Header) {
	for k, values := range headers {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
}

var kebabPattern = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// KebabType derives a problem "type" member from a Go type name, per
// spec.md's "type is derived from the exception class name in kebab
// form unless explicitly overridden".
func KebabType(name string) string {
	name = strings.TrimSuffix(name, "Error")
	s := kebabPattern.ReplaceAllString(name, "$1-$2")
	return strings.ToLower(s)
}
