package problem

import (
	"net/http"
	"strconv"
)

// base implements the boilerplate of HTTPProblem for the closed taxonomy
// below (spec.md §7). Each concrete type embeds base and only needs to
// name its type/title/status; this mirrors the teacher's Err* sentinel
// values in internal/web/response/errors.go, generalized from a single
// status-keyed struct into one type per taxonomy entry so per-type
// solver registration (spec.md §4.6) has something concrete to match on.
type base struct {
	typ    string
	title  string
	status int
	detail string
	header http.Header
}

func (b *base) Error() string          { return b.detail }
func (b *base) ProblemType() string    { return b.typ }
func (b *base) ProblemTitle() string   { return b.title }
func (b *base) ProblemStatus() int     { return b.status }
func (b *base) ProblemHeaders() http.Header {
	return b.header
}

func newBase(typ, title string, status int, detail string) *base {
	return &base{typ: typ, title: title, status: status, detail: detail}
}

// Parameter taxonomy (422 unless noted).

type MissingRequestParam struct{ *base }

func NewMissingRequestParam(location, param string) *MissingRequestParam {
	return &MissingRequestParam{newBase("missing-request-param", "Missing Request Parameter", http.StatusUnprocessableEntity,
		"missing required "+location+" parameter: "+param)}
}

type InvalidParamValue struct{ *base }

func NewInvalidParamValue(location, param, reason string) *InvalidParamValue {
	return &InvalidParamValue{newBase("invalid-param-value", "Invalid Parameter Value", http.StatusUnprocessableEntity,
		location+"."+param+": "+reason)}
}

type InvalidJsonReceived struct{ *base }

func NewInvalidJsonReceived(reason string) *InvalidJsonReceived {
	return &InvalidJsonReceived{newBase("invalid-json-received", "Invalid JSON Received", http.StatusUnprocessableEntity, reason)}
}

type InvalidFormError struct{ *base }

func NewInvalidFormError(reason string) *InvalidFormError {
	return &InvalidFormError{newBase("invalid-form-error", "Invalid Form Data", http.StatusUnprocessableEntity, reason)}
}

type UnsupportedMediaType struct{ *base }

func NewUnsupportedMediaType(mediaType string) *UnsupportedMediaType {
	return &UnsupportedMediaType{newBase("unsupported-media-type", "Unsupported Media Type", http.StatusUnsupportedMediaType,
		"unsupported content type: "+mediaType)}
}

type PayloadTooLarge struct{ *base }

func NewPayloadTooLarge(limit int64) *PayloadTooLarge {
	return &PayloadTooLarge{newBase("payload-too-large", "Payload Too Large", http.StatusRequestEntityTooLarge, "request body exceeds limit")}
}

// Routing taxonomy.

type NotFound struct{ *base }

func NewNotFound(path string) *NotFound {
	return &NotFound{newBase("not-found", "Not Found", http.StatusNotFound, "no route matches "+path)}
}

type MethodNotAllowed struct{ *base }

func NewMethodNotAllowed(allowed []string) *MethodNotAllowed {
	b := newBase("method-not-allowed", "Method Not Allowed", http.StatusMethodNotAllowed, "method not allowed")
	h := http.Header{}
	for _, m := range allowed {
		h.Add("Allow", m)
	}
	b.header = h
	return &MethodNotAllowed{b}
}

type NotAcceptable struct{ *base }

func NewNotAcceptable() *NotAcceptable {
	return &NotAcceptable{newBase("not-acceptable", "Not Acceptable", http.StatusNotAcceptable, "no acceptable representation")}
}

// Auth taxonomy.

type Unauthorized struct{ *base }

func NewUnauthorized(scheme string) *Unauthorized {
	b := newBase("unauthorized", "Unauthorized", http.StatusUnauthorized, "authentication required")
	if scheme != "" {
		b.header = http.Header{"WWW-Authenticate": []string{scheme}}
	}
	return &Unauthorized{b}
}

type InvalidToken struct{ *base }

func NewInvalidToken(reason string) *InvalidToken {
	return &InvalidToken{newBase("invalid-token", "Invalid Token", http.StatusUnauthorized, reason)}
}

type Forbidden struct{ *base }

func NewForbidden(reason string) *Forbidden {
	return &Forbidden{newBase("forbidden", "Forbidden", http.StatusForbidden, reason)}
}

// Resource taxonomy.

type Conflict struct{ *base }

func NewConflict(reason string) *Conflict {
	return &Conflict{newBase("conflict", "Conflict", http.StatusConflict, reason)}
}

type Gone struct{ *base }

func NewGone(reason string) *Gone {
	return &Gone{newBase("gone", "Gone", http.StatusGone, reason)}
}

type UnprocessableEntity struct{ *base }

func NewUnprocessableEntity(reason string) *UnprocessableEntity {
	return &UnprocessableEntity{newBase("unprocessable-entity", "Unprocessable Entity", http.StatusUnprocessableEntity, reason)}
}

// Transport taxonomy.

type Timeout struct{ *base }

func NewTimeout() *Timeout {
	return &Timeout{newBase("timeout", "Gateway Timeout", http.StatusGatewayTimeout, "handler timed out")}
}

type TooManyRequests struct{ *base }

func NewTooManyRequests(retryAfterSeconds int) *TooManyRequests {
	b := newBase("too-many-requests", "Too Many Requests", http.StatusTooManyRequests, "rate limit exceeded")
	if retryAfterSeconds > 0 {
		b.header = http.Header{"Retry-After": []string{strconv.Itoa(retryAfterSeconds)}}
	}
	return &TooManyRequests{b}
}

// Server taxonomy.

type Internal struct{ *base }

func NewInternal(detail string) *Internal {
	return &Internal{newBase("internal", "Internal Server Error", http.StatusInternalServerError, detail)}
}

type UnserializableResponse struct{ *base }

func NewUnserializableResponse(reason string) *UnserializableResponse {
	return &UnserializableResponse{newBase("unserializable-response", "Unserializable Response", http.StatusInternalServerError, reason)}
}

type NotImplemented struct{ *base }

func NewNotImplemented(what string) *NotImplemented {
	return &NotImplemented{newBase("not-implemented", "Not Implemented", http.StatusNotImplemented, what)}
}
