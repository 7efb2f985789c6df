package problem

import (
	"net/http"
	"strings"
)

// RequestErrorDetail is one failed-parameter entry, per spec.md §4.6:
// {type, location, param, message}.
type RequestErrorDetail struct {
	Type     string `json:"type"`
	Location string `json:"location"`
	Param    string `json:"param"`
	Message  string `json:"message"`
}

// InvalidRequestErrors aggregates every parameter failure for one request
// into a single 422 response, per spec.md §4.2's "validation errors do
// not raise until all parameters are attempted" and §8's completeness
// property: "if K parameters are invalid, the response details list
// contains exactly K entries".
type InvalidRequestErrors struct {
	Errors []RequestErrorDetail
}

func (e *InvalidRequestErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, d := range e.Errors {
		msgs[i] = d.Location + "." + d.Param + ": " + d.Message
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

func (e *InvalidRequestErrors) Add(typ, location, param, message string) {
	e.Errors = append(e.Errors, RequestErrorDetail{Type: typ, Location: location, Param: param, Message: message})
}

func (e *InvalidRequestErrors) HasErrors() bool { return len(e.Errors) > 0 }

func (e *InvalidRequestErrors) ProblemType() string  { return "invalid-request-errors" }
func (e *InvalidRequestErrors) ProblemTitle() string { return "Invalid Request Parameters" }
func (e *InvalidRequestErrors) ProblemStatus() int   { return http.StatusUnprocessableEntity }

// ToDetail renders the full aggregate as one problem Detail, carrying the
// individual failures under the "errors" extra member.
func (e *InvalidRequestErrors) ToDetail() Detail {
	members := make([]map[string]any, len(e.Errors))
	for i, d := range e.Errors {
		members[i] = map[string]any{
			"type":     d.Type,
			"location": d.Location,
			"param":    d.Param,
			"message":  d.Message,
		}
	}
	return Detail{
		Type:   e.ProblemType(),
		Title:  e.ProblemTitle(),
		Status: e.ProblemStatus(),
		Detail: e.Error(),
		Members: map[string]any{
			"errors": members,
		},
	}
}
