package problem

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveTaxonomyType(t *testing.T) {
	m := NewMapper(false)
	err := NewConflict("resource already booked")

	detail, headers := m.Solve(nil, err)
	assert.Equal(t, http.StatusConflict, detail.Status)
	assert.Equal(t, "conflict", detail.Type)
	assert.Nil(t, headers)
}

func TestSolveFallsBackTo500(t *testing.T) {
	m := NewMapper(false)
	detail, _ := m.Solve(nil, assertErr("boom"))
	assert.Equal(t, http.StatusInternalServerError, detail.Status)
	assert.Equal(t, "internal server error", detail.Detail)
}

func TestSolveVerboseFallback(t *testing.T) {
	m := NewMapper(true)
	detail, _ := m.Solve(nil, assertErr("boom"))
	assert.Equal(t, "boom", detail.Detail)
}

func TestInvalidRequestErrorsAggregatesAllFailures(t *testing.T) {
	var ire InvalidRequestErrors
	ire.Add("InvalidParamValue", "body", "name", "too short")
	ire.Add("InvalidParamValue", "body", "age", "must be >= 0")
	ire.Add("InvalidParamValue", "body", "email", "must contain @")

	require.True(t, ire.HasErrors())
	assert.Len(t, ire.Errors, 3)

	m := NewMapper(false)
	detail, _ := m.Solve(nil, &ire)
	assert.Equal(t, http.StatusUnprocessableEntity, detail.Status)
	entries := detail.Members["errors"].([]map[string]any)
	assert.Len(t, entries, 3)
}

func TestWriteJSONSetsProblemContentType(t *testing.T) {
	m := NewMapper(false)
	detail, _ := m.Solve(nil, NewNotFound("/missing"))

	w := httptest.NewRecorder()
	WriteJSON(w, detail)

	assert.Equal(t, "application/problem+json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKebabType(t *testing.T) {
	assert.Equal(t, "invalid-token", KebabType("InvalidTokenError"))
	assert.Equal(t, "not-found", KebabType("NotFound"))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
