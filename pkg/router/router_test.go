package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corvid-http/corvid/pkg/problem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRegistersRouteAndDispatches(t *testing.T) {
	r := New("/api", problem.NewMapper(false))
	r.Handle(http.MethodGet, "/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(PathParam(req, "id")))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/items/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "42", rec.Body.String())
	require.Len(t, r.GetRoutes(), 1)
	assert.Equal(t, "/api/items/{id}", r.GetRoutes()[0].Pattern)
}

func TestUnmatchedRouteReturnsProblemJSON(t *testing.T) {
	r := New("", problem.NewMapper(false))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestUpgradeMethodRegistersAsWebSocketGet(t *testing.T) {
	r := New("", problem.NewMapper(false))
	r.Handle("UPGRADE", "/ws", func(w http.ResponseWriter, req *http.Request) {})

	require.Len(t, r.GetRoutes(), 1)
	assert.True(t, r.GetRoutes()[0].IsWebSocket)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusNotFound, rec.Code)
}
