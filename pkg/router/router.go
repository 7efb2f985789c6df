// Package router wraps chi to dispatch onto endpoint.Endpoint-bound
// handlers instead of bare http.HandlerFunc, folds 404/405 into the
// problem taxonomy, and treats "UPGRADE" as a synthetic HTTP method for
// WebSocket endpoints. Grounded on the teacher's internal/web/router
// package, generalized from raw net/http registration to corvid's typed
// endpoint pipeline.
package router

import (
	"net/http"
	"strings"

	"github.com/corvid-http/corvid/pkg/problem"
	"github.com/go-chi/chi/v5"
)

// RouteInfo describes one registered route for introspection, per
// spec.md's requirement that the router expose its route table.
type RouteInfo struct {
	Method      string
	Pattern     string
	IsWebSocket bool
}

// Router wraps a chi.Mux, dispatching every registered route through a
// uniform http.HandlerFunc supplied by the endpoint runtime.
type Router struct {
	mux    chi.Router
	prefix string
	mapper *problem.Mapper

	registered []RouteInfo
}

// New creates a Router. apiPrefix is prepended to every registered
// pattern (spec.md's server.api_prefix); mapper resolves 404/405 into
// RFC 9457 problem details.
func New(apiPrefix string, mapper *problem.Mapper) *Router {
	r := &Router{
		mux:    chi.NewRouter(),
		prefix: strings.TrimSuffix(apiPrefix, "/"),
		mapper: mapper,
	}
	r.mux.NotFound(r.notFoundHandler)
	r.mux.MethodNotAllowed(r.methodNotAllowedHandler)
	return r
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Use registers a chi-level (outermost) middleware — reserved for
// process-wide concerns (panic recovery, request-id) that must run even
// before route matching. Endpoint-scoped plugins are applied by the
// endpoint runtime, not here.
func (r *Router) Use(mw func(http.Handler) http.Handler) {
	r.mux.Use(mw)
}

// Handle registers handler for method and routePath (routePath excludes
// the API prefix, which Handle applies). method "UPGRADE" registers a
// GET route flagged as a WebSocket endpoint for introspection purposes;
// chi has no native concept of an upgrade method since the HTTP verb for
// a WebSocket handshake is always GET.
func (r *Router) Handle(method, routePath string, handler http.HandlerFunc) {
	full := r.prefix + routePath
	isWS := method == "UPGRADE"
	chiMethod := method
	if isWS {
		chiMethod = http.MethodGet
	}

	switch chiMethod {
	case http.MethodGet:
		r.mux.Get(full, handler)
	case http.MethodPost:
		r.mux.Post(full, handler)
	case http.MethodPut:
		r.mux.Put(full, handler)
	case http.MethodPatch:
		r.mux.Patch(full, handler)
	case http.MethodDelete:
		r.mux.Delete(full, handler)
	case http.MethodHead:
		r.mux.Head(full, handler)
	case http.MethodOptions:
		r.mux.Options(full, handler)
	default:
		r.mux.Method(chiMethod, full, handler)
	}

	r.registered = append(r.registered, RouteInfo{Method: method, Pattern: full, IsWebSocket: isWS})
}

// GetRoutes returns every registered route, for introspection.
func (r *Router) GetRoutes() []RouteInfo {
	return r.registered
}

// PathParam extracts a chi URL parameter by name from an in-flight
// request, used by the endpoint runtime when binding Path-role fields.
func PathParam(req *http.Request, name string) string {
	return chi.URLParam(req, name)
}

func (r *Router) notFoundHandler(w http.ResponseWriter, req *http.Request) {
	detail, headers := r.mapper.Solve(req, problem.NewNotFound(req.URL.Path))
	problem.WriteHeaders(w, headers)
	problem.WriteJSON(w, detail)
}

func (r *Router) methodNotAllowedHandler(w http.ResponseWriter, req *http.Request) {
	detail, headers := r.mapper.Solve(req, problem.NewMethodNotAllowed(nil))
	problem.WriteHeaders(w, headers)
	problem.WriteJSON(w, detail)
}
