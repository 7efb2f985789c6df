package plugin

import (
	"context"
	"net/http"
)

// ctxKey namespaces context values this package injects; unexported so
// only this package's own accessors can read them back.
type ctxKey int

const (
	requestCtxKey ctxKey = iota
	writerCtxKey
)

// WithHTTP stores the raw request/response writer pair on ctx so FromHTTP
// plugins (and corvid's http.Request/http.ResponseWriter primitives) can
// recover them. The endpoint runtime calls this once per request before
// invoking the plugin chain.
func WithHTTP(ctx context.Context, w http.ResponseWriter, r *http.Request) context.Context {
	ctx = context.WithValue(ctx, writerCtxKey, w)
	ctx = context.WithValue(ctx, requestCtxKey, r)
	return ctx
}

// HTTPRequest recovers the *http.Request stashed by WithHTTP.
func HTTPRequest(ctx context.Context) *http.Request {
	r, _ := ctx.Value(requestCtxKey).(*http.Request)
	return r
}

// HTTPResponseWriter recovers the http.ResponseWriter stashed by WithHTTP.
func HTTPResponseWriter(ctx context.Context) http.ResponseWriter {
	w, _ := ctx.Value(writerCtxKey).(http.ResponseWriter)
	return w
}

// FromHTTP adapts a func(http.Handler) http.Handler middleware — the
// shape every middleware in the teacher's internal/web/middleware
// package uses — into a Plugin. It runs the middleware around a bridge
// http.Handler that re-enters the typed handler chain; anything the
// middleware writes to the ResponseWriter before calling next (headers,
// short-circuit responses) takes effect exactly as it would in a plain
// net/http server, and anything it does after next returns (e.g.
// request-id or access logging) also runs, since the bridge blocks until
// the typed chain below it has produced a result.
//
// A middleware that short-circuits (never calls next) causes the
// wrapped Handler to report ErrShortCircuited; the endpoint runtime
// treats that as "the middleware already wrote the response" and skips
// its own response encoding.
func FromHTTP(mw func(http.Handler) http.Handler) Plugin {
	return func(info EndpointInfo, next Handler) Handler {
		return func(ctx context.Context, req any) (any, error) {
			w := HTTPResponseWriter(ctx)
			r := HTTPRequest(ctx)
			if w == nil || r == nil {
				// No HTTP context (e.g. a unit test driving the handler
				// directly): fall through without the adapted middleware.
				return next(ctx, req)
			}

			var (
				resp    any
				err     error
				invoked bool
			)
			bridge := http.HandlerFunc(func(_ http.ResponseWriter, r2 *http.Request) {
				invoked = true
				resp, err = next(r2.Context(), req)
			})
			mw(bridge).ServeHTTP(w, r.WithContext(ctx))

			if !invoked {
				return nil, ErrShortCircuited
			}
			return resp, err
		}
	}
}

// ErrShortCircuited is returned by a FromHTTP-adapted Plugin when the
// wrapped middleware never called through to the next handler.
var ErrShortCircuited = shortCircuitError{}

type shortCircuitError struct{}

func (shortCircuitError) Error() string { return "plugin: middleware short-circuited the request" }
