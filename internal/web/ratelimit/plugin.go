package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/corvid-http/corvid/pkg/plugin"
	"github.com/corvid-http/corvid/pkg/problem"
)

// Plugin builds a plugin.Plugin that enforces limiter against every
// request it wraps, keyed by keyFunc. This is the reference
// implementation of the rate-limit plugin contract corvid's core leaves
// undefined — applications register their own limiter (in-memory,
// Redis-backed, or otherwise) as a pkg/di dependency and pass it here,
// rather than the framework picking a backend for them.
func Plugin(limiter RateLimiter, keyFunc func(*http.Request) string) plugin.Plugin {
	if keyFunc == nil {
		keyFunc = IPKeyFunc
	}
	return func(_ plugin.EndpointInfo, next plugin.Handler) plugin.Handler {
		return func(ctx context.Context, req any) (any, error) {
			r := plugin.HTTPRequest(ctx)
			if r == nil {
				return next(ctx, req)
			}

			info, err := limiter.Allow(ctx, keyFunc(r))
			if err != nil {
				return next(ctx, req)
			}

			if w := plugin.HTTPResponseWriter(ctx); w != nil {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			}

			if !info.Allowed {
				return nil, &tooManyRequestsProblem{resetAt: info.ResetAt}
			}
			return next(ctx, req)
		}
	}
}

// IPKeyFunc extracts the remote address as the rate-limit key.
func IPKeyFunc(r *http.Request) string {
	return r.RemoteAddr
}

type tooManyRequestsProblem struct {
	resetAt time.Time
}

func (e *tooManyRequestsProblem) Error() string       { return "rate limit exceeded" }
func (e *tooManyRequestsProblem) ProblemType() string { return "too-many-requests" }
func (e *tooManyRequestsProblem) ProblemTitle() string { return "Too Many Requests" }
func (e *tooManyRequestsProblem) ProblemStatus() int   { return http.StatusTooManyRequests }
func (e *tooManyRequestsProblem) ProblemHeaders() http.Header {
	return http.Header{"Retry-After": []string{fmt.Sprintf("%d", e.resetAt.Unix())}}
}

var (
	_ problem.HTTPProblem = (*tooManyRequestsProblem)(nil)
	_ problem.Headers     = (*tooManyRequestsProblem)(nil)
)
