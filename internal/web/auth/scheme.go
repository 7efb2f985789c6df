// Package auth adapts the teacher's JWT/session/RBAC building blocks
// (jwt.go, authz.go, context.go, rbac.go) into a corvid plugin: a
// precondition that resolves a bearer token into a request-scoped
// identity and rejects the request before the handler runs if none is
// present or valid.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/corvid-http/corvid/pkg/plugin"
	"github.com/corvid-http/corvid/pkg/problem"
)

// Scheme describes an authentication mechanism for OpenAPI-style
// introspection, per spec §6's "authentication marker" — corvid has no
// OpenAPI generator (a stated Non-goal), so Scheme is metadata only,
// published for a future generator to read off a route's plugin set.
type Scheme struct {
	Type   string // "http"
	Scheme string // "bearer", "basic"
}

// BearerAuth builds a plugin.Plugin that validates the Authorization
// header of every request it wraps against svc, storing the resulting
// claims' user ID in the request context via SetCurrentUser. A
// missing or invalid token short-circuits with a 401 and a
// WWW-Authenticate challenge header, per RFC 6750 §3.
func BearerAuth(svc *AuthService) plugin.Plugin {
	return func(_ plugin.EndpointInfo, next plugin.Handler) plugin.Handler {
		return func(ctx context.Context, req any) (any, error) {
			r := plugin.HTTPRequest(ctx)
			if r == nil {
				return next(ctx, req)
			}

			token, err := bearerToken(r)
			if err != nil {
				return nil, unauthorized(ctx, err)
			}

			claims, err := svc.ValidateToken(token)
			if err != nil {
				return nil, unauthorized(ctx, err)
			}

			userID, _ := claims["user_id"].(string)
			ctx = SetCurrentUser(ctx, userID)
			return next(ctx, req)
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("Authorization header is not a Bearer token")
	}
	return parts[1], nil
}

// unauthorizedProblem carries the WWW-Authenticate challenge required by
// RFC 6750 §3 alongside the standard problem taxonomy's Unauthorized type.
type unauthorizedProblem struct {
	cause error
}

func unauthorized(ctx context.Context, cause error) error {
	return &unauthorizedProblem{cause: cause}
}

func (e *unauthorizedProblem) Error() string        { return "unauthorized: " + e.cause.Error() }
func (e *unauthorizedProblem) ProblemType() string   { return "unauthorized" }
func (e *unauthorizedProblem) ProblemTitle() string  { return "Unauthorized" }
func (e *unauthorizedProblem) ProblemStatus() int    { return http.StatusUnauthorized }
func (e *unauthorizedProblem) ProblemHeaders() http.Header {
	return http.Header{"WWW-Authenticate": []string{`Bearer realm="corvid"`}}
}

var _ problem.HTTPProblem = (*unauthorizedProblem)(nil)
var _ problem.Headers = (*unauthorizedProblem)(nil)
