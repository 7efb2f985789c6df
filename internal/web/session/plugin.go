package session

import (
	"context"
	"net/http"
	"time"

	"github.com/corvid-http/corvid/pkg/plugin"
)

// Plugin builds a plugin.Plugin that loads or creates a Session for every
// request it wraps, publishes it in the request context (retrievable with
// GetSession), and persists it back to store after the handler returns.
// Register the backing Store as a Reused-lifetime pkg/di dependency and
// hand it here — Plugin itself holds no state beyond its Config, so the
// same value can wrap every route that needs sessions.
func Plugin(config *Config) plugin.Plugin {
	return func(_ plugin.EndpointInfo, next plugin.Handler) plugin.Handler {
		return func(ctx context.Context, req any) (any, error) {
			r := plugin.HTTPRequest(ctx)
			w := plugin.HTTPResponseWriter(ctx)
			if r == nil || w == nil {
				return next(ctx, req)
			}

			sessionID, sess := loadSession(ctx, r, config)
			if sess == nil {
				var err error
				sessionID, err = generateSessionID()
				if err != nil {
					return nil, err
				}
				ttl := time.Duration(config.MaxAge) * time.Second
				sess = NewSession(sessionID, ttl)
				if err := config.Store.Set(ctx, sessionID, sess, ttl); err != nil {
					return nil, err
				}
			}

			http.SetCookie(w, &http.Cookie{
				Name:     config.CookieName,
				Value:    sessionID,
				Path:     config.CookiePath,
				Domain:   config.CookieDomain,
				MaxAge:   config.MaxAge,
				HttpOnly: config.HttpOnly,
				Secure:   config.Secure,
				SameSite: sameSiteFromString(config.SameSite),
			})

			ctx = context.WithValue(ctx, sessionKey, sess)
			resp, err := next(ctx, req)

			if !sess.destroyed {
				ttl := time.Duration(config.MaxAge) * time.Second
				_ = config.Store.Set(ctx, sessionID, sess, ttl)
			}
			return resp, err
		}
	}
}

func loadSession(ctx context.Context, r *http.Request, config *Config) (string, *Session) {
	cookie, err := r.Cookie(config.CookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	sess, err := config.Store.Get(ctx, cookie.Value)
	if err != nil {
		return "", nil
	}
	return cookie.Value, sess
}
