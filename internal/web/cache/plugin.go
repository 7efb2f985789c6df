package cache

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/corvid-http/corvid/pkg/plugin"
)

// Plugin builds a plugin.Plugin that memoizes a GET endpoint's JSON
// response in store for ttl, keyed by the request URL. This is the
// reference implementation of the caching-plugin contract corvid's core
// leaves undefined: applications register their own Cache (in-memory or
// Redis-backed) as a pkg/di dependency and hand it here rather than the
// framework choosing a backend.
func Plugin(store Cache, ttl time.Duration) plugin.Plugin {
	return func(_ plugin.EndpointInfo, next plugin.Handler) plugin.Handler {
		return func(ctx context.Context, req any) (any, error) {
			r := plugin.HTTPRequest(ctx)
			if r == nil || r.Method != http.MethodGet {
				return next(ctx, req)
			}

			key := r.URL.String()
			if cached, err := store.Get(ctx, key); err == nil {
				var value any
				if json.Unmarshal(cached, &value) == nil {
					return value, nil
				}
			}

			resp, err := next(ctx, req)
			if err != nil {
				return nil, err
			}

			if encoded, err := json.Marshal(resp); err == nil {
				_ = store.Set(ctx, key, encoded, ttl)
			}
			return resp, nil
		}
	}
}
