// Package plugin implements the endpoint-wrapping composition model
// described in spec.md §4.4: a Plugin wraps a Handler in another
// Handler, plugins compose in onion order (the first-added plugin runs
// outermost), and re-adding an already-applied plugin (by identity) is a
// no-op rather than double-wrapping. Grounded on the teacher's
// middleware chain in internal/web/middleware/chain.go, generalized from
// http.Handler wrapping to corvid's typed Handler.
package plugin

import (
	"context"
	"reflect"
)

// EndpointInfo is the read-only endpoint metadata a Plugin may inspect
// when deciding how to wrap a handler (route path, method, declared
// request/response types). It intentionally exposes no mutable state;
// plugins that need per-request state get it through the dependency
// graph instead.
type EndpointInfo struct {
	RoutePath   string
	Method      string
	IsWebSocket bool
}

// Handler is the terminal or intermediate unit a Plugin wraps: given a
// context and the raw decoded request value, produce a response value or
// an error. req and resp are boxed as any because handlers are generic
// over the request/response types the corvid root package defines; the
// endpoint runtime type-asserts them back before and after plugin
// invocation.
type Handler func(ctx context.Context, req any) (any, error)

// Plugin wraps a Handler in another Handler.
type Plugin func(info EndpointInfo, next Handler) Handler

// Chain composes plugins in onion order: the first plugin in the slice
// is the outermost wrapper, so it observes the request first and the
// response last, matching the teacher's chain.Then semantics.
func Chain(info EndpointInfo, plugins []Plugin, terminal Handler) Handler {
	h := terminal
	for i := len(plugins) - 1; i >= 0; i-- {
		h = plugins[i](info, h)
	}
	return h
}

// Merge appends additional plugins onto base, skipping any plugin
// already present by function identity (spec.md's "adding an
// already-registered plugin again is a no-op").
func Merge(base []Plugin, additional ...Plugin) []Plugin {
	out := make([]Plugin, len(base), len(base)+len(additional))
	copy(out, base)
	seen := make(map[uintptr]bool, len(base))
	for _, p := range base {
		seen[funcIdentity(p)] = true
	}
	for _, p := range additional {
		id := funcIdentity(p)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, p)
	}
	return out
}

func funcIdentity(p Plugin) uintptr {
	return reflect.ValueOf(p).Pointer()
}
