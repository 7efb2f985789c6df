package di

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// StartSingletons constructs every registered Singleton node in
// dependency order, per spec.md §3's "Singleton nodes instantiate at
// application start". A construction failure propagates verbatim and
// does not fall through silently, per spec.md §8's boundary behavior for
// "exception raised inside a resource generator before yield".
func (g *Graph) StartSingletons(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	boot := g.NewScope(ctx, logger)
	defer boot.Close()

	var order []Key
	visited := make(map[Key]bool)
	var visit func(Key) error
	visit = func(k Key) error {
		if visited[k] {
			return nil
		}
		n, ok := g.nodes[k]
		if !ok {
			return nil
		}
		visited[k] = true
		for _, dep := range n.deps {
			if _, isNode := g.nodes[dep]; isNode {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		order = append(order, k)
		return nil
	}
	for k, n := range g.nodes {
		if n.lifetime == Singleton {
			if err := visit(k); err != nil {
				return err
			}
		}
	}

	for _, k := range order {
		n := g.nodes[k]
		if n.lifetime != Singleton {
			continue
		}
		// resolveOne only serves Singletons from the cache, so each one is
		// built as a boot-scope Reused node and then published to the cache.
		n.lifetime = Reused
		v, err := boot.resolveOne(k)
		n.lifetime = Singleton
		if err != nil {
			return fmt.Errorf("di: singleton %s failed to start: %w", k, err)
		}
		g.mtx.Lock()
		g.singletons[k] = v.Interface()
		g.mtx.Unlock()
	}
	// Singleton exit callbacks (registered as boot's OnExit entries) are
	// transplanted to the graph's shutdown stack rather than run now.
	g.shutdownExits = append(g.shutdownExits, boot.exits...)
	boot.exits = nil
	return nil
}

// Shutdown releases every started singleton resource, in reverse
// construction order, per spec.md §3's "release at shutdown".
func (g *Graph) Shutdown() []error {
	var errs []error
	for i := len(g.shutdownExits) - 1; i >= 0; i-- {
		if err := g.shutdownExits[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
