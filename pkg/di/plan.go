package di

import (
	"fmt"
	"reflect"
)

// Plan is the setup-time-computed, topologically sorted list of nodes an
// endpoint transitively depends on. It is computed once per endpoint and
// reused for every request that endpoint serves, matching spec.md §4.3's
// "for each endpoint signature, topologically sort its transitive
// dependencies" — no re-sorting happens at request time.
type Plan struct {
	order  []Key // dependency-first order; entering resources in this order and exiting in reverse is correct
	scoped bool
}

// Scoped reports whether any node in the plan is resource-like or the
// caller explicitly requested a scope, per spec.md §3's "endpoint whose
// transitive dependency set contains a resource-like node is marked
// scoped = true".
func (p *Plan) Scoped() bool { return p.scoped }

// ErrCycle is returned when the dependency graph contains a cycle,
// detected at setup time rather than at request time (spec.md §3).
type ErrCycle struct {
	Path []Key
}

func (e *ErrCycle) Error() string {
	msg := "di: dependency cycle detected: "
	for i, k := range e.Path {
		if i > 0 {
			msg += " -> "
		}
		msg += k.String()
	}
	return msg
}

// Compile computes the resolution plan for a set of root types an
// endpoint's request struct declares as Dependency-role fields.
// forceScoped implements the "scoped=True opt-in forces a child resolver
// even without resources" resolution to the open question in spec.md §9.
func (g *Graph) Compile(rootTypes []reflect.Type, forceScoped bool) (*Plan, error) {
	visited := make(map[Key]int) // 0=unvisited 1=in-progress 2=done
	var order []Key
	var path []Key
	scoped := forceScoped

	var visit func(k Key) error
	visit = func(k Key) error {
		switch visited[k] {
		case 2:
			return nil
		case 1:
			cyclePath := append(append([]Key{}, path...), k)
			return &ErrCycle{Path: cyclePath}
		}
		n, ok := g.nodes[k]
		if !ok {
			return fmt.Errorf("di: no provider registered for %s", k)
		}
		visited[k] = 1
		path = append(path, k)
		for _, dep := range n.deps {
			if _, isNode := g.nodes[dep]; !isNode {
				continue // primitive/context dependency, not graph-managed
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		visited[k] = 2
		order = append(order, k)
		if n.isResource {
			scoped = true
		}
		return nil
	}

	for _, t := range rootTypes {
		k := Key{Type: t}
		if _, ok := g.nodes[k]; !ok {
			continue // not a graph-managed dependency (primitive/plugin/etc)
		}
		if err := visit(k); err != nil {
			return nil, err
		}
	}

	return &Plan{order: order, scoped: scoped}, nil
}
