package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Scope is a per-request lifetime. It memoizes Reused/Scoped node
// instances for the duration of one request and holds the explicit LIFO
// exit stack that guarantees resource release on every exit path —
// success, handler panic/exception, or context cancellation — per
// spec.md §4.3 and Design Note §9's "prefer an arena-of-exits... over
// relying on language-level scoped acquisition".
type Scope struct {
	ctx    context.Context
	graph  *Graph
	logger *zap.Logger

	mu       sync.Mutex
	instances map[Key]any
	exits    []func() error // LIFO: appended in entry order, drained in reverse
	closed   bool
}

// NewScope opens a fresh child resolver for one request. The caller must
// call Close exactly once, before the response finishes writing (spec.md
// §4.4 step 7).
func (g *Graph) NewScope(ctx context.Context, logger *zap.Logger) *Scope {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scope{
		ctx:       ctx,
		graph:     g,
		logger:    logger,
		instances: make(map[Key]any),
	}
}

// OnExit registers an additional exit callback to run when the scope
// closes, per spec.md §4.3's "a user may register additional exit
// callbacks via an injected scope handle".
func (s *Scope) OnExit(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exits = append(s.exits, fn)
}

// Close drains the exit stack in strict LIFO order. Exit errors are
// logged and suppressed — spec.md §7's "resource exits that raise are
// logged and suppressed; the original in-flight response takes
// precedence" — and Close never returns an error for that reason; it
// returns the count of exits that failed, for tests to assert on.
func (s *Scope) Close() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.closed = true

	failures := 0
	for i := len(s.exits) - 1; i >= 0; i-- {
		if err := s.exits[i](); err != nil {
			failures++
			s.logger.Error("dependency exit failed", zap.Error(err))
		}
	}
	return failures
}

// resolveOne resolves (constructing if necessary) a single node's value
// within this scope, applying its declared lifetime.
func (s *Scope) resolveOne(k Key) (reflect.Value, error) {
	n, ok := s.graph.nodes[k]
	if !ok {
		return reflect.Value{}, fmt.Errorf("di: no provider registered for %s", k)
	}

	switch n.lifetime {
	case Singleton:
		s.graph.mu().Lock()
		v, ok := s.graph.singletons[k]
		s.graph.mu().Unlock()
		if ok {
			return reflect.ValueOf(v), nil
		}
		return reflect.Value{}, fmt.Errorf("di: singleton %s was not constructed at startup", k)
	case Reused, Scoped:
		s.mu.Lock()
		if v, ok := s.instances[k]; ok {
			s.mu.Unlock()
			return reflect.ValueOf(v), nil
		}
		s.mu.Unlock()
	}

	args := make([]reflect.Value, len(n.deps))
	for i, dep := range n.deps {
		if _, isNode := s.graph.nodes[dep]; !isNode {
			// Primitive dependency (context.Context, *Scope, etc) that the
			// graph does not manage: the constructor receives its zero value.
			args[i] = reflect.Zero(dep.Type)
			continue
		}
		v, err := s.resolveOne(dep)
		if err != nil {
			return reflect.Value{}, err
		}
		args[i] = v
	}

	call := n.ctorValue.Call
	if n.cpuBound {
		call = func(in []reflect.Value) []reflect.Value {
			return s.graph.pool.run(s.ctx, n.ctorValue, in)
		}
	}
	out := call(args)

	var value reflect.Value
	var release reflect.Value
	var errVal reflect.Value
	if len(out) == 3 {
		value, release, errVal = out[0], out[1], out[2]
	} else {
		value, errVal = out[0], out[1]
	}
	if !errVal.IsNil() {
		return reflect.Value{}, errVal.Interface().(error)
	}

	if n.isResource && !release.IsNil() {
		fn := release.Interface().(func() error)
		s.OnExit(fn)
	}

	switch n.lifetime {
	case Singleton:
		s.graph.mu().Lock()
		s.graph.singletons[k] = value.Interface()
		s.graph.mu().Unlock()
	case Reused, Scoped:
		s.mu.Lock()
		s.instances[k] = value.Interface()
		s.mu.Unlock()
	}

	return value, nil
}

// Resolve resolves every key in the plan's dependency-first order and
// returns their values keyed by type, for the endpoint runtime to slot
// into the bound argument struct.
func (s *Scope) Resolve(plan *Plan) (map[Key]reflect.Value, error) {
	values := make(map[Key]reflect.Value, len(plan.order))
	for _, k := range plan.order {
		v, err := s.resolveOne(k)
		if err != nil {
			return nil, err
		}
		values[k] = v
	}
	return values, nil
}
