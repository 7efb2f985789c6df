// Package di implements the per-request dependency graph described in
// spec.md §4.3: a registry of factories with declared lifetimes, a
// setup-time topological planner, and a request-time resolver that
// unwinds resource-like dependencies in strict LIFO order on every exit
// path. Go has no native generator/yield or async-context-manager
// syntax, so a "resource" here is a constructor with a second return
// value — a release callback — rather than a generator that yields once;
// see Scope for the guaranteed-release machinery this implies (Design
// Note in SPEC_FULL.md §4.3).
package di

import (
	"fmt"
	"reflect"
	"sync"
)

// Lifetime is the scoping discipline a node's instances follow.
type Lifetime int

const (
	// Singleton nodes are constructed once at application start and
	// released at shutdown.
	Singleton Lifetime = iota
	// Reused nodes are memoized once per scope. Every request runs in its
	// own scope, so a Reused node is built once per request; there is no
	// process-wide cache for Reused nodes.
	Reused
	// Transient nodes are constructed fresh on every resolution.
	Transient
	// Scoped is an alias for Reused used by resource-like nodes to make
	// call sites read naturally; it carries identical semantics to Reused.
	Scoped
)

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Reused:
		return "reused"
	case Transient:
		return "transient"
	case Scoped:
		return "scoped"
	default:
		return "unknown"
	}
}

// Key identifies a node in the graph: either the return type of its
// constructor, or an explicit string name for keyed registrations
// (multiple implementations of the same interface).
type Key struct {
	Type reflect.Type
	Name string
}

func (k Key) String() string {
	if k.Name != "" {
		return fmt.Sprintf("%s(%s)", k.Type, k.Name)
	}
	return k.Type.String()
}

// node is one registered factory.
type node struct {
	key        Key
	lifetime   Lifetime
	ctorValue  reflect.Value
	ctorType   reflect.Type
	deps       []Key
	isResource bool // ctor's second return value is a func() error release callback
	cpuBound   bool
}

// Graph is the process-wide registry of dependency nodes. It is safe for
// concurrent registration during application setup and is frozen (read
// only) once the first endpoint plan is compiled, per spec.md §3's
// "process-wide mutable state... frozen after setup".
type Graph struct {
	nodes  map[Key]*node
	frozen bool

	mtx        sync.Mutex
	singletons map[Key]any
	reusedOnce map[Key]any // allocated by New; resolution does not read or write it

	pool          *workerPool
	shutdownExits []func() error
}

// mu exposes the graph's singleton-cache mutex to Scope.
func (g *Graph) mu() *sync.Mutex { return &g.mtx }

// New creates an empty dependency graph with the given bounded worker
// pool size for CPU-bound synchronous resource producers (spec.md §4.3,
// "synchronous generator resources are executed on a bounded thread
// pool").
func New(workerPoolSize int) *Graph {
	if workerPoolSize <= 0 {
		workerPoolSize = 32
	}
	return &Graph{
		nodes:      make(map[Key]*node),
		singletons: make(map[Key]any),
		reusedOnce: make(map[Key]any),
		pool:       newWorkerPool(workerPoolSize),
	}
}

// Option configures a Provide call.
type Option func(*node)

// WithLifetime sets the node's lifetime (default Transient).
func WithLifetime(l Lifetime) Option {
	return func(n *node) { n.lifetime = l }
}

// WithName registers the node under an explicit name, for keyed
// registrations of multiple implementations of one interface type.
func WithName(name string) Option {
	return func(n *node) { n.key.Name = name }
}

// CPUBound marks a node's constructor as synchronous and CPU-heavy so it
// is dispatched onto the bounded worker pool rather than run inline.
func CPUBound() Option {
	return func(n *node) { n.cpuBound = true }
}

// Provide registers a constructor. ctor must be a function of shape:
//
//	func(deps...) (T, error)
//	func(deps...) (T, func() error, error)   // resource: release callback
//
// Each parameter of ctor is itself resolved from the graph, recursively,
// exactly as spec.md §4.3 requires ("factories may declare their own
// dependencies via their own parameter list").
func (g *Graph) Provide(ctor any, opts ...Option) error {
	if g.frozen {
		return fmt.Errorf("di: graph is frozen, cannot register %T after setup", ctor)
	}
	ctorValue := reflect.ValueOf(ctor)
	ctorType := ctorValue.Type()
	if ctorType.Kind() != reflect.Func {
		return fmt.Errorf("di: Provide requires a function, got %s", ctorType)
	}

	n := &node{ctorValue: ctorValue, ctorType: ctorType, lifetime: Transient}
	for _, opt := range opts {
		opt(n)
	}

	numOut := ctorType.NumOut()
	if numOut != 2 && numOut != 3 {
		return fmt.Errorf("di: constructor %s must return (T, error) or (T, func() error, error)", ctorType)
	}
	if !ctorType.Out(numOut - 1).Implements(errorType) {
		return fmt.Errorf("di: constructor %s must return error as its last value", ctorType)
	}
	n.key.Type = ctorType.Out(0)
	if numOut == 3 {
		if ctorType.Out(1) != releaseFuncType {
			return fmt.Errorf("di: constructor %s's second return must be func() error", ctorType)
		}
		n.isResource = true
	}

	for i := 0; i < ctorType.NumIn(); i++ {
		n.deps = append(n.deps, Key{Type: ctorType.In(i)})
	}

	if existing, ok := g.nodes[n.key]; ok {
		if existing.ctorType != n.ctorType {
			return fmt.Errorf("di: duplicate registration for %s with a different factory", n.key)
		}
		return nil
	}
	g.nodes[n.key] = n
	return nil
}

// ProvideAll is the batch form of Provide.
func (g *Graph) ProvideAll(ctors ...any) error {
	for _, c := range ctors {
		if err := g.Provide(c); err != nil {
			return err
		}
	}
	return nil
}

var (
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
	releaseFuncType = reflect.TypeOf(func() error { return nil })
)

// Lookup reports whether a node is registered for typ — used by
// pkg/signature to decide whether a handler request-struct field is a
// Dependency (spec.md §4.2 rule 3).
func (g *Graph) Lookup(typ reflect.Type) (found bool) {
	_, found = g.nodes[Key{Type: typ}]
	return found
}

// Freeze marks the graph read-only; further Provide calls fail. Called
// once application setup completes (spec.md §3, "frozen after setup").
func (g *Graph) Freeze() { g.frozen = true }
