// Package typeinfo flattens a Go type — possibly wrapped in corvid's
// Path/Query/Header/Cookie/Body/Form generic markers and pointer
// optionals — into a canonical TypeDescriptor, and classifies it as
// scalar, sequence, union, or one of the structured kinds. It performs
// no I/O and does no request-time work; everything here runs once, at
// endpoint-registration time, and is safe to cache by reflect.Type.
package typeinfo

import (
	"fmt"
	"reflect"
	"sync"
)

// StructuredKind classifies an aggregate type the way spec analysis does.
type StructuredKind int

const (
	// StructuredNone means the type is not an aggregate at all (scalar/sequence).
	StructuredNone StructuredKind = iota
	// StructuredTaggedStruct is a Go struct with corvid/json tags.
	StructuredTaggedStruct
	// StructuredPlainRecord is a map[string]T with a concrete T.
	StructuredPlainRecord
	// StructuredUntypedMapping is a map[string]interface{}.
	StructuredUntypedMapping
)

func (k StructuredKind) String() string {
	switch k {
	case StructuredTaggedStruct:
		return "tagged-struct"
	case StructuredPlainRecord:
		return "plain-record"
	case StructuredUntypedMapping:
		return "untyped-mapping"
	default:
		return "none"
	}
}

// Descriptor is the canonical, flattened description of a declared type.
type Descriptor struct {
	Base           reflect.Type
	Metadata       []Meta // ordered left-to-right; later entries override earlier ones for the same Kind
	Nullable       bool
	IsSequence     bool
	Item           *Descriptor
	IsUnion        bool
	Variants       []*Descriptor
	IsStructured   bool
	StructuredKind StructuredKind
}

// MetaKind names a recognized metadata concern (decoder override, alias, ...).
type MetaKind string

const (
	MetaAlias      MetaKind = "alias"
	MetaDecoder    MetaKind = "decoder"
	MetaConstraint MetaKind = "constraint"
)

// Meta is one ordered metadata element extracted from a corvid struct tag
// or a wrapper type's registered options. Later Meta entries of the same
// Kind override earlier ones, per spec.md's annotation-ordering rule.
type Meta struct {
	Kind  MetaKind
	Key   string
	Value string
}

// ErrInvalidParamType is returned when a type combination cannot be
// classified — e.g. a Param role wrapper around a channel or a func type.
type ErrInvalidParamType struct {
	Type   reflect.Type
	Reason string
}

func (e *ErrInvalidParamType) Error() string {
	return fmt.Sprintf("invalid parameter type %s: %s", e.Type, e.Reason)
}

// cache memoizes descriptors by reflect.Type so repeated Analyze calls for
// structurally identical types return identical results (supports the
// idempotent-setup testable property). Route registration can run
// Analyze from multiple goroutines (e.g. an application registering
// route groups concurrently at boot), so entries is guarded by mu.
type cache struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*Descriptor
}

func (c *cache) get(t reflect.Type) (*Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[t]
	return d, ok
}

func (c *cache) set(t reflect.Type, d *Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[t] = d
}

var globalCache = &cache{entries: make(map[reflect.Type]*Descriptor)}

// Analyze flattens t (which may be a pointer, slice, map, or struct type)
// into a Descriptor. metadata carries any ordered Meta parsed from a
// struct tag by the caller (pkg/signature); Analyze appends type-implied
// metadata (none today) and returns the merged, ordered list.
func Analyze(t reflect.Type, metadata []Meta) (*Descriptor, error) {
	if t == nil {
		return nil, &ErrInvalidParamType{Reason: "nil type"}
	}

	if d, ok := globalCache.get(t); ok && len(metadata) == 0 {
		return d, nil
	}

	d := &Descriptor{Metadata: metadata}
	orig := t

	// Step 1: unwrap pointer optionals (Go's nullable-union rendering,
	// spec.md §4.1 step 2 — "a union of a single non-null type plus null
	// is reduced to that type with nullable=true").
	for t.Kind() == reflect.Ptr {
		d.Nullable = true
		t = t.Elem()
	}

	// Step 2: sum-type Union[...] wrapper (return-type variants only).
	if isUnionType(t) {
		variants, err := unionVariants(t)
		if err != nil {
			return nil, err
		}
		d.IsUnion = true
		d.Variants = variants
		d.Base = t
		if len(metadata) == 0 {
			globalCache.set(orig, d)
		}
		return d, nil
	}

	// Step 3: sequence-ness.
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		item, err := Analyze(t.Elem(), nil)
		if err != nil {
			return nil, err
		}
		d.IsSequence = true
		d.Item = item
		d.Base = t
		if len(metadata) == 0 {
			globalCache.set(orig, d)
		}
		return d, nil
	}

	// Step 4: structured-kind detection.
	switch t.Kind() {
	case reflect.Struct:
		d.IsStructured = true
		d.StructuredKind = StructuredTaggedStruct
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, &ErrInvalidParamType{Type: t, Reason: "map key must be string"}
		}
		d.IsStructured = true
		if t.Elem().Kind() == reflect.Interface {
			d.StructuredKind = StructuredUntypedMapping
		} else {
			d.StructuredKind = StructuredPlainRecord
		}
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return nil, &ErrInvalidParamType{Type: t, Reason: "type cannot be classified as a request/response value"}
	}

	d.Base = t
	if len(metadata) == 0 {
		globalCache.set(orig, d)
	}
	return d, nil
}

// IsScalar reports whether d is neither structured, sequence, nor union —
// the fallthrough kind for textual/numeric/boolean parameters.
func (d *Descriptor) IsScalar() bool {
	return !d.IsStructured && !d.IsSequence && !d.IsUnion
}

// Override merges a Meta into the descriptor's ordered list, appending it
// (later entries win on lookup) exactly as spec.md's annotation model
// requires — it does not deduplicate by position, only by declared order.
func (d *Descriptor) Override(m Meta) {
	d.Metadata = append(d.Metadata, m)
}

// Lookup returns the most recently appended Meta of the given kind/key,
// implementing "later annotations override earlier ones".
func (d *Descriptor) Lookup(kind MetaKind, key string) (Meta, bool) {
	for i := len(d.Metadata) - 1; i >= 0; i-- {
		m := d.Metadata[i]
		if m.Kind == kind && (key == "" || m.Key == key) {
			return m, true
		}
	}
	return Meta{}, false
}
