package signature

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// FieldViolation is one field-level constraint failure discovered while
// validating a decoded body struct, per spec.md §3's constraint bag
// applying to each field of a structured Body[T], not just the body as a
// whole (worked example: `email: str(pattern="@")` on a nested field).
type FieldViolation struct {
	Param   string
	Message string
}

// ValidationError aggregates every field violation found in one decoded
// value, so pkg/endpoint can turn it into one InvalidRequestErrors detail
// per violation instead of a single collapsed message (spec.md §8's
// completeness property: K invalid parameters yield exactly K details).
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Param + ": " + v.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// bodyField is one struct field of a Body[T] value that carries its own
// corvid constraint tag.
type bodyField struct {
	index       []int
	wireName    string
	constraints Constraints
}

// validatorForType returns a Validator that checks a decoded value's
// fields against their own corvid tag constraints. Only struct types
// carrying at least one constrained field produce a non-nil Validator;
// everything else (scalars, sequences, dependency types) validates
// through Constraints.Check alone.
func validatorForType(t reflect.Type) (Validator, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, nil
	}
	fields, err := collectBodyFields(t, nil, "", map[reflect.Type]bool{t: true})
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return func(value any) error {
		rv := reflect.ValueOf(value)
		for rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				return nil
			}
			rv = rv.Elem()
		}
		var violations []FieldViolation
		for _, f := range fields {
			fv := rv.FieldByIndex(f.index)
			for _, msg := range f.constraints.Check(fv.Interface()) {
				violations = append(violations, FieldViolation{Param: f.wireName, Message: msg})
			}
		}
		if len(violations) == 0 {
			return nil
		}
		return &ValidationError{Violations: violations}
	}, nil
}

// collectBodyFields walks t's exported fields (recursing into nested
// tagged structs, dot-joining their wire names) gathering every field
// that declares at least one corvid constraint. seen guards against a
// self-referential domain type recursing forever; a type already on the
// current path is treated as a leaf.
func collectBodyFields(t reflect.Type, prefix []int, prefixName string, seen map[reflect.Type]bool) ([]bodyField, error) {
	var out []bodyField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		index := append(append([]int{}, prefix...), i)
		tag := parseTag(f.Tag.Get("corvid"))
		wireName := wireNameFor(f)
		if prefixName != "" {
			wireName = prefixName + "." + wireName
		}

		c, err := constraintsFromTag(tag)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if !c.IsZero() {
			out = append(out, bodyField{index: index, wireName: wireName, constraints: c})
		}

		nested := f.Type
		for nested.Kind() == reflect.Ptr {
			nested = nested.Elem()
		}
		if nested.Kind() == reflect.Struct && nested != timeType && !seen[nested] {
			childSeen := make(map[reflect.Type]bool, len(seen)+1)
			for k := range seen {
				childSeen[k] = true
			}
			childSeen[nested] = true
			children, err := collectBodyFields(nested, index, wireName, childSeen)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		}
	}
	return out, nil
}

func wireNameFor(f reflect.StructField) string {
	if j := f.Tag.Get("json"); j != "" {
		name := strings.Split(j, ",")[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return toKebab(f.Name)
}
