package typeinfo

import "reflect"

// Unioner is implemented by corvid.Union[...] wrapper types so the
// introspector can enumerate their variant types without depending on
// pkg/typeinfo's callers knowing the concrete wrapper generic in use.
type Unioner interface {
	// UnionVariantTypes returns the reflect.Type of each declared variant,
	// in declaration order.
	UnionVariantTypes() []reflect.Type
}

var unionerType = reflect.TypeOf((*Unioner)(nil)).Elem()

func isUnionType(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	return reflect.PtrTo(t).Implements(unionerType) || t.Implements(unionerType)
}

func unionVariants(t reflect.Type) ([]*Descriptor, error) {
	zero := reflect.New(t).Interface().(Unioner)
	types := zero.UnionVariantTypes()
	out := make([]*Descriptor, 0, len(types))
	for _, vt := range types {
		d, err := Analyze(vt, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
