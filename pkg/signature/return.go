package signature

import (
	"net/http"
	"reflect"

	"github.com/corvid-http/corvid/pkg/typeinfo"
)

// ResponseVariant is one possible successful response shape a handler may
// produce, per spec.md §3: a content type, an encoder, an example value,
// and the declared Go type, keyed by the status code it is emitted under.
type ResponseVariant struct {
	StatusCode   int
	ContentType  string
	DeclaredType reflect.Type
	IsEmpty      bool
	IsStream     bool
	IsSSE        bool
}

// unionerType is the interface corvid.Union[A, B] implements so
// analyzeReturn can enumerate its variants without importing the root
// corvid package (avoiding the same import-cycle concern paramrole
// exists for).
var unionerType = reflect.TypeOf((*typeinfo.Unioner)(nil)).Elem()

// analyzeReturn classifies a handler's declared return type into one or
// more ResponseVariants. A plain type produces exactly one variant with
// StatusCode 200; corvid.Status[T] carries an explicit code (detected at
// runtime from the returned value, not from static analysis, so its
// declared variant here is 200); corvid.Union[...] fans out into one variant per
// arm; corvid.Empty produces a single no-body 204 variant.
func analyzeReturn(returnType reflect.Type) ([]*ResponseVariant, error) {
	if isEmptyReturnType(returnType) {
		return []*ResponseVariant{{StatusCode: http.StatusNoContent, IsEmpty: true, DeclaredType: returnType}}, nil
	}

	if reflect.PtrTo(returnType).Implements(unionerType) || returnType.Implements(unionerType) {
		variants, err := unionResponseVariants(returnType)
		if err != nil {
			return nil, err
		}
		return variants, nil
	}

	if isSSEStreamType(returnType) {
		return []*ResponseVariant{{StatusCode: http.StatusOK, ContentType: "text/event-stream", IsStream: true, IsSSE: true, DeclaredType: returnType}}, nil
	}

	return []*ResponseVariant{{StatusCode: http.StatusOK, ContentType: "application/json", DeclaredType: returnType}}, nil
}

func isEmptyReturnType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.NumField() == 0
}

// isSSEStreamType recognizes the iter.Seq[sse.Event]-shaped streaming
// return convention (spec.md §6): a func type accepting a single yield
// function argument, Go 1.23's range-over-func iterator shape.
func isSSEStreamType(t reflect.Type) bool {
	if t.Kind() != reflect.Func {
		return false
	}
	if t.NumIn() != 1 {
		return false
	}
	yieldType := t.In(0)
	return yieldType.Kind() == reflect.Func
}

func unionResponseVariants(t reflect.Type) ([]*ResponseVariant, error) {
	unioner, ok := reflect.New(t).Interface().(typeinfo.Unioner)
	if !ok {
		return nil, &typeinfo.ErrInvalidParamType{Type: t, Reason: "declared union type does not implement Unioner"}
	}
	variantTypes := unioner.UnionVariantTypes()
	variants := make([]*ResponseVariant, 0, len(variantTypes))
	for _, vt := range variantTypes {
		variants = append(variants, &ResponseVariant{
			StatusCode:  statusCodeForVariant(vt),
			ContentType: "application/json",
			DeclaredType: vt,
		})
	}
	return variants, nil
}

// statusCodeForVariant returns the declared status of a union arm. It
// returns 200 for every arm, corvid.Status[T] included; a Status value's
// Code is only known from the returned value at response time.
func statusCodeForVariant(t reflect.Type) int {
	if t.Kind() != reflect.Struct {
		return http.StatusOK
	}
	if _, ok := t.FieldByName("Code"); ok {
		// corvid.Status[T] declares Code as its status; the zero value
		// isn't meaningful here since this runs on the type, not an
		// instance — callers that need the concrete code read it from the
		// resolved value at handler-return time instead. Default to 200
		// for the purposes of documenting the declared response shape.
		return http.StatusOK
	}
	return http.StatusOK
}
